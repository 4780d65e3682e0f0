package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/agrodesk/internal/model"
)

const reportColumns = "id,user_id,title,description,image,area,report_reply,replied_at,created_at"

// ReportRepo provides persistence for field reports. Listings are
// newest-first; id breaks ties between equal timestamps.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

// Create inserts a report and returns it with id and creation time set.
// Reply fields are always empty on a new report.
func (r *ReportRepo) Create(ctx context.Context, rep model.Report) (model.Report, error) {
	rep.CreatedAt = now()
	rep.Reply, rep.RepliedAt = nil, nil
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reports (user_id,title,description,image,area,created_at) VALUES (?,?,?,?,?,?)",
		rep.UserID, rep.Title, rep.Description, nullString(rep.Image), rep.Area, rep.CreatedAt)
	if err != nil {
		return model.Report{}, fmt.Errorf("insert report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Report{}, fmt.Errorf("insert report id: %w", err)
	}
	rep.ID = uint64(id)
	return rep, nil
}

// GetByID fetches a single report.
func (r *ReportRepo) GetByID(ctx context.Context, id uint64) (model.Report, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id=? LIMIT 1", id)
	return scanReport(row)
}

// ListByUser returns every report owned by userID.
func (r *ReportRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Report, error) {
	return r.list(ctx, "SELECT "+reportColumns+" FROM reports WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
}

// ListByArea returns every report whose area equals area exactly. The
// comparison is binary so case and accents must match.
func (r *ReportRepo) ListByArea(ctx context.Context, area string) ([]model.Report, error) {
	return r.list(ctx, "SELECT "+reportColumns+" FROM reports WHERE area=? COLLATE utf8mb4_bin ORDER BY created_at DESC, id DESC", area)
}

// UpdateReply overwrites the reply of one report. It returns ErrNotFound
// when no report has the given id.
func (r *ReportRepo) UpdateReply(ctx context.Context, id uint64, reply string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reports SET report_reply=?, replied_at=? WHERE id=?",
		reply, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update report reply: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report reply: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReportRepo) list(ctx context.Context, q string, arg any) ([]model.Report, error) {
	rows, err := r.DB.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]model.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func scanReport(s rowScanner) (model.Report, error) {
	var (
		rep       model.Report
		image     sql.NullString
		reply     sql.NullString
		repliedAt sql.NullTime
	)
	err := s.Scan(&rep.ID, &rep.UserID, &rep.Title, &rep.Description, &image, &rep.Area, &reply, &repliedAt, &rep.CreatedAt)
	if err != nil {
		return model.Report{}, notFound(err)
	}
	rep.Image = stringPtr(image)
	rep.Reply = stringPtr(reply)
	rep.RepliedAt = timePtr(repliedAt)
	return rep, nil
}
