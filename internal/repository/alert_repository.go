package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/agrodesk/internal/model"
)

const alertColumns = "id,location,title,message,severity,created_at"

// AlertRepo provides persistence for regional alerts.
type AlertRepo struct{ DB *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{DB: db} }

// Create inserts an alert and returns it with id and creation time set.
func (r *AlertRepo) Create(ctx context.Context, a model.Alert) (model.Alert, error) {
	a.CreatedAt = now()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO alerts (location,title,message,severity,created_at) VALUES (?,?,?,?,?)",
		a.Location, a.Title, a.Message, a.Severity, a.CreatedAt)
	if err != nil {
		return model.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Alert{}, fmt.Errorf("insert alert id: %w", err)
	}
	a.ID = uint64(id)
	return a, nil
}

// ListByLocation returns the alerts for an exact location, newest first.
func (r *AlertRepo) ListByLocation(ctx context.Context, location string) ([]model.Alert, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE location=? ORDER BY created_at DESC, id DESC", location)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]model.Alert, 0)
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.Location, &a.Title, &a.Message, &a.Severity, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
