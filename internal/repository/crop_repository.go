package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/agrodesk/internal/model"
)

const cropColumns = "id,user_id,name,variety,field_size_hectares,sowing_date,created_at"

// CropRepo provides persistence for crops.
type CropRepo struct{ DB *sql.DB }

func NewCropRepo(db *sql.DB) *CropRepo { return &CropRepo{DB: db} }

// Create inserts a crop and returns it with id and creation time set.
func (r *CropRepo) Create(ctx context.Context, c model.Crop) (model.Crop, error) {
	c.CreatedAt = now()
	var sowing sql.NullTime
	if c.SowingDate != nil {
		sowing = sql.NullTime{Time: *c.SowingDate, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO crops (user_id,name,variety,field_size_hectares,sowing_date,created_at) VALUES (?,?,?,?,?,?)",
		c.UserID, c.Name, nullString(c.Variety), c.FieldSizeHectares, sowing, c.CreatedAt)
	if err != nil {
		return model.Crop{}, fmt.Errorf("insert crop: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Crop{}, fmt.Errorf("insert crop id: %w", err)
	}
	c.ID = uint64(id)
	return c, nil
}

// ListByUser returns the crops owned by userID, newest first.
func (r *CropRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Crop, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+cropColumns+" FROM crops WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query crops: %w", err)
	}
	defer rows.Close()

	out := make([]model.Crop, 0)
	for rows.Next() {
		var (
			c       model.Crop
			variety sql.NullString
			sowing  sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &variety, &c.FieldSizeHectares, &sowing, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Variety = stringPtr(variety)
		c.SowingDate = timePtr(sowing)
		out = append(out, c)
	}
	return out, rows.Err()
}
