package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/agrodesk/internal/model"
)

// SowingDateLayout is the accepted sowing date format.
const SowingDateLayout = "2006-01-02"

type CropService struct {
	Crops CropStore
}

type CropInput struct {
	Name              string
	Variety           *string
	FieldSizeHectares float64
	SowingDate        string // YYYY-MM-DD, optional
}

func (s *CropService) Create(ctx context.Context, ownerID uint64, in CropInput) (model.Crop, error) {
	c := model.Crop{
		UserID:            ownerID,
		Name:              strings.TrimSpace(in.Name),
		FieldSizeHectares: in.FieldSizeHectares,
	}
	if c.Name == "" {
		return model.Crop{}, invalid("name is required")
	}
	if c.FieldSizeHectares < 0 {
		return model.Crop{}, invalid("fieldSizeHectares must not be negative")
	}
	if in.Variety != nil {
		if v := strings.TrimSpace(*in.Variety); v != "" {
			c.Variety = &v
		}
	}
	if d := strings.TrimSpace(in.SowingDate); d != "" {
		t, err := time.Parse(SowingDateLayout, d)
		if err != nil {
			return model.Crop{}, invalid("sowingDate must be YYYY-MM-DD")
		}
		c.SowingDate = &t
	}
	return s.Crops.Create(ctx, c)
}

// List returns ownerID's crops, newest first.
func (s *CropService) List(ctx context.Context, ownerID uint64) ([]model.Crop, error) {
	return s.Crops.ListByUser(ctx, ownerID)
}
