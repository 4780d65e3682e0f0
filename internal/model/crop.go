package model

import "time"

// Crop is a crop a user grows on one of their fields.
type Crop struct {
	ID                uint64     // crops.id
	UserID            uint64     // crops.user_id
	Name              string     // crops.name
	Variety           *string    // crops.variety (nullable)
	FieldSizeHectares float64    // crops.field_size_hectares
	SowingDate        *time.Time // crops.sowing_date (nullable, DATE)
	CreatedAt         time.Time  // crops.created_at
}
