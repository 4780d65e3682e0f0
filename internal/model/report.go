package model

import "time"

// Report is a field report filed by a user about their land.
//
// Fields:
//
//	ID          – primary key identifier.
//	UserID      – owner of the report.
//	Title       – short summary.
//	Description – free text body.
//	Image       – optional object key or URL of an attached photo.
//	Area        – region tag used to route the report to admins.
//	Reply       – admin reply; nil until replied.
//	RepliedAt   – when the reply was last written.
//	CreatedAt   – creation timestamp.
type Report struct {
	ID          uint64     // reports.id
	UserID      uint64     // reports.user_id
	Title       string     // reports.title
	Description string     // reports.description
	Image       *string    // reports.image (nullable)
	Area        string     // reports.area
	Reply       *string    // reports.report_reply (nullable)
	RepliedAt   *time.Time // reports.replied_at (nullable)
	CreatedAt   time.Time  // reports.created_at
}

// Replied reports whether an admin has answered the report.
func (r Report) Replied() bool { return r.Reply != nil && *r.Reply != "" }
