// Package queue carries notification events over RabbitMQ: payload
// types, a publisher used by the services and a consumer that turns
// events into notification log lines.
package queue

import (
	"time"

	"github.com/iliyamo/agrodesk/internal/model"
)

// NotificationQueue is the durable queue every event goes through.
const NotificationQueue = "farm.notifications"

// Event types.
const (
	TypeReportReplied = "report.replied"
	TypeAlertCreated  = "alert.created"
)

// Event is anything the publisher can send.
type Event interface {
	EventType() string
}

// ReportRepliedEvent is published after an admin answers a report. It
// carries enough for the farmer notification without a database read.
type ReportRepliedEvent struct {
	Type      string `json:"type"`
	ReportID  uint64 `json:"report_id"`
	UserID    uint64 `json:"user_id"`
	Area      string `json:"area"`
	Title     string `json:"title"`
	Reply     string `json:"reply"`
	RepliedAt string `json:"replied_at"`
}

func (ReportRepliedEvent) EventType() string { return TypeReportReplied }

// NewReportReplied builds the event from a report that has a reply.
func NewReportReplied(r model.Report) ReportRepliedEvent {
	ev := ReportRepliedEvent{
		Type:     TypeReportReplied,
		ReportID: r.ID,
		UserID:   r.UserID,
		Area:     r.Area,
		Title:    r.Title,
	}
	if r.Reply != nil {
		ev.Reply = *r.Reply
	}
	if r.RepliedAt != nil {
		ev.RepliedAt = r.RepliedAt.UTC().Format(time.RFC3339)
	}
	return ev
}

// AlertCreatedEvent is published for every new location alert.
type AlertCreatedEvent struct {
	Type      string `json:"type"`
	AlertID   uint64 `json:"alert_id"`
	Location  string `json:"location"`
	Title     string `json:"title"`
	Severity  string `json:"severity"`
	CreatedAt string `json:"created_at"`
}

func (AlertCreatedEvent) EventType() string { return TypeAlertCreated }

func NewAlertCreated(a model.Alert) AlertCreatedEvent {
	return AlertCreatedEvent{
		Type:      TypeAlertCreated,
		AlertID:   a.ID,
		Location:  a.Location,
		Title:     a.Title,
		Severity:  a.Severity,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
