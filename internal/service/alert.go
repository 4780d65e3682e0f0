package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/metrics"
	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/queue"
)

// AlertRoute is the read route whose cached responses go stale when an
// alert is created.
const AlertRoute = "/alert"

type AlertService struct {
	Alerts AlertStore
	Events EventPublisher // optional
	Cache  CachePurger    // optional
}

type AlertInput struct {
	Location string
	Title    string
	Message  string
	Severity string
}

func (s *AlertService) Create(ctx context.Context, in AlertInput) (model.Alert, error) {
	a := model.Alert{
		Location: strings.TrimSpace(in.Location),
		Title:    strings.TrimSpace(in.Title),
		Message:  strings.TrimSpace(in.Message),
		Severity: strings.ToLower(strings.TrimSpace(in.Severity)),
	}
	switch {
	case a.Location == "":
		return model.Alert{}, invalid("location is required")
	case a.Title == "":
		return model.Alert{}, invalid("title is required")
	case a.Message == "":
		return model.Alert{}, invalid("message is required")
	}
	if a.Severity == "" {
		a.Severity = model.SeverityInfo
	}
	if !model.ValidSeverity(a.Severity) {
		return model.Alert{}, invalid("severity must be one of info, warning, critical")
	}

	a, err := s.Alerts.Create(ctx, a)
	if err != nil {
		return model.Alert{}, err
	}
	metrics.AlertsPublished.WithLabelValues(a.Severity).Inc()
	log := logging.FromContext(ctx)
	log.Info("alert created", slog.Uint64("alert_id", a.ID), slog.String("location", a.Location))

	if s.Cache != nil {
		if err := s.Cache.Purge(ctx, AlertRoute); err != nil {
			log.Warn("alert cache purge failed", slog.Any("err", err))
		}
	}
	if s.Events != nil {
		if err := s.Events.Publish(ctx, queue.NewAlertCreated(a)); err != nil {
			log.Warn("alert created event not published", slog.Uint64("alert_id", a.ID), slog.Any("err", err))
		}
	}
	return a, nil
}

// ListByLocation returns the alerts for location, newest first.
func (s *AlertService) ListByLocation(ctx context.Context, location string) ([]model.Alert, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, invalid("location is required")
	}
	return s.Alerts.ListByLocation(ctx, location)
}
