package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/metrics"
	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/queue"
	"github.com/iliyamo/agrodesk/internal/repository"
)

// ReportService scopes report access by role: owners create and list
// their own reports, admins list the reports of their area and reply.
// Role checks happen in the request guard chain, not here.
type ReportService struct {
	Reports ReportStore
	Events  EventPublisher // optional
	Now     func() time.Time
}

type ReportInput struct {
	Title       string
	Description string
	Image       *string
	Area        string
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Create files a report owned by ownerID. The owner always comes from
// the caller's claim.
func (s *ReportService) Create(ctx context.Context, ownerID uint64, in ReportInput) (model.Report, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Area = strings.TrimSpace(in.Area)
	switch {
	case in.Title == "":
		return model.Report{}, invalid("title is required")
	case in.Description == "":
		return model.Report{}, invalid("description is required")
	case in.Area == "":
		return model.Report{}, invalid("area is required")
	}
	if in.Image != nil && strings.TrimSpace(*in.Image) == "" {
		in.Image = nil
	}

	r, err := s.Reports.Create(ctx, model.Report{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		Area:        in.Area,
	})
	if err != nil {
		return model.Report{}, err
	}
	metrics.ReportsCreated.Inc()
	logging.FromContext(ctx).Info("report created", slog.Uint64("report_id", r.ID), slog.String("area", r.Area))
	return r, nil
}

// ListOwn returns the reports of userID, newest first.
func (s *ReportService) ListOwn(ctx context.Context, userID uint64) ([]model.Report, error) {
	return s.Reports.ListByUser(ctx, userID)
}

// ListByArea returns every report filed for area, newest first. An
// empty area means the admin has none assigned and sees nothing.
func (s *ReportService) ListByArea(ctx context.Context, area string) ([]model.Report, error) {
	area = strings.TrimSpace(area)
	if area == "" {
		return nil, ErrNoArea
	}
	return s.Reports.ListByArea(ctx, area)
}

// Reply stores text as the report's reply, overwriting any earlier one,
// and returns the updated report.
func (s *ReportService) Reply(ctx context.Context, reportID uint64, text string) (model.Report, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Report{}, invalid("reply is required")
	}
	if reportID == 0 {
		return model.Report{}, ErrReportNotFound
	}
	if err := s.Reports.UpdateReply(ctx, reportID, text, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Report{}, ErrReportNotFound
		}
		return model.Report{}, err
	}
	r, err := s.Reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Report{}, ErrReportNotFound
		}
		return model.Report{}, err
	}
	metrics.RepliesSent.Inc()
	log := logging.FromContext(ctx)
	log.Info("report replied", slog.Uint64("report_id", r.ID))

	if s.Events != nil {
		if err := s.Events.Publish(ctx, queue.NewReportReplied(r)); err != nil {
			log.Warn("report replied event not published", slog.Uint64("report_id", r.ID), slog.Any("err", err))
		}
	}
	return r, nil
}
