package service

import (
	"context"
	"time"

	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/queue"
)

// The store interfaces are satisfied by the MySQL repositories in
// internal/repository. Lookups that match nothing return
// repository.ErrNotFound.

type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ReportStore interface {
	Create(ctx context.Context, r model.Report) (model.Report, error)
	GetByID(ctx context.Context, id uint64) (model.Report, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Report, error)
	ListByArea(ctx context.Context, area string) ([]model.Report, error)
	UpdateReply(ctx context.Context, id uint64, reply string, at time.Time) error
}

type CropStore interface {
	Create(ctx context.Context, c model.Crop) (model.Crop, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Crop, error)
}

type AlertStore interface {
	Create(ctx context.Context, a model.Alert) (model.Alert, error)
	ListByLocation(ctx context.Context, location string) ([]model.Alert, error)
}

// EventPublisher is the subset of queue.Publisher the services need.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// CachePurger drops cached responses for a route.
type CachePurger interface {
	Purge(ctx context.Context, route string) error
}
