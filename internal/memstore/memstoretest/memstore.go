// Package memstoretest holds in-memory implementations of the service
// stores for tests. They mirror the MySQL repositories' contracts
// (sentinel errors, newest-first ordering, microsecond timestamps).
// Production code must not import it.
package memstoretest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/repository"
)

// Clock hands out strictly increasing timestamps so newest-first
// ordering is deterministic in tests.
type Clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// Store bundles every in-memory table.
type Store struct {
	Users   *Users
	Tokens  *Tokens
	Reports *Reports
	Crops   *Crops
	Alerts  *Alerts
}

func New() *Store {
	clk := &Clock{}
	return &Store{
		Users:   &Users{clock: clk, byID: map[uint64]model.User{}},
		Tokens:  &Tokens{clock: clk, byHash: map[string]*model.RefreshToken{}},
		Reports: &Reports{clock: clk, byID: map[uint64]model.Report{}},
		Crops:   &Crops{clock: clk},
		Alerts:  &Alerts{clock: clk},
	}
}

type Users struct {
	mu    sync.Mutex
	clock *Clock
	seq   uint64
	byID  map[uint64]model.User
}

func (s *Users) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	s.seq++
	u.ID = s.seq
	u.CreatedAt = s.clock.Now()
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = u
	return u, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type Tokens struct {
	mu     sync.Mutex
	clock  *Clock
	seq    uint64
	byHash map[string]*model.RefreshToken
}

func (s *Tokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.byHash[hash] = &model.RefreshToken{ID: s.seq, UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: s.clock.Now()}
	return nil
}

func (s *Tokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byHash[hash]
	if !ok || t.RevokedAt != nil || !t.ExpiresAt.After(time.Now().UTC()) {
		return 0, repository.ErrNotFound
	}
	return t.UserID, nil
}

func (s *Tokens) RevokeByHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byHash[hash]
	if !ok || t.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := s.clock.Now()
	t.RevokedAt = &now
	return nil
}

func (s *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			now := s.clock.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

// Active counts unrevoked tokens of userID.
func (s *Tokens) Active(userID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type Reports struct {
	mu    sync.Mutex
	clock *Clock
	seq   uint64
	byID  map[uint64]model.Report
}

func (s *Reports) Create(_ context.Context, r model.Report) (model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	r.ID = s.seq
	r.CreatedAt = s.clock.Now()
	r.Reply, r.RepliedAt = nil, nil
	s.byID[r.ID] = r
	return r, nil
}

func (s *Reports) GetByID(_ context.Context, id uint64) (model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return model.Report{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *Reports) ListByUser(_ context.Context, userID uint64) ([]model.Report, error) {
	return s.filter(func(r model.Report) bool { return r.UserID == userID }), nil
}

func (s *Reports) ListByArea(_ context.Context, area string) ([]model.Report, error) {
	return s.filter(func(r model.Report) bool { return r.Area == area }), nil
}

func (s *Reports) UpdateReply(_ context.Context, id uint64, reply string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Reply, r.RepliedAt = &reply, &at
	s.byID[id] = r
	return nil
}

func (s *Reports) filter(keep func(model.Report) bool) []model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Report{}
	for _, r := range s.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

type Crops struct {
	mu    sync.Mutex
	clock *Clock
	rows  []model.Crop
}

func (s *Crops) Create(_ context.Context, c model.Crop) (model.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uint64(len(s.rows) + 1)
	c.CreatedAt = s.clock.Now()
	s.rows = append(s.rows, c)
	return c, nil
}

func (s *Crops) ListByUser(_ context.Context, userID uint64) ([]model.Crop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Crop{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].UserID == userID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

type Alerts struct {
	mu    sync.Mutex
	clock *Clock
	rows  []model.Alert
}

func (s *Alerts) Create(_ context.Context, a model.Alert) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uint64(len(s.rows) + 1)
	a.CreatedAt = s.clock.Now()
	s.rows = append(s.rows, a)
	return a, nil
}

// ListByLocation matches case-insensitively like the default MySQL
// collation does.
func (s *Alerts) ListByLocation(_ context.Context, location string) ([]model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Alert{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if strings.EqualFold(s.rows[i].Location, location) {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}
