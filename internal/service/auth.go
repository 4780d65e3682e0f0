package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/repository"
	"github.com/iliyamo/agrodesk/internal/utils"
)

// AuthService owns credentials and sessions: signup, password
// validation, token issuing and rotation, and the profile read.
type AuthService struct {
	Users   UserStore
	Tokens  TokenStore
	Reports ReportStore
	Crops   CropStore

	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Area     string
}

// Session is what a successful login or refresh hands back.
type Session struct {
	Identity model.Identity
	Access   utils.AccessToken
	Refresh  utils.RefreshToken
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// SignupUser registers a farmer account with role set {user}.
func (s *AuthService) SignupUser(ctx context.Context, in SignupInput) (model.Identity, error) {
	return s.signup(ctx, in, model.RoleUser)
}

// SignupAdmin registers an agronomist account with role set {admin}.
// Admins must be assigned an area, it scopes which reports they see.
func (s *AuthService) SignupAdmin(ctx context.Context, in SignupInput) (model.Identity, error) {
	if strings.TrimSpace(in.Area) == "" {
		return model.Identity{}, invalid("area is required for admin accounts")
	}
	return s.signup(ctx, in, model.RoleAdmin)
}

func (s *AuthService) signup(ctx context.Context, in SignupInput, role model.Role) (model.Identity, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Area = strings.TrimSpace(in.Area)
	switch {
	case in.Name == "":
		return model.Identity{}, invalid("name is required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return model.Identity{}, invalid("a valid email is required")
	case in.Password == "":
		return model.Identity{}, invalid("password is required")
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Users.Create(ctx, model.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Roles:        []model.Role{role},
		Area:         in.Area,
	})
	if err != nil {
		return model.Identity{}, err
	}
	logging.FromContext(ctx).Info("user signed up", slog.Uint64("user_id", u.ID), slog.String("role", string(role)))
	return u.Identity(), nil
}

// Validate checks an email/password pair. An unknown email yields
// ErrUserNotFound, a wrong password ErrInvalidCredentials.
func (s *AuthService) Validate(ctx context.Context, email, password string) (model.Identity, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Identity{}, ErrUserNotFound
		}
		return model.Identity{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.Identity{}, ErrInvalidCredentials
	}
	return u.Identity(), nil
}

// Login validates the credentials and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if normalizeEmail(email) == "" || password == "" {
		return Session{}, invalid("email and password are required")
	}
	id, err := s.Validate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issue(ctx, id)
}

// Refresh rotates a refresh token: the presented one is revoked and a
// new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, invalid("refresh_token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, err
	}
	// The conditional revoke is the single-use check: a concurrent refresh
	// that lost the race finds the token already revoked.
	if err := s.Tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, err
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidRefresh
		}
		return Session{}, err
	}
	return s.issue(ctx, u.Identity())
}

// Logout revokes one refresh token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	if _, err := s.Tokens.ValidateRefresh(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefresh
		}
		return err
	}
	if err := s.Tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefresh
		}
		return err
	}
	return nil
}

// LogoutAll revokes every refresh token of userID. Access tokens already
// issued stay valid until they expire.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) error {
	return s.Tokens.RevokeAllForUser(ctx, userID)
}

// Profile returns the user together with the reports and crops they own.
func (s *AuthService) Profile(ctx context.Context, userID uint64) (model.Profile, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Profile{}, ErrUserNotFound
		}
		return model.Profile{}, err
	}
	reports, err := s.Reports.ListByUser(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	crops, err := s.Crops.ListByUser(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{Identity: u.Identity(), Reports: reports, Crops: crops}, nil
}

func (s *AuthService) issue(ctx context.Context, id model.Identity) (Session, error) {
	access, err := utils.NewAccessToken(s.Secret, id, s.AccessTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.RefreshTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Tokens.StoreRefresh(ctx, id.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{Identity: id, Access: access, Refresh: refresh}, nil
}
