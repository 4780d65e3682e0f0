package model

import "time"

// User represents an application user record as stored in the
// `users` table. The json tags are omitted here because these structs
// are used by the repository and service layers; handlers define
// separate response types so the password hash can never leak.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, lower-cased email address.
//	Name         – display name shown to other parties.
//	PasswordHash – bcrypt hash of the password.
//	Roles        – role set fixed at signup.
//	Area         – region tag; scopes which reports an admin sees.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	Roles        []Role    // users.roles (comma separated)
	Area         string    // users.area (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Identity is a User stripped of credential material. It is what the
// authenticator hands to the token issuer and what profile reads return.
type Identity struct {
	ID        uint64
	Email     string
	Name      string
	Roles     []Role
	Area      string
	CreatedAt time.Time
}

// Identity returns the credential-free view of u.
func (u User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Roles:     u.Roles,
		Area:      u.Area,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken models an entry in the `refresh_tokens` table. The
// plain token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Profile aggregates a user with the records they own.
type Profile struct {
	Identity Identity
	Reports  []Report
	Crops    []Crop
}
