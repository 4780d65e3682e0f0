package model

import (
	"fmt"
	"sort"
	"strings"
)

// Role is an access label carried on a user record and in the session
// claim. Only the values declared below are valid.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw label into a Role. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ParseRoles converts raw labels into roles, silently dropping unknown
// values and duplicates. Callers treat the result as a set.
func ParseRoles(raw []string) []Role {
	seen := make(map[Role]bool, len(raw))
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRole(s)
		if err != nil || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// EncodeRoles renders a role set as the comma separated column value
// stored in users.roles. Output is sorted so equal sets encode equally.
func EncodeRoles(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range ParseRoles(RoleStrings(roles)) {
		parts = append(parts, string(r))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// DecodeRoles is the inverse of EncodeRoles.
func DecodeRoles(col string) []Role {
	if strings.TrimSpace(col) == "" {
		return nil
	}
	return ParseRoles(strings.Split(col, ","))
}

// RoleStrings returns the plain string labels, e.g. for JWT claims.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Authorized reports whether a caller holding the given roles may invoke
// an operation that accepts any of the required roles. An empty required
// set means the operation declares no role requirement.
func Authorized(required, caller []Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		for _, have := range caller {
			if want == have {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether r is present in roles.
func HasRole(roles []Role, r Role) bool {
	return Authorized([]Role{r}, roles)
}
