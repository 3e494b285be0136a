package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields we read out of a Supabase (GoTrue) access token.
// GoTrue puts a lot more in there; we only map what the service looks at.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the signed in user.
	Email string `json:"email,omitempty"`

	// Role is the Postgres role the token maps to ("authenticated", "anon",
	// "service_role"). Not to be confused with the dashboard role below.
	Role string `json:"role,omitempty"`

	// Authenticator assurance level ("aal1", "aal2").
	AAL string `json:"aal,omitempty"`

	SessionID string `json:"session_id,omitempty"`

	AppMetadata  AppMetadata    `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AppMetadata is only writable with the service role key, so it is where
// the dashboard role lives. user_metadata is editable by the user and is
// never trusted for authorisation.
type AppMetadata struct {
	Provider  string   `json:"provider,omitempty"`
	Providers []string `json:"providers,omitempty"`
	Role      string   `json:"role,omitempty"`
}

// AppRole returns the dashboard role recorded in app_metadata, or "" if it
// was never set.
func (c *Claims) AppRole() string {
	return c.AppMetadata.Role
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
