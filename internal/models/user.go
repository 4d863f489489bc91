package models

import (
	"time"
)

// User is the identity-provider account as the agent last saw it. The copy cached
// in local storage can be stale.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

// Session is an authenticated credential issued by the identity provider.
type Session struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the access token is unusable at now, with a small skew.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now.Add(time.Minute))
}

type SessionPhase string

const (
	SessionUnknown    SessionPhase = "unknown"
	SessionValidating SessionPhase = "validating"
	SessionValid      SessionPhase = "valid"
	SessionInvalid    SessionPhase = "invalid"
)

type ConnectionStatus string

const (
	ConnectionChecking     ConnectionStatus = "checking"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)
