package dto

import (
	"time"

	"github.com/GregMSThompson/savvi-sync/internal/models"
)

type AuthStatus string

const (
	AuthSuccess  AuthStatus = "success"
	AuthFailure  AuthStatus = "failure"
	AuthAdvisory AuthStatus = "advisory"
)

// AuthResult is what a user-initiated identity operation reports back.
type AuthResult struct {
	Status  AuthStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

func Success() AuthResult { return AuthResult{Status: AuthSuccess} }

func Failure(reason string) AuthResult {
	return AuthResult{Status: AuthFailure, Message: reason}
}

func Advisory(message string) AuthResult {
	return AuthResult{Status: AuthAdvisory, Message: message}
}

func (r AuthResult) OK() bool { return r.Status != AuthFailure }

type AuthEventKind string

const (
	EventSignedIn       AuthEventKind = "SIGNED_IN"
	EventSignedOut      AuthEventKind = "SIGNED_OUT"
	EventTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventKind = "USER_UPDATED"
)

// AuthEvent is pushed by the identity provider whenever its view of the session changes.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *models.Session
	At      time.Time
}

// UserID is the id of the session user, or "" for no session.
func (e AuthEvent) UserID() string {
	if e.Session == nil {
		return ""
	}
	return e.Session.User.ID
}

// AuthResponse is the provider's answer to a password sign-in or sign-up.
// Session is nil when the account still needs email confirmation.
type AuthResponse struct {
	User    *models.User
	Session *models.Session
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type ProfileUpdate struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// SessionView is the read-only session state handed to the UI.
type SessionView struct {
	User        *models.User            `json:"user"`
	Status      models.ConnectionStatus `json:"connectionStatus"`
	Phase       models.SessionPhase     `json:"phase"`
	Error       string                  `json:"error,omitempty"`
	Initialized bool                    `json:"initialized"`
}
