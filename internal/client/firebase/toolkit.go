package firebaseclient

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
)

const secureTokenURL = "https://securetoken.googleapis.com/v1/token"

// passwordGrant is what the provider hands back for a password sign-in or a refresh.
type passwordGrant struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// toolkit talks to the Identity Toolkit REST API for the operations the Admin
// SDK cannot do on a user's behalf.
type toolkit struct {
	svc *identitytoolkit.Service
}

func newToolkit(ctx context.Context, apiKey string) (*toolkit, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &toolkit{svc: svc}, nil
}

func (t *toolkit) SignInWithPassword(ctx context.Context, email, password string) (*passwordGrant, error) {
	resp, err := t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toolkitError("sign in", err)
	}
	return &passwordGrant{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
	}, nil
}

func (t *toolkit) SendPasswordReset(ctx context.Context, email, continueURL string) error {
	_, err := t.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
		ContinueUrl: continueURL,
	}).Context(ctx).Do()
	if err != nil {
		return toolkitError("password reset", err)
	}
	return nil
}

func (t *toolkit) SendEmailVerification(ctx context.Context, idToken string) error {
	_, err := t.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "VERIFY_EMAIL",
		IdToken:     idToken,
	}).Context(ctx).Do()
	if err != nil {
		return toolkitError("email verification", err)
	}
	return nil
}

// Provider reason codes and the message the user sees for each.
var credentialMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "Invalid login credentials",
	"INVALID_PASSWORD":            "Invalid login credentials",
	"INVALID_LOGIN_CREDENTIALS":   "Invalid login credentials",
	"INVALID_EMAIL":               "Invalid email address",
	"USER_DISABLED":               "This account has been disabled",
	"EMAIL_EXISTS":                "User already registered",
	"WEAK_PASSWORD":               "Password should be at least 6 characters",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts, try again later",
	"TOKEN_EXPIRED":               "Session expired, please sign in again",
	"INVALID_REFRESH_TOKEN":       "Session expired, please sign in again",
	"USER_NOT_FOUND":              "Session expired, please sign in again",
}

// reasonOf extracts "WEAK_PASSWORD" from messages like "WEAK_PASSWORD : Password should be...".
func reasonOf(message string) string {
	reason, _, _ := strings.Cut(message, " ")
	return strings.TrimSpace(reason)
}

func credentialFor(message string) (*errs.CredentialError, bool) {
	reason := reasonOf(message)
	if friendly, ok := credentialMessages[reason]; ok {
		return errs.NewCredentialError(reason, friendly), true
	}
	return nil, false
}

func toolkitError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if cerr, ok := credentialFor(gerr.Message); ok {
			return cerr
		}
		transient := gerr.Code >= 500 || gerr.Code == 429
		if transient {
			return errs.NewExternalServiceError("identitytoolkit", op+" failed", true, errs.NewNetworkError(gerr.Message, err))
		}
		return errs.NewCredentialError("UNKNOWN", gerr.Message)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return errs.NewNetworkError(op+" failed: network unreachable", err)
	}
	return errs.NewExternalServiceError("identitytoolkit", op+" failed", false, err)
}

// secureTokens exchanges refresh tokens at the Secure Token endpoint, which
// speaks the plain OAuth2 refresh grant.
type secureTokens struct {
	cfg *oauth2.Config
}

func newSecureTokens(apiKey string) *secureTokens {
	return &secureTokens{cfg: &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  secureTokenURL + "?key=" + url.QueryEscape(apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}
}

func (s *secureTokens) Refresh(ctx context.Context, refreshToken string) (*passwordGrant, error) {
	tok, err := s.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			if cerr, ok := credentialFor(rerr.ErrorCode); ok {
				return nil, cerr
			}
			if rerr.Response != nil && rerr.Response.StatusCode < 500 {
				return nil, errs.NewCredentialError("INVALID_REFRESH_TOKEN", "Session expired, please sign in again")
			}
		}
		return nil, errs.NewNetworkError("token refresh failed", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		idToken = tok.AccessToken
	}
	uid, _ := tok.Extra("user_id").(string)
	return &passwordGrant{
		UID:          uid,
		IDToken:      idToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    time.Until(tok.Expiry),
	}, nil
}
