package firebaseclient

import (
	"context"
	"time"

	"github.com/GregMSThompson/savvi-sync/internal/models"
)

// CredentialKey is where the signed-in session survives restarts.
const CredentialKey = "savvi-session"

type kvStore interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Remove(ctx context.Context, key string) error
}

type sealer interface {
	Seal(ctx context.Context, plaintext string) (string, error)
	Open(ctx context.Context, sealed string) (string, error)
}

type storedCredential struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
}

// credentials keeps the session in local storage with the refresh token sealed.
type credentials struct {
	kv     kvStore
	sealer sealer
}

func (c *credentials) Load(ctx context.Context) (*models.Session, error) {
	var stored storedCredential
	ok, err := c.kv.GetJSON(ctx, CredentialKey, &stored)
	if err != nil || !ok {
		return nil, err
	}
	refresh, err := c.sealer.Open(ctx, stored.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		User:         stored.User,
		AccessToken:  stored.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    stored.ExpiresAt,
	}, nil
}

func (c *credentials) Save(ctx context.Context, s *models.Session) error {
	sealed, err := c.sealer.Seal(ctx, s.RefreshToken)
	if err != nil {
		return err
	}
	return c.kv.SetJSON(ctx, CredentialKey, storedCredential{
		User:         s.User,
		AccessToken:  s.AccessToken,
		RefreshToken: sealed,
		ExpiresAt:    s.ExpiresAt,
	})
}

func (c *credentials) Clear(ctx context.Context) error {
	return c.kv.Remove(ctx, CredentialKey)
}
