package bootstrap

import (
	"context"

	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"

	"github.com/GregMSThompson/savvi-sync/internal/config"
	"github.com/GregMSThompson/savvi-sync/internal/crypto"
	"github.com/GregMSThompson/savvi-sync/internal/store"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

type sealer interface {
	Seal(ctx context.Context, plaintext string) (string, error)
	Open(ctx context.Context, sealed string) (string, error)
}

// ResolveAPIKey returns the Firebase web API key, read from Secret Manager
// when a secret reference is configured.
func ResolveAPIKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.APIKeySecret == "" {
		return cfg.FirebaseAPIKey, nil
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	logger.FromContext(ctx).Debug("resolving api key from secret manager", "secret", cfg.APIKeySecret)
	return store.NewSecretStore(client, cfg.ProjectID).Resolve(ctx, cfg.APIKeySecret)
}

// initSealer picks how the refresh token is stored: KMS-sealed when a key is
// configured, plaintext otherwise.
func (bs *Bootstrap) initSealer(ctx context.Context, cfg *config.Config) (sealer, error) {
	if cfg.KMSKeyName == "" {
		return crypto.NewPlain(), nil
	}
	client, err := gcpkms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, err
	}
	bs.KMS = client
	return crypto.NewKMS(client, cfg.KMSKeyName), nil
}
