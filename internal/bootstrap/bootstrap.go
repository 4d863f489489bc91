package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	"firebase.google.com/go/v4/auth"

	firebaseclient "github.com/GregMSThompson/savvi-sync/internal/client/firebase"
	"github.com/GregMSThompson/savvi-sync/internal/config"
	"github.com/GregMSThompson/savvi-sync/internal/localstore"
	"github.com/GregMSThompson/savvi-sync/internal/remote"
	"github.com/GregMSThompson/savvi-sync/internal/store"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

var (
	_ remote.Identity = (*firebaseclient.Adapter)(nil)
	_ remote.Data     = (*store.Ledger)(nil)
)

type Bootstrap struct {
	Log       *slog.Logger
	Local     *localstore.Store
	Firestore *firestore.Client
	Firebase  *auth.Client
	KMS       *gcpkms.KeyManagementClient
	Identity  *firebaseclient.Adapter
	Remote    *remote.Client
}

// Run builds everything the agent needs. Local storage is required; when the
// remote services cannot be set up the agent still starts, on a client whose
// calls all fail as offline.
func Run(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	bs, err := RunIdentity(ctx, cfg)
	if bs.Local == nil {
		return bs, err
	}
	if err == nil {
		bs.Firestore, err = InitFirestore(ctx, cfg.ProjectID)
	}
	if err != nil {
		bs.Log.Warn("remote services unavailable", "error", err)
		bs.Remote = remote.Unavailable(err)
		return bs, nil
	}

	bs.Remote = remote.New(bs.Identity, store.NewLedger(bs.Firestore))
	return bs, nil
}

// RunIdentity sets up logging, local storage and the identity adapter only,
// for the sign-in CLI. A returned error with Local set means the identity
// adapter could not be built.
func RunIdentity(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	var err error
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewJSONLines)
	ctx = logger.ToContext(ctx, bs.Log)

	bs.Local, err = localstore.Open(cfg.DBPath())
	if err != nil {
		return bs, err
	}
	if !cfg.Configured() {
		return bs, errors.New("remote store is not configured: PROJECTID and FIREBASEAPIKEY are required")
	}

	apiKey, err := ResolveAPIKey(ctx, cfg)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(ctx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	seal, err := bs.initSealer(ctx, cfg)
	if err != nil {
		return bs, err
	}
	bs.Identity, err = firebaseclient.NewAdapter(ctx, apiKey, bs.Firebase, bs.Local, seal, firebaseclient.Options{
		RequireEmailVerification: cfg.RequireEmailVerification,
		ResetRedirectURL:         cfg.ResetRedirectURL,
	})
	return bs, err
}

func (bs *Bootstrap) Close() {
	if bs.Firestore != nil {
		bs.Firestore.Close()
	}
	if bs.KMS != nil {
		bs.KMS.Close()
	}
	if bs.Local != nil {
		bs.Local.Close()
	}
}
