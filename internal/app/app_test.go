package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/localstore"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/internal/remote"
	"github.com/GregMSThompson/savvi-sync/internal/session"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
)

func openStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "savvi.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// flakyIdentity is unreachable until online is set.
type flakyIdentity struct {
	mu     sync.Mutex
	online bool
}

func (f *flakyIdentity) setOnline() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = true
}

func (f *flakyIdentity) GetSession(context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.online {
		return nil, errs.NewNetworkError("dial tcp: connection refused", nil)
	}
	return &models.Session{User: models.User{ID: "u1", Email: "jane@example.com"}}, nil
}

func (f *flakyIdentity) SignIn(context.Context, string, string) (*dto.AuthResponse, error) {
	return nil, errors.New("not used")
}

func (f *flakyIdentity) SignUp(context.Context, dto.SignUpRequest) (*dto.AuthResponse, error) {
	return nil, errors.New("not used")
}

func (f *flakyIdentity) SignOut(context.Context) error { return nil }

func (f *flakyIdentity) ResetPassword(context.Context, string, string) error { return nil }

func (f *flakyIdentity) UpdateProfile(context.Context, string, string) (*models.User, error) {
	return nil, errors.New("not used")
}

func (f *flakyIdentity) Subscribe(func(dto.AuthEvent)) func() { return func() {} }

// countingData answers every read with empty collections and counts probes.
type countingData struct {
	remote.Data
	mu     sync.Mutex
	probes int
}

func (c *countingData) Probe(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes++
	return nil
}

func (c *countingData) probeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probes
}

func (c *countingData) ListBuckets(context.Context, string) ([]models.MoneyBucket, error) {
	return []models.MoneyBucket{{ID: "b1", Name: "Wallet", UserID: "u1"}}, nil
}

func (c *countingData) ListTransactions(context.Context, string) ([]models.Transaction, error) {
	return nil, nil
}

func (c *countingData) ListGoals(context.Context, string) ([]models.Goal, error) {
	return nil, nil
}

func (c *countingData) ListDebts(context.Context, string) ([]models.Debt, error) {
	return nil, nil
}

func TestStartOfflineServesCachedSnapshot(t *testing.T) {
	ctx := helpers.TestCtx()
	store := openStore(t)

	if err := store.SetJSON(ctx, session.UserCacheKey, models.User{ID: "u1", Email: "jane@example.com"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	snap := models.EmptySnapshot()
	snap.Buckets = append(snap.Buckets, models.MoneyBucket{ID: "b1", Name: "Wallet", Balance: 40, UserID: "u1"})
	seed := New(ctx, store, remote.Unavailable(errors.New("no credentials")), Options{})
	if err := seed.Offline.Save(ctx, "u1", snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	seed.Close()

	a := New(ctx, store, remote.Unavailable(errors.New("no credentials")), Options{})
	defer a.Close()
	a.Start(ctx)

	sv := a.Session.View()
	if sv.Status != models.ConnectionDisconnected || sv.User == nil || sv.User.ID != "u1" {
		t.Fatalf("expected disconnected session with cached user, got %+v", sv)
	}
	view := a.View()
	if view.Screen != dto.ScreenOfflineMode {
		t.Fatalf("expected offline-mode, got %s", view.Screen)
	}
	if len(view.Data.Buckets) != 1 || view.Data.Buckets[0].Name != "Wallet" {
		t.Fatalf("unexpected snapshot: %+v", view.Data)
	}
}

func TestStartOfflineWithoutSnapshotShowsConnectionError(t *testing.T) {
	ctx := helpers.TestCtx()
	store := openStore(t)
	if err := store.SetJSON(ctx, session.UserCacheKey, models.User{ID: "u1"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	diag := dto.ConfigDiagnostics{HasProjectID: false, HasAPIKey: true}
	a := New(ctx, store, remote.Unavailable(errors.New("no credentials")), Options{Diagnostics: diag})
	defer a.Close()
	a.Start(ctx)

	view := a.View()
	if view.Screen != dto.ScreenConnectionError {
		t.Fatalf("expected connection-error, got %s", view.Screen)
	}
	if view.Diagnostics == nil || view.Diagnostics.HasProjectID || !view.Diagnostics.HasAPIKey {
		t.Fatalf("expected diagnostics on the connection-error view, got %+v", view.Diagnostics)
	}
	if err := a.EnterOfflineMode(ctx); err == nil {
		t.Fatalf("expected error entering offline mode without cached data")
	}

	a.Retry(ctx)
	if got := a.View(); got.Screen != dto.ScreenConnectionError || got.RetryCount != 1 {
		t.Fatalf("expected connection-error after one retry, got %s retry=%d", got.Screen, got.RetryCount)
	}
}

func TestStartWithoutAnyUserStaysLoading(t *testing.T) {
	ctx := helpers.TestCtx()
	a := New(ctx, openStore(t), remote.Unavailable(errors.New("no credentials")), Options{})
	defer a.Close()
	a.Start(ctx)

	if a.Session.User() != nil {
		t.Fatalf("expected no user")
	}
	if got := a.View().Screen; got != dto.ScreenLoading {
		t.Fatalf("expected loading while nobody is signed in, got %s", got)
	}
}

func TestRetryAfterReconnectEntersOnce(t *testing.T) {
	ctx := helpers.TestCtx()
	store := openStore(t)
	if err := store.SetJSON(ctx, session.UserCacheKey, models.User{ID: "u1"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	identity := &flakyIdentity{}
	data := &countingData{}
	a := New(ctx, store, remote.New(identity, data), Options{})
	defer a.Close()
	a.Start(ctx)

	if got := a.View().Screen; got != dto.ScreenConnectionError {
		t.Fatalf("expected connection-error while unreachable, got %s", got)
	}

	identity.setOnline()
	a.Retry(ctx)

	view := a.View()
	if view.Screen != dto.ScreenReady || view.RetryCount != 1 {
		t.Fatalf("expected ready after one retry, got %s retry=%d", view.Screen, view.RetryCount)
	}
	if len(view.Data.Buckets) != 1 {
		t.Fatalf("unexpected snapshot: %+v", view.Data)
	}
	if n := data.probeCount(); n != 1 {
		t.Fatalf("probes = %d, want 1", n)
	}
	if sv := a.Session.View(); sv.Status != models.ConnectionConnected {
		t.Fatalf("session status = %s, want connected", sv.Status)
	}
}
