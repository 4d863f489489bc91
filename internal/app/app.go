package app

import (
	"context"

	"github.com/GregMSThompson/savvi-sync/internal/appstate"
	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/internal/offline"
	"github.com/GregMSThompson/savvi-sync/internal/remote"
	"github.com/GregMSThompson/savvi-sync/internal/session"
	"github.com/GregMSThompson/savvi-sync/internal/settings"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

type Options struct {
	ResetRedirectURL  string
	MergePartialFetch bool
	Diagnostics       dto.ConfigDiagnostics
}

// App is the one application-scoped context. It is built once at startup and
// shared by every request.
type App struct {
	Settings *settings.Store
	Remote   *remote.Client
	Session  *session.Manager
	Machine  *appstate.Machine
	Offline  *offline.Cache

	baseCtx context.Context
}

func New(ctx context.Context, kv kvStore, client *remote.Client, opts Options) *App {
	cache := offline.New(kv)
	a := &App{
		Settings: settings.New(ctx, kv),
		Remote:   client,
		Session:  session.New(ctx, client.Identity, kv, session.Options{ResetRedirectURL: opts.ResetRedirectURL}),
		Machine: appstate.New(client.Data, cache, appstate.Options{
			MergePartialFetch: opts.MergePartialFetch,
			Diagnostics:       opts.Diagnostics,
		}),
		Offline: cache,
		baseCtx: logger.Detach(ctx),
	}
	a.Session.OnChange(a.follow)
	return a
}

// follow hands the session's user and connection status to the state machine.
// The session is read again so that out-of-order notifications converge on the
// latest state.
func (a *App) follow(dto.SessionView) {
	view := a.Session.View()
	uid := ""
	if view.User != nil {
		uid = view.User.ID
	}
	a.Machine.Sync(a.baseCtx, uid, view.Status)
}

// Start resolves the persisted session. The state machine follows from there.
func (a *App) Start(ctx context.Context) {
	if !a.Remote.Available() {
		logger.FromContext(ctx).Warn("remote services unavailable, starting offline", "error", a.Remote.Reason)
	}
	a.Session.Initialize(context.WithoutCancel(ctx))
}

func (a *App) View() dto.AppView {
	return a.Machine.View()
}

// Retry asks the identity service again when it was unreachable, then reruns
// the entry sequence.
func (a *App) Retry(ctx context.Context) {
	var reconnect func(context.Context)
	if a.Session.View().Status == models.ConnectionDisconnected {
		reconnect = a.Session.Revalidate
	}
	a.Machine.Retry(context.WithoutCancel(ctx), reconnect)
}

func (a *App) RefreshData(ctx context.Context) {
	a.Machine.RefreshData(context.WithoutCancel(ctx))
}

func (a *App) EnterOfflineMode(ctx context.Context) error {
	return a.Machine.EnterOfflineMode(context.WithoutCancel(ctx))
}

func (a *App) SetupComplete(ctx context.Context) {
	a.Machine.SetupComplete(context.WithoutCancel(ctx))
}

func (a *App) Close() {
	a.Session.Close()
	a.Machine.Close()
}
