package appstate

import (
	"context"
	"sync"
	"time"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

const (
	defaultProbeTimeout = 8 * time.Second
	defaultFetchTimeout = 6 * time.Second

	// OfferOffline turns on once the retry count passes this.
	offerOfflineAfter = 2

	msgNoOfflineData = "No offline data available"
)

type dataSource interface {
	Probe(ctx context.Context, uid string) error
	ListBuckets(ctx context.Context, uid string) ([]models.MoneyBucket, error)
	ListTransactions(ctx context.Context, uid string) ([]models.Transaction, error)
	ListGoals(ctx context.Context, uid string) ([]models.Goal, error)
	ListDebts(ctx context.Context, uid string) ([]models.Debt, error)
}

type snapshotCache interface {
	Load(ctx context.Context, uid string) (models.Snapshot, bool)
	Save(ctx context.Context, uid string, snap models.Snapshot) error
}

type Options struct {
	// MergePartialFetch keeps cached collections whose fetch failed instead of
	// caching them as empty.
	MergePartialFetch bool
	Diagnostics       dto.ConfigDiagnostics

	// Zero means the default: 8s for the probe, 6s for each collection.
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
}

// Machine decides which screen the user sees and holds the one in-memory
// snapshot of their data. Results of work started for an older user or
// connection state are dropped using gen.
type Machine struct {
	data  dataSource
	cache snapshotCache
	opts  Options

	mu         sync.Mutex
	active     bool
	screen     dto.Screen
	uid        string
	status     models.ConnectionStatus
	enteredKey string
	retryCount int
	errMsg     string
	snap       models.Snapshot
	gen        int
	observers  []func(dto.AppView)
}

func New(data dataSource, cache snapshotCache, opts Options) *Machine {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Machine{
		data:   data,
		cache:  cache,
		opts:   opts,
		active: true,
		screen: dto.ScreenLoading,
		status: models.ConnectionChecking,
		snap:   models.EmptySnapshot(),
	}
}

func (m *Machine) OnChange(fn func(dto.AppView)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Machine) View() dto.AppView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

func (m *Machine) viewLocked() dto.AppView {
	v := dto.AppView{
		Screen:       m.screen,
		UserID:       m.uid,
		RetryCount:   m.retryCount,
		OfferOffline: m.retryCount > offerOfflineAfter,
		Error:        m.errMsg,
		Data:         m.snap,
	}
	if m.screen == dto.ScreenConnectionError {
		diag := m.opts.Diagnostics
		v.Diagnostics = &diag
	}
	return v
}

// UserID is the user the current snapshot belongs to.
func (m *Machine) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uid
}

// Sync follows the session. The entry sequence runs once per (user, status)
// pair; while the status is checking or nobody is signed in nothing runs.
func (m *Machine) Sync(ctx context.Context, uid string, status models.ConnectionStatus) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	if uid != m.uid {
		m.snap = models.EmptySnapshot()
		m.errMsg = ""
		m.screen = dto.ScreenLoading
		m.enteredKey = ""
		m.gen++
	}
	m.uid = uid
	m.status = status

	key := uid + "|" + string(status)
	if uid == "" || status == models.ConnectionChecking || key == m.enteredKey {
		m.mu.Unlock()
		return
	}
	m.enteredKey = key
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.enter(ctx, gen, uid, status)
}

// Retry runs the entry sequence again for the current user and status.
// reconnect, when not nil, runs first; when the session change it causes has
// already started an entry, that entry is the retry and nothing runs twice.
func (m *Machine) Retry(ctx context.Context, reconnect func(context.Context)) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.retryCount++
	m.enteredKey = ""
	gen := m.gen
	logger.FromContext(ctx).Info("retrying connection", "retry_count", m.retryCount)
	m.mu.Unlock()

	if reconnect != nil {
		reconnect(ctx)
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	uid, status := m.uid, m.status
	m.mu.Unlock()

	m.Sync(ctx, uid, status)
}

// SetupComplete probes again after the remote collections were provisioned.
func (m *Machine) SetupComplete(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.screen != dto.ScreenNeedsSetup {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen, uid := m.gen, m.uid
	m.mu.Unlock()

	m.connect(ctx, gen, uid)
}

// EnterOfflineMode shows the cached snapshot on the user's request.
func (m *Machine) EnterOfflineMode(ctx context.Context) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	gen, uid := m.gen, m.uid
	m.mu.Unlock()

	var (
		snap models.Snapshot
		ok   bool
	)
	if uid != "" {
		snap, ok = m.cache.Load(ctx, uid)
	}
	m.update(gen, func() {
		if ok {
			m.screen = dto.ScreenOfflineMode
			m.snap = snap
			m.errMsg = ""
			return
		}
		m.screen = dto.ScreenError
		m.errMsg = msgNoOfflineData
	})
	if !ok {
		return errs.NewNotFoundError(msgNoOfflineData)
	}
	return nil
}

// RefreshData reloads the snapshot while ready or offline. When nothing could
// be fetched the previous state stays and the failure is only logged.
func (m *Machine) RefreshData(ctx context.Context) {
	log := logger.FromContext(ctx)

	m.mu.Lock()
	if !m.active || (m.screen != dto.ScreenReady && m.screen != dto.ScreenOfflineMode) {
		m.mu.Unlock()
		return
	}
	gen, uid := m.gen, m.uid
	m.mu.Unlock()

	snap, failed := m.fetch(ctx, uid)
	if len(failed) == 4 {
		log.Warn("refresh failed, keeping current data", "uid", uid)
		return
	}
	snap = m.store(ctx, uid, snap, failed)

	m.update(gen, func() {
		m.screen = dto.ScreenReady
		m.snap = snap
		m.errMsg = ""
	})
}

// Close drops all in-flight work.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
}

func (m *Machine) enter(ctx context.Context, gen int, uid string, status models.ConnectionStatus) {
	log, ctx := logger.With(ctx, "uid", uid)

	if status == models.ConnectionDisconnected {
		log.Info("session disconnected, using offline data")
		m.fallBack(ctx, gen, uid)
		return
	}
	m.connect(ctx, gen, uid)
}

func (m *Machine) connect(ctx context.Context, gen int, uid string) {
	log := logger.FromContext(ctx)

	if !m.update(gen, func() {
		m.screen = dto.ScreenLoading
		m.errMsg = ""
	}) {
		return
	}

	err := helpers.RaceErr(ctx, m.opts.ProbeTimeout, "probe", func(ctx context.Context) error {
		return m.data.Probe(ctx, uid)
	})
	if err != nil {
		if errs.IsSchemaMissing(err) {
			log.Warn("remote collections not provisioned", "error", err)
			m.update(gen, func() { m.screen = dto.ScreenNeedsSetup })
			return
		}
		log.Warn("database connection failed, trying offline data", "error", err)
		m.fallBack(ctx, gen, uid)
		return
	}

	snap, failed := m.fetch(ctx, uid)
	snap = m.store(ctx, uid, snap, failed)
	m.update(gen, func() {
		m.screen = dto.ScreenReady
		m.snap = snap
	})
}

func (m *Machine) fallBack(ctx context.Context, gen int, uid string) {
	snap, ok := m.cache.Load(ctx, uid)
	m.update(gen, func() {
		if ok {
			m.screen = dto.ScreenOfflineMode
			m.snap = snap
			return
		}
		m.screen = dto.ScreenConnectionError
	})
}

// store writes the fetched snapshot to the offline cache and returns what
// should be shown.
func (m *Machine) store(ctx context.Context, uid string, snap models.Snapshot, failed []string) models.Snapshot {
	log := logger.FromContext(ctx)

	if m.opts.MergePartialFetch && len(failed) > 0 {
		if prior, ok := m.cache.Load(ctx, uid); ok {
			snap = merge(snap, prior, failed)
		}
	}
	if err := m.cache.Save(ctx, uid, snap); err != nil {
		log.Warn("failed to save offline data", "error", err)
	}
	return snap
}

// update applies fn and notifies observers, unless gen is stale.
func (m *Machine) update(gen int, fn func()) bool {
	m.mu.Lock()
	if !m.active || gen != m.gen {
		m.mu.Unlock()
		return false
	}
	fn()
	view := m.viewLocked()
	observers := append([]func(dto.AppView){}, m.observers...)
	m.mu.Unlock()

	for _, o := range observers {
		o(view)
	}
	return true
}
