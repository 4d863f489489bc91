package appstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
)

type stubData struct {
	mu       sync.Mutex
	probeErr error
	listErr  map[string]error
	probes   int
	lists    int
	buckets  []models.MoneyBucket
	goals    []models.Goal
}

func (s *stubData) Probe(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes++
	return s.probeErr
}

func (s *stubData) errFor(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	return s.listErr[collection]
}

func (s *stubData) ListBuckets(context.Context, string) ([]models.MoneyBucket, error) {
	if err := s.errFor(models.CollectionBuckets); err != nil {
		return nil, err
	}
	return s.buckets, nil
}

func (s *stubData) ListTransactions(context.Context, string) ([]models.Transaction, error) {
	if err := s.errFor(models.CollectionTransactions); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *stubData) ListGoals(context.Context, string) ([]models.Goal, error) {
	if err := s.errFor(models.CollectionGoals); err != nil {
		return nil, err
	}
	return s.goals, nil
}

func (s *stubData) ListDebts(context.Context, string) ([]models.Debt, error) {
	if err := s.errFor(models.CollectionDebts); err != nil {
		return nil, err
	}
	return []models.Debt{}, nil
}

func (s *stubData) probeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes
}

// hangingData never answers the named calls until the test ends.
type hangingData struct {
	*stubData
	hang    map[string]bool
	release chan struct{}
}

func newHangingData(t *testing.T, data *stubData, calls ...string) *hangingData {
	t.Helper()
	h := &hangingData{stubData: data, hang: map[string]bool{}, release: make(chan struct{})}
	for _, c := range calls {
		h.hang[c] = true
	}
	t.Cleanup(func() { close(h.release) })
	return h
}

func (h *hangingData) wait(call string) {
	if h.hang[call] {
		<-h.release
	}
}

func (h *hangingData) Probe(ctx context.Context, uid string) error {
	h.wait("probe")
	return h.stubData.Probe(ctx, uid)
}

func (h *hangingData) ListGoals(ctx context.Context, uid string) ([]models.Goal, error) {
	h.wait(models.CollectionGoals)
	return h.stubData.ListGoals(ctx, uid)
}

var shortTimeouts = Options{ProbeTimeout: 30 * time.Millisecond, FetchTimeout: 30 * time.Millisecond}

type stubCache struct {
	snaps map[string]models.Snapshot
	saves int
}

func newStubCache() *stubCache { return &stubCache{snaps: map[string]models.Snapshot{}} }

func (c *stubCache) Load(_ context.Context, uid string) (models.Snapshot, bool) {
	s, ok := c.snaps[uid]
	return s, ok
}

func (c *stubCache) Save(_ context.Context, uid string, snap models.Snapshot) error {
	c.snaps[uid] = snap
	c.saves++
	return nil
}

func allFailing(err error) map[string]error {
	return map[string]error{
		models.CollectionBuckets:      err,
		models.CollectionTransactions: err,
		models.CollectionGoals:        err,
		models.CollectionDebts:        err,
	}
}

func cachedSnapshot() models.Snapshot {
	s := models.EmptySnapshot()
	s.Buckets = []models.MoneyBucket{{ID: "b1", Name: "Wallet", Balance: 120, UserID: "u1"}}
	s.Goals = []models.Goal{{ID: "g1", Title: "Bike", TargetAmount: 500, UserID: "u1"}}
	return s
}

func TestDisconnectedWithCacheGoesOffline(t *testing.T) {
	data := &stubData{}
	cache := newStubCache()
	cache.snaps["u1"] = cachedSnapshot()
	m := New(data, cache, Options{})

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionDisconnected)

	v := m.View()
	if v.Screen != dto.ScreenOfflineMode {
		t.Fatalf("screen = %s, want offline-mode", v.Screen)
	}
	if len(v.Data.Buckets) != 1 || v.Data.Buckets[0].ID != "b1" {
		t.Fatalf("cached data not shown: %+v", v.Data)
	}
	if data.probeCount() != 0 || data.lists != 0 {
		t.Fatalf("no remote call expected while disconnected")
	}
}

func TestDisconnectedWithoutCacheShowsConnectionError(t *testing.T) {
	diag := dto.ConfigDiagnostics{HasProjectID: true, HasAPIKey: false, ProjectID: "savvi-prod"}
	m := New(&stubData{}, newStubCache(), Options{Diagnostics: diag})

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionDisconnected)

	v := m.View()
	if v.Screen != dto.ScreenConnectionError {
		t.Fatalf("screen = %s, want connection-error", v.Screen)
	}
	if v.Diagnostics == nil || v.Diagnostics.HasAPIKey || v.Diagnostics.ProjectID != "savvi-prod" {
		t.Fatalf("diagnostics = %+v", v.Diagnostics)
	}
}

func TestNoEntryWhileCheckingOrSignedOut(t *testing.T) {
	data := &stubData{}
	m := New(data, newStubCache(), Options{})

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionChecking)
	m.Sync(helpers.TestCtx(), "", models.ConnectionConnected)

	if data.probeCount() != 0 {
		t.Fatalf("probe ran without a settled session")
	}
	if v := m.View(); v.Screen != dto.ScreenLoading {
		t.Fatalf("screen = %s", v.Screen)
	}
}

func TestEntryRunsOncePerUserAndStatus(t *testing.T) {
	data := &stubData{}
	m := New(data, newStubCache(), Options{})
	ctx := helpers.TestCtx()

	m.Sync(ctx, "u1", models.ConnectionConnected)
	m.Sync(ctx, "u1", models.ConnectionConnected)
	if data.probeCount() != 1 {
		t.Fatalf("probes = %d, want 1", data.probeCount())
	}

	m.Sync(ctx, "u2", models.ConnectionConnected)
	if data.probeCount() != 2 {
		t.Fatalf("a new user should enter again")
	}
}

func TestAllCollectionsFailingStillReady(t *testing.T) {
	data := &stubData{listErr: allFailing(errors.New("deadline"))}
	cache := newStubCache()
	cache.snaps["u1"] = cachedSnapshot()
	m := New(data, cache, Options{})

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionConnected)

	v := m.View()
	if v.Screen != dto.ScreenReady {
		t.Fatalf("screen = %s, want ready", v.Screen)
	}
	if len(v.Data.Buckets)+len(v.Data.Transactions)+len(v.Data.Goals)+len(v.Data.Debts) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", v.Data)
	}
	if got := cache.snaps["u1"]; len(got.Buckets) != 0 || got.Buckets == nil || cache.saves != 1 {
		t.Fatalf("cache should be overwritten with empty collections, got %+v", got)
	}
}

func TestMergePartialFetchKeepsCachedCollections(t *testing.T) {
	data := &stubData{
		listErr: map[string]error{models.CollectionBuckets: errs.NewNetworkError("reset", nil)},
		goals:   []models.Goal{{ID: "g2", Title: "Laptop", UserID: "u1"}},
	}
	cache := newStubCache()
	cache.snaps["u1"] = cachedSnapshot()
	m := New(data, cache, Options{MergePartialFetch: true})

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionConnected)

	v := m.View()
	if len(v.Data.Buckets) != 1 || v.Data.Buckets[0].ID != "b1" {
		t.Fatalf("failed collection should come from the cache: %+v", v.Data.Buckets)
	}
	if len(v.Data.Goals) != 1 || v.Data.Goals[0].ID != "g2" {
		t.Fatalf("fetched collection should be fresh: %+v", v.Data.Goals)
	}
}

func TestMissingSchemaNeedsSetup(t *testing.T) {
	data := &stubData{probeErr: errs.NewSchemaMissingError(models.CollectionBuckets, status.Error(codes.FailedPrecondition, "The query requires an index"))}
	m := New(data, newStubCache(), Options{})
	ctx := helpers.TestCtx()

	m.Sync(ctx, "u1", models.ConnectionConnected)
	if v := m.View(); v.Screen != dto.ScreenNeedsSetup {
		t.Fatalf("screen = %s, want needs-setup", v.Screen)
	}

	data.mu.Lock()
	data.probeErr = nil
	data.mu.Unlock()
	m.SetupComplete(ctx)
	if v := m.View(); v.Screen != dto.ScreenReady {
		t.Fatalf("screen after setup = %s, want ready", v.Screen)
	}
}

func TestRelationMessageNeedsSetup(t *testing.T) {
	data := &stubData{probeErr: errors.New(`relation "public.money_buckets" does not exist`)}
	m := New(data, newStubCache(), Options{})

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionConnected)

	if v := m.View(); v.Screen != dto.ScreenNeedsSetup {
		t.Fatalf("screen = %s, want needs-setup", v.Screen)
	}
}

func TestProbeFailureFallsBackToCache(t *testing.T) {
	data := &stubData{probeErr: errs.NewNetworkError("unavailable", nil)}
	cache := newStubCache()
	ctx := helpers.TestCtx()

	m := New(data, cache, Options{})
	m.Sync(ctx, "u1", models.ConnectionConnected)
	if v := m.View(); v.Screen != dto.ScreenConnectionError {
		t.Fatalf("screen = %s, want connection-error", v.Screen)
	}

	cache.snaps["u2"] = cachedSnapshot()
	m.Sync(ctx, "u2", models.ConnectionConnected)
	if v := m.View(); v.Screen != dto.ScreenOfflineMode {
		t.Fatalf("screen = %s, want offline-mode", v.Screen)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	data := &stubData{buckets: []models.MoneyBucket{{ID: "b1", Name: "Wallet", UserID: "u1"}}}
	cache := newStubCache()
	m := New(data, cache, Options{})
	ctx := helpers.TestCtx()
	m.Sync(ctx, "u1", models.ConnectionConnected)

	m.RefreshData(ctx)
	first := m.View()
	m.RefreshData(ctx)
	second := m.View()

	if first.Screen != dto.ScreenReady || second.Screen != dto.ScreenReady {
		t.Fatalf("screens = %s, %s", first.Screen, second.Screen)
	}
	if len(second.Data.Buckets) != 1 || len(first.Data.Buckets) != 1 {
		t.Fatalf("snapshots differ: %+v vs %+v", first.Data, second.Data)
	}
	if cache.saves != 3 {
		t.Fatalf("saves = %d, want one per load", cache.saves)
	}
}

func TestRefreshOnlyFromReadyOrOffline(t *testing.T) {
	data := &stubData{probeErr: errs.NewNetworkError("unavailable", nil)}
	m := New(data, newStubCache(), Options{})
	ctx := helpers.TestCtx()
	m.Sync(ctx, "u1", models.ConnectionConnected)

	m.RefreshData(ctx)

	if data.lists != 0 {
		t.Fatalf("refresh ran from %s", m.View().Screen)
	}
}

func TestFailedRefreshKeepsOfflineMode(t *testing.T) {
	data := &stubData{listErr: allFailing(errs.NewNetworkError("unavailable", nil))}
	cache := newStubCache()
	cache.snaps["u1"] = cachedSnapshot()
	m := New(data, cache, Options{})
	ctx := helpers.TestCtx()
	m.Sync(ctx, "u1", models.ConnectionDisconnected)

	m.RefreshData(ctx)

	v := m.View()
	if v.Screen != dto.ScreenOfflineMode || len(v.Data.Buckets) != 1 {
		t.Fatalf("offline state should be kept: %+v", v)
	}
	if cache.saves != 0 {
		t.Fatalf("failed refresh must not touch the cache")
	}
}

func TestRetriesOfferOffline(t *testing.T) {
	data := &stubData{probeErr: errs.NewNetworkError("unavailable", nil)}
	m := New(data, newStubCache(), Options{})
	ctx := helpers.TestCtx()
	m.Sync(ctx, "u1", models.ConnectionConnected)

	for i := 0; i < 3; i++ {
		if m.View().OfferOffline {
			t.Fatalf("offline offered after %d retries", i)
		}
		m.Retry(ctx, nil)
	}

	v := m.View()
	if v.RetryCount != 3 || !v.OfferOffline {
		t.Fatalf("view = %+v", v)
	}
	if data.probeCount() != 4 {
		t.Fatalf("probes = %d, want 4", data.probeCount())
	}
}

func TestEnterOfflineMode(t *testing.T) {
	data := &stubData{probeErr: errs.NewNetworkError("unavailable", nil)}
	cache := newStubCache()
	m := New(data, cache, Options{})
	ctx := helpers.TestCtx()
	m.Sync(ctx, "u1", models.ConnectionConnected)

	if err := m.EnterOfflineMode(ctx); err == nil {
		t.Fatalf("expected error without cached data")
	}
	if v := m.View(); v.Screen != dto.ScreenError || v.Error != msgNoOfflineData {
		t.Fatalf("view = %+v", v)
	}

	cache.snaps["u1"] = cachedSnapshot()
	if err := m.EnterOfflineMode(ctx); err != nil {
		t.Fatalf("EnterOfflineMode: %v", err)
	}
	if v := m.View(); v.Screen != dto.ScreenOfflineMode || v.Error != "" {
		t.Fatalf("view = %+v", v)
	}
}

func TestObserversSeeScreenChanges(t *testing.T) {
	m := New(&stubData{}, newStubCache(), Options{})
	var screens []dto.Screen
	m.OnChange(func(v dto.AppView) { screens = append(screens, v.Screen) })

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionConnected)

	if len(screens) != 2 || screens[0] != dto.ScreenLoading || screens[1] != dto.ScreenReady {
		t.Fatalf("screens = %v", screens)
	}
}

func TestHungProbeFallsBackToCache(t *testing.T) {
	data := newHangingData(t, &stubData{}, "probe")
	cache := newStubCache()
	cache.snaps["u1"] = cachedSnapshot()
	m := New(data, cache, shortTimeouts)

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionConnected)

	v := m.View()
	if v.Screen != dto.ScreenOfflineMode {
		t.Fatalf("screen = %s, want offline-mode", v.Screen)
	}
	if len(v.Data.Buckets) != 1 || v.Data.Buckets[0].ID != "b1" {
		t.Fatalf("expected cached snapshot, got %+v", v.Data)
	}
	if cache.saves != 0 {
		t.Fatalf("cache written after a failed probe")
	}
}

func TestHungCollectionComesBackEmpty(t *testing.T) {
	data := newHangingData(t, &stubData{
		buckets: []models.MoneyBucket{{ID: "b1", Name: "Wallet", UserID: "u1"}},
		goals:   []models.Goal{{ID: "g1", Title: "Bike", UserID: "u1"}},
	}, models.CollectionGoals)
	cache := newStubCache()
	m := New(data, cache, shortTimeouts)

	m.Sync(helpers.TestCtx(), "u1", models.ConnectionConnected)

	v := m.View()
	if v.Screen != dto.ScreenReady {
		t.Fatalf("screen = %s, want ready", v.Screen)
	}
	if len(v.Data.Buckets) != 1 {
		t.Fatalf("buckets = %+v", v.Data.Buckets)
	}
	if v.Data.Goals == nil || len(v.Data.Goals) != 0 {
		t.Fatalf("timed out collection should be empty, got %+v", v.Data.Goals)
	}
	if cache.saves != 1 || len(cache.snaps["u1"].Buckets) != 1 {
		t.Fatalf("snapshot should be cached once, saves=%d", cache.saves)
	}
}

func TestRetryUsesEntryStartedByReconnect(t *testing.T) {
	data := &stubData{}
	cache := newStubCache()
	m := New(data, cache, Options{})
	ctx := helpers.TestCtx()

	m.Sync(ctx, "u1", models.ConnectionDisconnected)
	if v := m.View(); v.Screen != dto.ScreenConnectionError {
		t.Fatalf("screen = %s, want connection-error", v.Screen)
	}

	m.Retry(ctx, func(ctx context.Context) {
		m.Sync(ctx, "u1", models.ConnectionChecking)
		m.Sync(ctx, "u1", models.ConnectionConnected)
	})

	v := m.View()
	if v.Screen != dto.ScreenReady || v.RetryCount != 1 {
		t.Fatalf("view = %+v", v)
	}
	if data.probeCount() != 1 || cache.saves != 1 {
		t.Fatalf("probes = %d saves = %d, want one entry", data.probeCount(), cache.saves)
	}
}

func TestRetryWithoutReconnectReenters(t *testing.T) {
	data := &stubData{}
	m := New(data, newStubCache(), Options{})
	ctx := helpers.TestCtx()
	m.Sync(ctx, "u1", models.ConnectionConnected)

	m.Retry(ctx, func(context.Context) {})

	if data.probeCount() != 2 {
		t.Fatalf("probes = %d, want 2", data.probeCount())
	}
}
