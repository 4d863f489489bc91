package session

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

// UserCacheKey holds the last signed-in user for offline start.
const UserCacheKey = "savvi-user"

const (
	defaultInitTimeout = 5 * time.Second
	defaultAuthTimeout = 10 * time.Second

	dedupeWindow  = time.Second
	debounceDelay = 100 * time.Millisecond
	errorTTL      = 8 * time.Second

	DefaultAvatar = "🥕"
)

const (
	msgNetworkOffline = "Network connection failed. Working in offline mode."
	msgTimeoutOffline = "Connection timeout. Working in offline mode."
	msgVerifyEmail    = "Please check your email for verification link before signing in."
	msgUnexpected     = "An unexpected error occurred"
)

type identityProvider interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error)
	SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email, redirectURL string) error
	UpdateProfile(ctx context.Context, name, avatar string) (*models.User, error)
	Subscribe(fn func(dto.AuthEvent)) func()
}

type kvStore interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Remove(ctx context.Context, key string) error
}

type stopper interface {
	Stop() bool
}

// afterFunc schedules fn once after d. time.AfterFunc in production.
type afterFunc func(d time.Duration, fn func()) stopper

func realAfterFunc(d time.Duration, fn func()) stopper {
	return time.AfterFunc(d, fn)
}

// Manager owns the authentication state of the agent: who is signed in, whether
// the identity service is reachable, and the message shown for the last failure.
// All state is guarded by mu, which is never held across a remote call.
type Manager struct {
	identity      identityProvider
	kv            kvStore
	resetRedirect string
	initTimeout   time.Duration
	authTimeout   time.Duration
	clockNow      func() time.Time
	afterFunc     afterFunc
	baseCtx       context.Context

	mu           sync.Mutex
	active       bool
	initializing bool
	initialized  bool
	user         *models.User
	status       models.ConnectionStatus
	phase        models.SessionPhase
	errMsg       string
	errTimer     stopper
	errGen       int
	events       debouncer
	unsubscribe  func()
	observers    []func(dto.SessionView)
}

// debouncer tracks the last applied auth event and the one waiting to apply.
type debouncer struct {
	lastKey string
	lastAt  time.Time
	applied bool
	pending stopper
	seq     int
}

type Options struct {
	ResetRedirectURL string

	// Zero means the default: 5s to resolve the session, 10s for the other calls.
	InitTimeout time.Duration
	AuthTimeout time.Duration
}

// New returns an inactive-until-Initialize manager. ctx supplies the logger used
// for work that happens outside any request, such as auth events.
func New(ctx context.Context, identity identityProvider, kv kvStore, opts Options) *Manager {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = defaultInitTimeout
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = defaultAuthTimeout
	}
	return &Manager{
		identity:      identity,
		kv:            kv,
		resetRedirect: opts.ResetRedirectURL,
		initTimeout:   opts.InitTimeout,
		authTimeout:   opts.AuthTimeout,
		clockNow:      time.Now,
		afterFunc:     realAfterFunc,
		baseCtx:       logger.Detach(ctx),
		active:        true,
		status:        models.ConnectionChecking,
		phase:         models.SessionUnknown,
	}
}

// OnChange registers fn to receive the session view after every change.
func (m *Manager) OnChange(fn func(dto.SessionView)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Manager) View() dto.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

func (m *Manager) viewLocked() dto.SessionView {
	v := dto.SessionView{
		Status:      m.status,
		Phase:       m.phase,
		Error:       m.errMsg,
		Initialized: m.initialized,
	}
	if m.user != nil {
		u := *m.user
		v.User = &u
	}
	return v
}

// User returns the current user, or nil.
func (m *Manager) User() *models.User {
	return m.View().User
}

// Initialize asks the identity service for the current session and starts
// listening for auth events. Calling it again is a no-op.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.initialized || m.initializing {
		m.mu.Unlock()
		return
	}
	m.initializing = true
	m.status = models.ConnectionChecking
	m.phase = models.SessionValidating
	m.unsubscribe = m.identity.Subscribe(m.onAuthEvent)
	m.mu.Unlock()
	m.notify()

	m.resolve(ctx)
}

// Revalidate asks for the session again after Initialize, for reconnect attempts.
func (m *Manager) Revalidate(ctx context.Context) {
	m.mu.Lock()
	if !m.active || !m.initialized || m.initializing {
		m.mu.Unlock()
		return
	}
	m.initializing = true
	m.status = models.ConnectionChecking
	m.mu.Unlock()
	m.notify()

	m.resolve(ctx)
}

func (m *Manager) resolve(ctx context.Context) {
	log := logger.FromContext(ctx)

	sess, err := helpers.Race(ctx, m.initTimeout, "get session", m.identity.GetSession)

	var cached *models.User
	offline := err != nil && errs.IsOffline(err)
	if offline {
		cached = m.cachedUser(ctx)
	}

	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.initializing = false
	m.initialized = true

	switch {
	case err == nil && sess != nil:
		u := sess.User
		m.user = &u
		m.status = models.ConnectionConnected
		m.phase = models.SessionValid
		m.clearErrorLocked()
	case err == nil:
		m.user = nil
		m.status = models.ConnectionConnected
		m.phase = models.SessionInvalid
		m.clearErrorLocked()
	case offline:
		log.Warn("identity service unreachable, starting offline", "error", err)
		m.status = models.ConnectionDisconnected
		m.phase = models.SessionUnknown
		if cached != nil {
			m.user = cached
		}
		if errs.Classify(err) == errs.KindTimeout {
			m.setErrorLocked(msgTimeoutOffline)
		} else {
			m.setErrorLocked(msgNetworkOffline)
		}
	default:
		log.Error("failed to resolve session", "error", err)
		m.status = models.ConnectionDisconnected
		m.phase = models.SessionInvalid
		m.setErrorLocked(messageOf(err, "Authentication failed"))
	}
	m.mu.Unlock()

	if err == nil && sess != nil {
		m.cacheUser(ctx, &sess.User)
	}
	m.notify()
}

// onAuthEvent drops an event identical to the last applied one within the
// dedupe window, and otherwise schedules it; a newer event replaces a pending one.
func (m *Manager) onAuthEvent(ev dto.AuthEvent) {
	log := logger.FromContext(m.baseCtx)
	key := string(ev.Kind) + "|" + ev.UserID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	now := m.clockNow()
	if m.events.applied && m.events.lastKey == key && now.Sub(m.events.lastAt) < dedupeWindow {
		log.Debug("skipping duplicate auth event", "event", ev.Kind, "uid", ev.UserID())
		return
	}
	if m.events.pending != nil {
		m.events.pending.Stop()
	}
	m.events.seq++
	seq := m.events.seq
	m.events.pending = m.afterFunc(debounceDelay, func() { m.applyEvent(seq, key, ev, now) })
}

// applyEvent applies ev. The dedupe window is measured from arrival, not from
// the end of the debounce.
func (m *Manager) applyEvent(seq int, key string, ev dto.AuthEvent, arrivedAt time.Time) {
	ctx := m.baseCtx
	log := logger.FromContext(ctx)

	m.mu.Lock()
	if !m.active || seq != m.events.seq {
		m.mu.Unlock()
		return
	}
	m.events.pending = nil
	m.events.applied = true
	m.events.lastKey = key
	m.events.lastAt = arrivedAt

	var (
		writeUser  *models.User
		clearCache bool
		changed    bool
	)
	switch {
	case ev.Session != nil:
		same := m.user != nil && m.user.ID == ev.UserID()
		if same && m.status == models.ConnectionConnected {
			log.Debug("auth event for current user, nothing to do", "event", ev.Kind, "uid", ev.UserID())
			break
		}
		if !same {
			u := ev.Session.User
			m.user = &u
			writeUser = &u
		}
		m.status = models.ConnectionConnected
		m.phase = models.SessionValid
		m.clearErrorLocked()
		changed = true
	case ev.Kind == dto.EventSignedOut:
		m.user = nil
		m.status = models.ConnectionDisconnected
		m.phase = models.SessionInvalid
		m.clearErrorLocked()
		clearCache = true
		changed = true
	}
	m.mu.Unlock()

	if writeUser != nil {
		log.Info("auth state changed", "event", ev.Kind, "uid", writeUser.ID)
		m.cacheUser(ctx, writeUser)
	}
	if clearCache {
		log.Info("signed out")
		m.dropCachedUser(ctx)
	}
	if changed {
		m.notify()
	}
}

func (m *Manager) SignIn(ctx context.Context, email, password string) dto.AuthResult {
	log := logger.FromContext(ctx)
	m.beginAttempt()

	resp, err := helpers.Race(ctx, m.authTimeout, "sign in", func(ctx context.Context) (*dto.AuthResponse, error) {
		return m.identity.SignIn(ctx, email, password)
	})
	if err != nil {
		log.Warn("sign in failed", "error", err)
		return m.fail(messageOf(err, "Sign in timeout"))
	}
	if resp == nil || resp.Session == nil {
		return m.fail("Login failed")
	}

	m.adopt(ctx, resp.Session.User)
	log.Info("signed in", "uid", resp.Session.User.ID)
	return dto.Success()
}

func (m *Manager) SignUp(ctx context.Context, req dto.SignUpRequest) dto.AuthResult {
	log := logger.FromContext(ctx)
	if req.Avatar == "" {
		req.Avatar = DefaultAvatar
	}
	m.beginAttempt()

	resp, err := helpers.Race(ctx, m.authTimeout, "sign up", func(ctx context.Context) (*dto.AuthResponse, error) {
		return m.identity.SignUp(ctx, req)
	})
	if err != nil {
		log.Warn("sign up failed", "error", err)
		return m.fail(messageOf(err, "Sign up timeout"))
	}
	if resp == nil || resp.User == nil {
		return m.fail("Registration failed")
	}
	if resp.Session == nil {
		log.Info("account created, waiting for email confirmation", "uid", resp.User.ID)
		return dto.Advisory(msgVerifyEmail)
	}

	m.adopt(ctx, resp.Session.User)
	log.Info("signed up", "uid", resp.Session.User.ID)
	return dto.Success()
}

func (m *Manager) ResetPassword(ctx context.Context, email string) dto.AuthResult {
	m.beginAttempt()

	err := helpers.RaceErr(ctx, m.authTimeout, "reset password", func(ctx context.Context) error {
		return m.identity.ResetPassword(ctx, email, m.resetRedirect)
	})
	if err != nil {
		logger.FromContext(ctx).Warn("password reset failed", "error", err)
		return m.fail(messageOf(err, "Reset password timeout"))
	}

	m.mu.Lock()
	m.status = models.ConnectionConnected
	m.mu.Unlock()
	m.notify()
	return dto.Success()
}

// SignOut ends the session. When the identity service refuses, local state is kept.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.identity.SignOut(ctx); err != nil {
		m.mu.Lock()
		m.setErrorLocked(messageOf(err, msgUnexpected))
		m.mu.Unlock()
		m.notify()
		return err
	}

	m.mu.Lock()
	m.user = nil
	m.phase = models.SessionInvalid
	m.clearErrorLocked()
	m.mu.Unlock()

	m.dropCachedUser(ctx)
	m.notify()
	return nil
}

func (m *Manager) UpdateProfile(ctx context.Context, name, avatar string) (*models.User, error) {
	if m.User() == nil {
		return nil, errs.NewUnauthenticatedError()
	}
	if avatar == "" {
		avatar = DefaultAvatar
	}

	user, err := helpers.Race(ctx, m.authTimeout, "update profile", func(ctx context.Context) (*models.User, error) {
		return m.identity.UpdateProfile(ctx, name, avatar)
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	u := *user
	m.user = &u
	m.mu.Unlock()

	m.cacheUser(ctx, user)
	m.notify()
	return user, nil
}

// Close stops event handling; late answers from the identity service are dropped.
func (m *Manager) Close() {
	m.mu.Lock()
	m.active = false
	if m.events.pending != nil {
		m.events.pending.Stop()
	}
	if m.errTimer != nil {
		m.errTimer.Stop()
	}
	unsub := m.unsubscribe
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (m *Manager) beginAttempt() {
	m.mu.Lock()
	m.clearErrorLocked()
	m.mu.Unlock()
}

func (m *Manager) fail(message string) dto.AuthResult {
	m.mu.Lock()
	m.status = models.ConnectionDisconnected
	m.setErrorLocked(message)
	m.mu.Unlock()
	m.notify()
	return dto.Failure(message)
}

func (m *Manager) adopt(ctx context.Context, user models.User) {
	m.mu.Lock()
	u := user
	m.user = &u
	m.status = models.ConnectionConnected
	m.phase = models.SessionValid
	m.clearErrorLocked()
	m.mu.Unlock()

	m.cacheUser(ctx, &user)
	m.notify()
}

// setErrorLocked shows message until errorTTL passes or another message replaces it.
func (m *Manager) setErrorLocked(message string) {
	if m.errTimer != nil {
		m.errTimer.Stop()
	}
	m.errGen++
	gen := m.errGen
	m.errMsg = message
	m.errTimer = m.afterFunc(errorTTL, func() {
		m.mu.Lock()
		if !m.active || gen != m.errGen {
			m.mu.Unlock()
			return
		}
		m.errMsg = ""
		m.errTimer = nil
		m.mu.Unlock()
		m.notify()
	})
}

func (m *Manager) clearErrorLocked() {
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
	m.errGen++
	m.errMsg = ""
}

func (m *Manager) notify() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	view := m.viewLocked()
	observers := append([]func(dto.SessionView){}, m.observers...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(view)
	}
}

func (m *Manager) cachedUser(ctx context.Context) *models.User {
	var u models.User
	ok, err := m.kv.GetJSON(ctx, UserCacheKey, &u)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to read cached user", "error", err)
		return nil
	}
	if !ok || u.ID == "" {
		return nil
	}
	return &u
}

func (m *Manager) cacheUser(ctx context.Context, u *models.User) {
	if err := m.kv.SetJSON(ctx, UserCacheKey, u); err != nil {
		logger.FromContext(ctx).Warn("failed to cache user", "error", err)
	}
}

func (m *Manager) dropCachedUser(ctx context.Context) {
	if err := m.kv.Remove(ctx, UserCacheKey); err != nil {
		logger.FromContext(ctx).Warn("failed to clear cached user", "error", err)
	}
}

// messageOf is the text shown for err. A lost race shows timeoutMessage.
func messageOf(err error, timeoutMessage string) string {
	if errs.Classify(err) == errs.KindTimeout {
		return timeoutMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgUnexpected
}
