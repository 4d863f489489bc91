package firebaseclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

const avatarClaim = "avatar"

type passwordAuth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*passwordGrant, error)
	SendPasswordReset(ctx context.Context, email, continueURL string) error
	SendEmailVerification(ctx context.Context, idToken string) error
}

type tokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*passwordGrant, error)
}

// userAdmin is the part of *auth.Client the adapter uses.
type userAdmin interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type Options struct {
	RequireEmailVerification bool
	ResetRedirectURL         string
}

// Adapter is the identity side of the remote data client, backed by Firebase
// Authentication. The signed-in session is persisted locally so it survives
// restarts of the agent and is shared with the sign-in CLI.
type Adapter struct {
	passwords passwordAuth
	tokens    tokenRefresher
	admin     userAdmin
	creds     *credentials
	events    *broadcaster
	opts      Options
	clockNow  func() time.Time

	// serializes credential read-modify-write
	mu sync.Mutex
}

func NewAdapter(ctx context.Context, apiKey string, admin *auth.Client, kv kvStore, seal sealer, opts Options) (*Adapter, error) {
	tk, err := newToolkit(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return newAdapter(tk, newSecureTokens(apiKey), admin, &credentials{kv: kv, sealer: seal}, opts, time.Now), nil
}

func newAdapter(passwords passwordAuth, tokens tokenRefresher, admin userAdmin, creds *credentials, opts Options, clockNow func() time.Time) *Adapter {
	return &Adapter{
		passwords: passwords,
		tokens:    tokens,
		admin:     admin,
		creds:     creds,
		events:    newBroadcaster(clockNow),
		opts:      opts,
		clockNow:  clockNow,
	}
}

// Subscribe registers fn for auth events and returns its unsubscribe func.
func (a *Adapter) Subscribe(fn func(dto.AuthEvent)) func() {
	return a.events.subscribe(fn)
}

// GetSession returns the persisted session after refreshing and verifying it,
// or nil when there is no usable session. Only transport failures are errors.
func (a *Adapter) GetSession(ctx context.Context) (*models.Session, error) {
	log := logger.FromContext(ctx)
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.creds.Load(ctx)
	if err != nil {
		log.Warn("discarding unreadable credential", "error", err)
		a.forget(ctx)
		return nil, nil
	}
	if sess == nil {
		return nil, nil
	}

	refreshed := false
	if sess.Expired(a.clockNow()) {
		grant, err := a.tokens.Refresh(ctx, sess.RefreshToken)
		if err != nil {
			if errs.Classify(err) == errs.KindCredential {
				log.Info("refresh token rejected, session ended", "uid", sess.User.ID)
				a.forget(ctx)
				return nil, nil
			}
			return nil, err
		}
		sess.AccessToken = grant.IDToken
		if grant.RefreshToken != "" {
			sess.RefreshToken = grant.RefreshToken
		}
		sess.ExpiresAt = a.clockNow().Add(grant.ExpiresIn)
		refreshed = true
	}

	tok, err := a.admin.VerifyIDToken(ctx, sess.AccessToken)
	if err != nil {
		if auth.IsCertificateFetchFailed(err) {
			return nil, errs.NewNetworkError("could not fetch token signing keys", err)
		}
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsUserDisabled(err) {
			log.Info("stored session no longer valid", "uid", sess.User.ID, "error", err)
			a.forget(ctx)
			return nil, nil
		}
		return nil, err
	}

	if rec, err := a.admin.GetUser(ctx, tok.UID); err == nil {
		sess.User = userFromRecord(rec)
	} else {
		log.Warn("failed to load user record, keeping cached profile", "uid", tok.UID, "error", err)
	}

	if err := a.creds.Save(ctx, sess); err != nil {
		log.Warn("failed to persist session", "error", err)
	}
	if refreshed {
		a.events.emit(dto.EventTokenRefreshed, sess)
	}
	return sess, nil
}

func (a *Adapter) SignIn(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	log := logger.FromContext(ctx)

	grant, err := a.passwords.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user := models.User{ID: grant.UID, Email: grant.Email, Name: grant.DisplayName}
	rec, err := a.admin.GetUser(ctx, grant.UID)
	switch {
	case err == nil:
		user = userFromRecord(rec)
	case a.opts.RequireEmailVerification:
		return nil, err
	default:
		log.Warn("failed to load user record after sign in", "uid", grant.UID, "error", err)
	}
	if a.opts.RequireEmailVerification && !user.EmailVerified {
		return nil, errs.NewCredentialError("EMAIL_NOT_CONFIRMED", "Email not confirmed")
	}

	sess := a.sessionFrom(user, grant)
	if err := a.persist(ctx, sess); err != nil {
		return nil, err
	}
	a.events.emit(dto.EventSignedIn, sess)
	return &dto.AuthResponse{User: &user, Session: sess}, nil
}

// SignUp creates the account. When email verification is required the answer
// carries the user but no session.
func (a *Adapter) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	log := logger.FromContext(ctx)

	toCreate := (&auth.UserToCreate{}).Email(req.Email).Password(req.Password)
	if strings.TrimSpace(req.Name) != "" {
		toCreate = toCreate.DisplayName(req.Name)
	}
	rec, err := a.admin.CreateUser(ctx, toCreate)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, errs.NewCredentialError("EMAIL_EXISTS", "User already registered")
		}
		return nil, err
	}

	if err := a.admin.SetCustomUserClaims(ctx, rec.UID, map[string]interface{}{avatarClaim: req.Avatar}); err != nil {
		log.Warn("failed to store avatar claim", "uid", rec.UID, "error", err)
	}
	user := userFromRecord(rec)
	user.Avatar = req.Avatar

	grant, err := a.passwords.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	if a.opts.RequireEmailVerification {
		if err := a.passwords.SendEmailVerification(ctx, grant.IDToken); err != nil {
			return nil, err
		}
		return &dto.AuthResponse{User: &user}, nil
	}

	sess := a.sessionFrom(user, grant)
	if err := a.persist(ctx, sess); err != nil {
		return nil, err
	}
	a.events.emit(dto.EventSignedIn, sess)
	return &dto.AuthResponse{User: &user, Session: sess}, nil
}

// SignOut revokes the refresh tokens and drops the local credential. When the
// revoke fails nothing local changes.
func (a *Adapter) SignOut(ctx context.Context) error {
	a.mu.Lock()
	sess, err := a.creds.Load(ctx)
	a.mu.Unlock()
	if err == nil && sess != nil {
		if err := a.admin.RevokeRefreshTokens(ctx, sess.User.ID); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.forget(ctx)
	a.mu.Unlock()
	a.events.emit(dto.EventSignedOut, nil)
	return nil
}

func (a *Adapter) ResetPassword(ctx context.Context, email, redirectURL string) error {
	if redirectURL == "" {
		redirectURL = a.opts.ResetRedirectURL
	}
	return a.passwords.SendPasswordReset(ctx, email, redirectURL)
}

func (a *Adapter) UpdateProfile(ctx context.Context, name, avatar string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errs.NewUnauthenticatedError()
	}
	uid := sess.User.ID

	rec, err := a.admin.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(name))
	if err != nil {
		return nil, err
	}
	claims := map[string]interface{}{}
	for k, v := range rec.CustomClaims {
		claims[k] = v
	}
	claims[avatarClaim] = avatar
	if err := a.admin.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return nil, err
	}

	user := userFromRecord(rec)
	user.Avatar = avatar
	sess.User = user
	if err := a.creds.Save(ctx, sess); err != nil {
		logger.FromContext(ctx).Warn("failed to persist updated profile", "error", err)
	}
	a.events.emit(dto.EventUserUpdated, sess)
	return &user, nil
}

func (a *Adapter) sessionFrom(user models.User, grant *passwordGrant) *models.Session {
	return &models.Session{
		User:         user,
		AccessToken:  grant.IDToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    a.clockNow().Add(grant.ExpiresIn),
	}
}

func (a *Adapter) persist(ctx context.Context, sess *models.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creds.Save(ctx, sess)
}

// forget drops the stored credential. Callers hold a.mu.
func (a *Adapter) forget(ctx context.Context) {
	if err := a.creds.Clear(ctx); err != nil {
		logger.FromContext(ctx).Warn("failed to clear credential", "error", err)
	}
}

func userFromRecord(rec *auth.UserRecord) models.User {
	u := models.User{EmailVerified: rec.EmailVerified}
	if rec.UserInfo != nil {
		u.ID = rec.UID
		u.Email = rec.Email
		u.Name = rec.DisplayName
	}
	if avatar, ok := rec.CustomClaims[avatarClaim].(string); ok {
		u.Avatar = avatar
	}
	if rec.UserMetadata != nil && rec.UserMetadata.CreationTimestamp > 0 {
		u.CreatedAt = time.UnixMilli(rec.UserMetadata.CreationTimestamp).UTC()
	}
	return u
}

