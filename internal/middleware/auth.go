package middleware

import (
	"context"
	"net/http"

	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/internal/response"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

type sessionReader interface {
	User() *models.User
}

type Middleware struct {
	Session         sessionReader
	ResponseHandler response.ResponseHandler
}

func NewMiddleware(session sessionReader, rh response.ResponseHandler) *Middleware {
	return &Middleware{Session: session, ResponseHandler: rh}
}

// context key
type contextKey string

const UIDKey contextKey = "uid"

// RequireUser rejects requests while nobody is signed in to the agent. The user
// may be a cached one when the agent started offline.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.Session.User()
		if user == nil {
			m.ResponseHandler.HandleError(w, r, errs.NewUnauthenticatedError())
			return
		}

		_, ctx := logger.With(r.Context(), "uid", user.ID)
		ctx = context.WithValue(ctx, UIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to extract UID
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}
