package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/savvi-sync/internal/handlers"
	"github.com/GregMSThompson/savvi-sync/internal/middleware"
)

func NewRouter(deps *handlers.Deps, mw *middleware.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	sh := handlers.NewSessionHandlers(deps)
	ah := handlers.NewAppHandlers(deps)
	sth := handlers.NewSettingsHandlers(deps)
	lh := handlers.NewLedgerHandlers(deps)
	anh := handlers.NewAnalyticsHandlers(deps)

	r.Mount("/session", sh.SessionRoutes())
	r.Mount("/app", ah.AppRoutes())
	r.Mount("/settings", sth.SettingsRoutes())

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireUser)
		r.Mount("/buckets", lh.BucketRoutes())
		r.Mount("/transactions", lh.TransactionRoutes())
		r.Mount("/goals", lh.GoalRoutes())
		r.Mount("/debts", lh.DebtRoutes())
		r.Mount("/analytics", anh.AnalyticsRoutes())
	})
	return r
}
