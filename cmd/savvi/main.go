package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/savvi-sync/internal/app"
	"github.com/GregMSThompson/savvi-sync/internal/bootstrap"
	"github.com/GregMSThompson/savvi-sync/internal/config"
	"github.com/GregMSThompson/savvi-sync/internal/handlers"
	"github.com/GregMSThompson/savvi-sync/internal/middleware"
	"github.com/GregMSThompson/savvi-sync/internal/response"
	"github.com/GregMSThompson/savvi-sync/internal/router"
	"github.com/GregMSThompson/savvi-sync/internal/services"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// local development
	_ = godotenv.Load()

	// config
	cfg, err := config.Load(os.Getenv("SAVVICONFIG"))
	exitOnError("config load failed", err, slog.Default())
	exitOnError("invalid configuration", cfg.Validate(), slog.Default())

	// bootstrap
	ctx := context.Background()
	bs, err := bootstrap.Run(ctx, cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()
	ctx = logger.ToContext(ctx, bs.Log)

	if !cfg.Configured() {
		bs.Log.Warn("remote store not configured", "diagnostics", cfg.Diagnostics())
	}

	// application context
	application := app.New(ctx, bs.Local, bs.Remote, app.Options{
		ResetRedirectURL:  cfg.ResetRedirectURL,
		MergePartialFetch: cfg.MergePartialFetch,
		Diagnostics:       cfg.Diagnostics(),
	})
	defer application.Close()
	application.Start(ctx)

	// services
	lserv := services.NewLedgerService(bs.Remote.Data, application)
	anserv := services.NewAnalyticsService(application)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.SessionSvc = application.Session
	deps.AppSvc = application
	deps.SettingsSvc = application.Settings
	deps.LedgerSvc = lserv
	deps.AnalyticsSvc = anserv

	// router
	mw := middleware.NewMiddleware(application.Session, rh)
	r := router.NewRouter(deps, mw)
	bs.Log.Info("listening", "addr", cfg.ListenAddr)
	err = http.ListenAndServe(cfg.ListenAddr, r)
	exitOnError("server start failed", err, bs.Log)
}
