package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mesh-visualizer/backend/internal/api"
	"github.com/mesh-visualizer/backend/internal/config"
	"github.com/mesh-visualizer/backend/internal/gateway"
	"github.com/mesh-visualizer/backend/internal/metrics"
	"github.com/mesh-visualizer/backend/internal/nav"
	"github.com/mesh-visualizer/backend/internal/quality"
	"github.com/mesh-visualizer/backend/internal/store"
	"github.com/mesh-visualizer/backend/internal/view"
	"github.com/mesh-visualizer/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	path := *configPath
	if path == "" {
		// Default to a config next to the executable.
		exePath, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		path = filepath.Join(filepath.Dir(exePath), "mesh-visualizer.yml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := api.NewLogger(cfg.Log.Level)
	m := metrics.New()

	st := store.New()
	gw := gateway.NewClient(cfg.ContentStore, cfg.Dataset, logger)
	classifier := quality.New(cfg.Quality.GoodThreshold, cfg.Quality.BadThreshold)
	ctrl := nav.New(gw, st, classifier, cfg.Dataset, logger, m)
	presenter := view.New(st, cfg.View.ClusterCellDegrees)

	hub := api.NewHub(logger)
	ctrl.SetNotifier(hub.Broadcast)

	h := api.NewHandler(ctrl, presenter, st, gw, logger, Version)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.ErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 * 1024,
	}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Server.EnableRequestLog {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics" ||
				strings.HasPrefix(path, "/api/ws")
		},
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/ws")
		},
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(api.MetricsMiddleware(m))

	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins(),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	api.RegisterRoutes(e, h, hub, m)

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn().Err(err).Msg("failed to register static routes")
		} else {
			logger.Info().Msg("serving embedded frontend")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup discovery runs in the background; the API serves
	// whatever has landed so far.
	go func() {
		if err := ctrl.DiscoverSites(ctx); err != nil {
			logger.Error().Err(err).Msg("site discovery failed")
		}
	}()

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		IdleTimeout:  2 * time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("listen", cfg.ServerAddr()).
		Str("content_store", cfg.ContentStore.APIRoot).
		Str("branch", cfg.ContentStore.Branch).
		Msg("mesh-visualizer starting")

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
