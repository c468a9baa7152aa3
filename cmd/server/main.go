// Package main initializes and starts the mockshare server, setting up
// configuration, logging, storage, the snapshot cache, services, handlers
// and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/mockshare/internal/cache"
	"github.com/atinyakov/mockshare/internal/config"
	"github.com/atinyakov/mockshare/internal/db"
	"github.com/atinyakov/mockshare/internal/idgen"
	"github.com/atinyakov/mockshare/internal/logger"
	"github.com/atinyakov/mockshare/internal/ownerauth"
	"github.com/atinyakov/mockshare/internal/password"
	"github.com/atinyakov/mockshare/internal/repository"
	"github.com/atinyakov/mockshare/internal/server/handler/http"
	"github.com/atinyakov/mockshare/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.OwnerSecret == "" {
		zapLogger.Fatal("OWNER_SECRET is required to sign designer tokens")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, ok := db.ParseDialect(options.DatabaseDriver)
	if !ok {
		zapLogger.Fatal("unknown database driver", zap.String("driver", options.DatabaseDriver))
	}
	conn, err := db.Open(dialect, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()

	if dialect == db.SQLite {
		db.StartWALFlusher(ctx, conn, options.FlushInterval, 10*time.Second, zapLogger)
	}

	svcOpts := service.Options{
		Gate:   password.New(password.DefaultCost),
		IDs:    idgen.DefaultSet(),
		Logger: zapLogger,
	}
	if options.RedisAddress != "" {
		client, err := cache.Connect(ctx, options.RedisAddress)
		if err != nil {
			zapLogger.Fatal("cannot connect to redis", zap.Error(err))
		}
		defer client.Close()
		svcOpts.Cache = cache.NewSnapshotCache(client, options.SnapshotCacheTTL)
		zapLogger.Info("snapshot cache enabled", zap.String("redis", options.RedisAddress))
	}

	// Initialize repositories and business-logic services.
	services := service.New(service.Repositories{
		Mockups:  repository.NewMockupRepository(conn, dialect),
		Versions: repository.NewVersionRepository(conn, dialect),
		Comments: repository.NewCommentRepository(conn, dialect),
	}, svcOpts)

	validate := validator.New()

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Mockups: &http.MockupHandler{
			Mockups:  services.Mockups,
			Validate: validate,
			Log:      zapLogger,
		},
		Versions: &http.VersionHandler{
			Coordinator: services.Coordinator,
			Versions:    services.Versions,
			Mockups:     services.Mockups,
			Log:         zapLogger,
		},
		Comments: &http.CommentHandler{
			Comments: services.Comments,
			Mockups:  services.Mockups,
			Validate: validate,
			Log:      zapLogger,
		},
		Health: &http.HealthHandler{DB: conn, Log: zapLogger},
	}, ownerauth.NewVerifier(options.OwnerSecret), http.RouterConfig{
		CORSOrigins: options.CORSOrigins,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.UseTLS() {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
