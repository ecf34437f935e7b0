package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/peopleimport/internal/config"
	"github.com/JonMunkholm/peopleimport/internal/core"
	"github.com/JonMunkholm/peopleimport/internal/logging"
	"github.com/JonMunkholm/peopleimport/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	store, err := core.OpenStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Verify connection
	if err := store.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to database", "driver", cfg.Database.Driver, "table", cfg.Database.Table)

	if cfg.Database.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create table", "error", err)
			os.Exit(1)
		}
	}

	service := core.NewService(store, cfg.Import)
	server := web.NewServer(service, cfg.Server)

	if cfg.Import.AutoImport {
		go autoImport(service)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		shutdown(shutdownCtx, server, service)
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// shutdowner is the part of the HTTP server used during shutdown.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// importWaiter reports and drains running imports.
type importWaiter interface {
	ImportLimiterStatus() core.ImportLimiterStatus
	WaitForImports(ctx context.Context) error
}

// shutdown stops the HTTP server and then waits for every import still
// holding a slot, including ones started after the signal arrived, so the
// store is never closed mid-batch.
func shutdown(ctx context.Context, srv shutdowner, imports importWaiter) {
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	if status := imports.ImportLimiterStatus(); status.Active > 0 {
		slog.Info("waiting for imports to complete", "active", status.Active)
	}
	if err := imports.WaitForImports(ctx); err != nil {
		slog.Warn("imports did not complete in time", "error", err)
		return
	}
	slog.Info("all imports completed")
}

// autoImport imports the default CSV once at startup and logs the result.
func autoImport(service *core.Service) {
	ctx := context.Background()
	path := service.DefaultCSVPath()
	slog.Info("AUTO_IMPORT enabled: starting import at startup", "path", path)

	result, err := service.Import(ctx, path)
	if err != nil {
		slog.Error("AUTO_IMPORT failed", "error", err, "user_message", core.FormatUserError(err))
		return
	}
	slog.Info("AUTO_IMPORT result",
		"import_id", result.ImportID,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"totalLines", result.TotalLines,
	)

	dist, err := service.AgeDistribution(ctx)
	if err != nil {
		slog.Error("AUTO_IMPORT age distribution failed", "error", err)
		return
	}
	service.LogAgeDistribution(ctx, dist)
}
