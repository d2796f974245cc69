package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/szamlaconv/internal/config"
	"github.com/JonMunkholm/szamlaconv/internal/core"
	"github.com/JonMunkholm/szamlaconv/internal/logging"
	"github.com/JonMunkholm/szamlaconv/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	templateEnc, err := core.LookupEncoding(cfg.Assets.TemplateEncoding)
	if err != nil {
		slog.Error("invalid TEMPLATE_ENCODING", "error", err)
		os.Exit(1)
	}
	outputEnc, err := core.LookupEncoding(cfg.Output.Encoding)
	if err != nil {
		slog.Error("invalid OUTPUT_ENCODING", "error", err)
		os.Exit(1)
	}
	source := core.SourceOptions{Delimiter: cfg.Source.DelimiterRune()}
	if cfg.Source.Encoding != "" {
		if source.Encoding, err = core.LookupEncoding(cfg.Source.Encoding); err != nil {
			slog.Error("invalid SOURCE_ENCODING", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	var history core.HistoryStore
	if cfg.Database.Enabled() {
		pool, err := connectDatabase(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := core.NewPgHistory(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare conversion history table", "error", err)
			os.Exit(1)
		}
		history = pg
	} else {
		slog.Info("no DATABASE_URL set, keeping conversion history in memory")
		history = core.NewMemoryHistory(core.DefaultHistoryLimit)
	}

	service, err := core.NewService(core.ServiceOptions{
		FieldsPath:       cfg.Assets.FieldsPath,
		TemplatePath:     cfg.Assets.TemplatePath,
		TemplateEncoding: templateEnc,
		OutputEncoding:   outputEnc,
		Source:           source,
		History:          history,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	tmpl := service.Template()
	slog.Info("documents loaded",
		"fields", len(service.Fields()),
		"column_groups", len(tmpl.Groups),
		"output_encoding", service.OutputEncodingName(),
	)

	limiter := core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	server := web.NewServer(service, cfg, limiter)

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

		if active := limiter.Active(); active > 0 {
			slog.Info("waiting for uploads to complete", "active", active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// connectDatabase opens and pings a pool sized from cfg.
func connectDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
