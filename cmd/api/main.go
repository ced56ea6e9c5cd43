package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FordLabs/PeopleMover/internal/app/migrate"
	"github.com/FordLabs/PeopleMover/internal/app/seed"
	"github.com/FordLabs/PeopleMover/internal/authz"
	httpx "github.com/FordLabs/PeopleMover/internal/http"
	"github.com/FordLabs/PeopleMover/internal/repository/postgres"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
	"github.com/FordLabs/PeopleMover/internal/service/auth"
	"github.com/FordLabs/PeopleMover/internal/service/person"
	"github.com/FordLabs/PeopleMover/internal/service/product"
	"github.com/FordLabs/PeopleMover/internal/service/report"
	"github.com/FordLabs/PeopleMover/internal/service/role"
	"github.com/FordLabs/PeopleMover/internal/service/space"
	"github.com/FordLabs/PeopleMover/internal/service/tag"
	"github.com/FordLabs/PeopleMover/internal/ws"
	"github.com/FordLabs/PeopleMover/pkg/config"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

func main() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		logger.New("api", slog.LevelInfo).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrateSchema(ctx, cfg, log); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.New(pool)
	if err := repo.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	hub := ws.NewHub()
	defer hub.Close()

	authorizer, err := authz.New()
	if err != nil {
		log.Error("failed to load access policy", "error", err)
		os.Exit(1)
	}

	assignments := assignment.New(repo, repo, repo, hub, log)
	products := product.New(repo, hub, log)
	services := httpx.Services{
		Auth:        auth.New(repo, repo, log, cfg),
		Spaces:      space.New(repo, repo, hub, log),
		People:      person.New(repo, repo, hub, log),
		Products:    products,
		Roles:       role.New(repo, repo, hub, log),
		Tags:        tag.New(repo, hub, log),
		Assignments: assignments,
		Reports:     report.New(repo, repo, assignments, products, cfg.ReportAuthorizedUsers, log),
	}

	if file := strings.TrimSpace(cfg.SeedFile); file != "" {
		if err := seedSpaces(ctx, file, repo, assignments, log); err != nil {
			log.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, services, authorizer, hub, httpx.Options{
		Limiter:        limiter,
		RateLimit:      cfg.RateLimitRequests,
		RateWindow:     cfg.RateLimitWindow,
		AllowedOrigins: cfg.AllowedOrigins,
		DBHealth:       repo.Ping,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment, "oauth", cfg.OAuthEnabled())
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func migrateSchema(ctx context.Context, cfg config.APIConfig, log *slog.Logger) error {
	source, err := migrate.Source(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	runner, err := migrate.New(cfg.DatabaseURL, source, log)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up(ctx)
}

// seedSpaces loads file, or the built-in fixture when file is "default".
func seedSpaces(ctx context.Context, file string, store seed.Store, assignments assignment.Service, log *slog.Logger) error {
	var (
		fx  seed.Fixture
		err error
	)
	if strings.EqualFold(file, "default") {
		fx, err = seed.Default()
	} else {
		fx, err = seed.LoadFile(file)
	}
	if err != nil {
		return err
	}
	return seed.New(store, assignments, log).Apply(ctx, fx, false)
}
