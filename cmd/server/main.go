package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lalith-99/safebytes/internal/api"
	"github.com/lalith-99/safebytes/internal/cache"
	"github.com/lalith-99/safebytes/internal/config"
	"github.com/lalith-99/safebytes/internal/db"
	"github.com/lalith-99/safebytes/internal/jobs"
	"github.com/lalith-99/safebytes/internal/observ"
	"github.com/lalith-99/safebytes/internal/repository"
	"github.com/lalith-99/safebytes/internal/repository/memory"
	"github.com/lalith-99/safebytes/internal/repository/postgres"
	"github.com/lalith-99/safebytes/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stores is the set of repositories the server runs on, whichever
// driver backs them.
type stores struct {
	service.Repositories
	reconciler repository.ThreadReconciler
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 2. Storage
	// ---------------------------------------------------------------
	checks := map[string]api.HealthCheck{}
	var st stores

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		st = stores{
			Repositories: service.Repositories{
				Users:              mem.Users(),
				ContactMessages:    mem.ContactMessages(),
				MessageReplies:     mem.MessageReplies(),
				RestaurantMessages: mem.RestaurantMessages(),
				AdminReplies:       mem.AdminReplies(),
			},
			reconciler: mem.Reconciler(),
		}
	default:
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()
		checks["postgres"] = database.Health

		pool := database.Pool()
		st = stores{
			Repositories: service.Repositories{
				Users:              postgres.NewUserStore(pool),
				ContactMessages:    postgres.NewContactMessageStore(pool),
				MessageReplies:     postgres.NewMessageReplyStore(pool),
				RestaurantMessages: postgres.NewRestaurantMessageStore(pool),
				AdminReplies:       postgres.NewAdminReplyStore(pool),
			},
			reconciler: postgres.NewReconcileStore(pool),
		}
	}

	// ---------------------------------------------------------------
	// 3. Redis user cache (optional)
	// ---------------------------------------------------------------
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		st.Users = cache.NewUserCache(st.Users, rdb, cfg.UserCacheTTL, logger)
		logger.Info("user cache enabled", zap.Duration("ttl", cfg.UserCacheTTL))
	}

	// ---------------------------------------------------------------
	// 4. Background reconciler
	// ---------------------------------------------------------------
	if cfg.ReconcileSchedule != "" {
		reconciler := jobs.NewThreadReconciler(st.reconciler, logger)
		scheduler, err := reconciler.Schedule(cfg.ReconcileSchedule)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	// ---------------------------------------------------------------
	// 5. HTTP server
	// ---------------------------------------------------------------
	router, err := api.NewRouter(api.RouterDeps{
		Users:         st.Users,
		Threads:       service.NewThreadService(st.Repositories),
		HealthChecks:  checks,
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		Logger:        logger,
		ExposeDetails: !cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting SafeBytes",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
