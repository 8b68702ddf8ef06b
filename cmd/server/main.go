package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/journal-backend/internal/config"
	"github.com/AnshRaj112/journal-backend/internal/database"
	"github.com/AnshRaj112/journal-backend/internal/handlers"
	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/middleware"
	"github.com/AnshRaj112/journal-backend/internal/routes"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/AnshRaj112/journal-backend/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	baseLogger, err := logger.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, logrus.NewEntry(baseLogger))

	if err := run(ctx, cfg, baseLogger); err != nil {
		baseLogger.WithError(err).Fatal("server stopped")
	}
}

// store is what the server needs from a backend.
type store interface {
	Users() services.UserStore
	Entries() services.EntryStore
	Ping(ctx context.Context) error
}

// openStore connects the backend named by DATABASE_URL and returns it with
// its close function.
func openStore(ctx context.Context, cfg *config.Config) (store, func(context.Context) error, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case config.BackendMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := database.NewMongoStore(client, db)
		if err := s.EnsureIndexes(ctx); err != nil {
			s.Close(context.Background())
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		db, err := database.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := database.NewPostgresStore(db)
		return s, func(context.Context) error { return s.Close() }, nil
	}
}

// newLimiter prefers a Redis limiter shared across instances and falls back
// to an in-process one.
func newLimiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, func() error) {
	rlog := logger.FromContext(ctx)
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err == nil {
			return middleware.NewRedisLimiter(client, middleware.RateLimitWindow, middleware.RateLimitMaxRequests), client.Close
		}
		rlog.WithError(err).Warn("Redis unavailable, using in-process rate limiting")
	}

	limiter := middleware.NewLoginLimiter()
	go limiter.Run(ctx)
	return limiter, func() error { return nil }
}

func run(ctx context.Context, cfg *config.Config, baseLogger *logrus.Logger) error {
	rlog := logger.FromContext(ctx)

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(closeCtx); err != nil {
			rlog.WithError(err).Error("failed to close storage")
		}
	}()

	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	tokens, err := services.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}
	hasher := utils.NewPasswordHasher(cfg.Argon2.Time, cfg.Argon2.MemoryKiB, cfg.Argon2.Threads)

	userService := services.NewUserService(st.Users(), hasher, tokens)
	journalService := services.NewJournalService(st.Entries())

	router := routes.NewRouter(routes.Options{
		Handler:        handlers.New(userService, journalService, st),
		Auth:           userService,
		Limiter:        limiter,
		Logger:         baseLogger,
		AllowedOrigin:  cfg.AllowedOrigin,
		RequestTimeout: cfg.RequestTimeout,
		TrustProxy:     cfg.TrustProxy,
		Production:     cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rlog.WithField("address", srv.Addr).Info("journal backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	rlog.Info("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	rlog.Info("shutdown complete")
	return nil
}
