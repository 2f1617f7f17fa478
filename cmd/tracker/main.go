package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/trazzini/smstrack/internal/api"
	"github.com/trazzini/smstrack/internal/cache"
	"github.com/trazzini/smstrack/internal/carrier"
	"github.com/trazzini/smstrack/internal/config"
	"github.com/trazzini/smstrack/internal/pricing"
	"github.com/trazzini/smstrack/internal/reconcile"
	"github.com/trazzini/smstrack/internal/repo"
	"github.com/trazzini/smstrack/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The store handle is opened once here and closed at shutdown; nothing
	// else in the process opens connections.
	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("postgres unreachable: %v", err)
	}

	store := repo.NewPostgresRecordStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	table := pricing.DefaultTable()
	if cfg.Pricing.TablePath != "" {
		table, err = pricing.LoadFile(cfg.Pricing.TablePath)
		if err != nil {
			log.Fatal(err)
		}
	}

	reconciler := reconcile.New(store, pricing.NewCalculator(table))

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		reconciler = reconciler.WithCache(cache.NewRedisCache(rdb, cfg.Redis.TTL))
	}

	client := carrier.NewClient(
		cfg.Carrier.BaseURL,
		cfg.Carrier.AccountSID,
		cfg.Carrier.AuthToken,
		cfg.Carrier.StatusCallbackURL,
	)
	orchestrator := service.NewOrchestrator(client, store)

	handler := api.NewHandler(orchestrator, reconciler, store)
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: loggingMiddleware(api.Router(handler)),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("smstrack starting",
		"addr", cfg.Server.Address,
		"redis", cfg.Redis.Enabled,
		"price_table", cfg.Pricing.TablePath,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	slog.Info("smstrack stopped")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
