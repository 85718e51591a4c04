package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/config"
	"github.com/example/movie-platform/internal/platform/db"
	"github.com/example/movie-platform/internal/platform/docstore"
	"github.com/example/movie-platform/internal/platform/events"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/internal/platform/logging"
	"github.com/example/movie-platform/internal/platform/natsconn"
	"github.com/example/movie-platform/internal/platform/ratelimit"
	"github.com/example/movie-platform/internal/platform/run"
	"github.com/example/movie-platform/services/comments/internal/handlers"
	"github.com/example/movie-platform/services/comments/internal/store"
	"github.com/example/movie-platform/services/comments/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	docs := docstore.New(log)

	comments, userStore, pool := initStores(cfg, log, docs)
	if pool != nil {
		defer pool.Close()
	}

	guard := auth.NewGuard(log)
	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}
	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.Ceiling)

	publisher, closeNATS := initEvents(log)
	if closeNATS != nil {
		defer closeNATS()
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: readyFunc(pool)})
	handlers.Register(r, handlers.Deps{
		Log:     log,
		Store:   comments,
		Users:   userStore,
		Guard:   guard,
		Bearer:  verifier,
		Limiter: limiter,
		Events:  publisher,
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go pruneLoop(ctx, limiter)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the persistence backend. With DATABASE_URL set both
// comments and users come from Postgres; otherwise the JSON document files
// under DATA_DIR are used. Production (APP_ENV=production) requires Postgres
// and terminates the process when it is unreachable.
func initStores(cfg config.AppConfig, log *zap.Logger, docs *docstore.Store) (store.CommentStore, users.Store, *pgxpool.Pool) {
	isProd := strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")

	fileStores := func() (store.CommentStore, users.Store, *pgxpool.Pool) {
		log.Info("stores: file documents", zap.String("data_dir", cfg.DataDir))
		return store.NewFileStore(filepath.Join(cfg.DataDir, "comments.json"), docs),
			users.NewFileStore(filepath.Join(cfg.DataDir, "users.json"), docs),
			nil
	}

	if cfg.DatabaseURL == "" {
		if isProd {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using file document stores (development only)")
		return fileStores()
	}

	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to file document stores", zap.Error(err))
		return fileStores()
	}

	log.Info("stores: postgres")
	return store.NewPostgresCommentStore(pool), users.PostgresStore{DB: pool}, pool
}

// initEvents wires the optional NATS publisher. A missing broker is logged
// and the service runs with events disabled.
func initEvents(log *zap.Logger) (*events.Publisher, func()) {
	if strings.TrimSpace(os.Getenv("NATS_URL")) == "" {
		log.Info("NATS_URL not set, comment events disabled")
		return nil, nil
	}
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		log.Warn("nats connect failed, comment events disabled", zap.Error(err))
		return nil, nil
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		log.Warn("jetstream unavailable, comment events disabled", zap.Error(err))
		nc.Close()
		return nil, nil
	}
	return events.New(js, log), nc.Close
}

func readyFunc(pool *pgxpool.Pool) func() error {
	if pool == nil {
		return nil
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// pruneLoop periodically drops idle identities from the rate limiter so its
// memory stays bounded over long uptimes.
func pruneLoop(ctx context.Context, l *ratelimit.Limiter) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Prune()
		}
	}
}
