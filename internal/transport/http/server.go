package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"kathaipom/internal/cache"
	"kathaipom/internal/config"
	"kathaipom/internal/database"
	"kathaipom/internal/handler"
	"kathaipom/internal/importer"
	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/queue"
	"kathaipom/internal/ranking"
	"kathaipom/internal/redis"
	"kathaipom/internal/repository"
	"kathaipom/internal/service"
	"kathaipom/internal/store"
	"kathaipom/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the store
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	users := repository.NewUserRepository(st)
	stories := repository.NewStoryRepository(st)
	m := metrics.New(prometheus.DefaultRegisterer)

	// 3. Route cache, interaction log and activity stream
	var (
		routes       cache.RouteCache
		interactions cache.InteractionLog
		publisher    queue.Publisher
		manager      *worker.Manager
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		routes = cache.NewRouteCache(rdb.Client, log)
		interactions = cache.NewInteractionLog(rdb.Client, log)
		publisher = queue.NewPublisher(rdb.Client, log)

		eventHandler := worker.NewHandler(routes, interactions, m, log)
		manager = worker.NewManager(queue.NewConsumer(rdb.Client, log), eventHandler, worker.DefaultManagerConfig(), log)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	} else {
		log.Info("REDIS_URL not set, using in-process caches")
		routes = cache.NewMemoryRouteCache()
		interactions = cache.NewMemoryInteractionLog()
		publisher = queue.NewInlinePublisher(worker.NewHandler(routes, interactions, m, log))
	}

	// 4. Services
	var ranker ranking.Ranker
	if cfg.RankingEnabled() {
		ranker = ranking.NewOpenAIRanker(ranking.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.OpenAIModel, log)
	} else {
		log.Info("OPENAI_API_KEY not set, feed prioritization disabled")
	}

	mediaSvc, err := service.NewMediaService(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to init media service: %w", err)
	}

	activity := service.NewActivity(routes, publisher, m, log)
	authSvc := service.NewAuthService(cfg)
	userSvc := service.NewUserService(users, stories, activity, m, cfg.SuperAdminUsername, log)
	followSvc := service.NewFollowService(users, activity, m, log)
	storySvc := service.NewStoryService(stories, users, routes, activity, m, log)
	feedSvc := service.NewFeedService(storySvc, ranker, interactions, cfg.RankingTimeout, m, log)
	importSvc := service.NewImportService(importer.NewGitHubSource(cfg.GitHubToken, log), users, stories, activity, m, log)

	// 5. Router
	router := NewRouter(RouterConfig{
		AuthHandler:   handler.NewAuthHandler(userSvc, authSvc, cfg, log),
		UserHandler:   handler.NewUserHandler(userSvc, storySvc, followSvc, log),
		FollowHandler: handler.NewFollowHandler(followSvc, log),
		FeedHandler:   handler.NewFeedHandler(feedSvc, log),
		StoryHandler:  handler.NewStoryHandler(storySvc, log),
		MediaHandler:  handler.NewMediaHandler(mediaSvc, log),
		AdminHandler:  handler.NewAdminHandler(userSvc, importSvc, log),
		JWTSecret:     cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Serve until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore picks the persistence backend from STORE_DRIVER. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, func(), error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash seed password: %w", err)
	}
	seed := store.SeedUsers(string(hash))
	noop := func() {}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return store.NewMemoryStore(seed), noop, nil

	case config.StoreDriverPostgres:
		db, err := database.Connect(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		pg, err := store.NewPostgresStore(ctx, db, seed)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to init postgres store: %w", err)
		}
		return pg, closeDB(db, log), nil

	default:
		fs, err := store.NewFileStore(cfg.DataDir, seed, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init file store: %w", err)
		}
		log.Info("using file store", zap.String("dir", cfg.DataDir))
		return fs, noop, nil
	}
}

func closeDB(db *sqlx.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}
}
