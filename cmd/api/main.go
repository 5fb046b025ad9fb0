package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sidedish/sidedish/internal/activity"
	"github.com/sidedish/sidedish/internal/api"
	"github.com/sidedish/sidedish/internal/auth"
	"github.com/sidedish/sidedish/internal/cache"
	"github.com/sidedish/sidedish/internal/config"
	"github.com/sidedish/sidedish/internal/database"
	"github.com/sidedish/sidedish/internal/drafts"
	"github.com/sidedish/sidedish/internal/generation"
	"github.com/sidedish/sidedish/internal/middleware"
	inats "github.com/sidedish/sidedish/internal/nats"
	"github.com/sidedish/sidedish/internal/projects"
	iredis "github.com/sidedish/sidedish/internal/redis"
	"github.com/sidedish/sidedish/internal/server"
	"github.com/sidedish/sidedish/internal/storage"
	"github.com/sidedish/sidedish/internal/uploads"
	"github.com/sidedish/sidedish/internal/users"
	"github.com/sidedish/sidedish/internal/whispers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), "migrations"); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS (optional; the API runs degraded without it)
	var natsClient *inats.Client
	var publisher *inats.Publisher
	if cfg.NATS.URL != "" {
		natsClient, err = inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Warn("connecting to NATS, events disabled", "error", err)
		} else {
			defer natsClient.Close()
			publisher = inats.NewPublisher(natsClient.JetStream())
		}
	}

	// Shared read cache
	readCache := cache.New()

	// Users
	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo, readCache)
	userHandler := users.NewHandler(userSvc)

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient, userSvc.HandleFor)
	authHandler := auth.NewHandler(authSvc, userSvc, publisher)

	// Drafts + AI copywriting
	draftStore := drafts.NewStore(redisClient, cfg.AI.MaxDrafts)
	draftHandler := drafts.NewHandler(draftStore)

	usageStore := generation.NewUsageStore(generation.NewRedisKV(redisClient))
	limiter := generation.NewLimiter(usageStore, generation.Limits{
		MaxPerDraft: cfg.AI.MaxPerDraft,
		MaxPerDay:   cfg.AI.MaxPerDay,
		Cooldown:    cfg.AI.Cooldown,
	})
	var provider generation.Provider
	if cfg.AI.ProviderURL != "" {
		provider = generation.NewHTTPProvider(cfg.AI.ProviderURL, cfg.AI.ProviderKey, cfg.AI.RequestTimeout)
	}
	generationSvc := generation.NewService(limiter, provider, draftStore, readCache, publisher)
	generationHandler := generation.NewHandler(generationSvc)

	// Projects
	projectRepo := projects.NewRepository(pool)
	projectSvc := projects.NewService(projectRepo, readCache, publisher)
	projectHandler := projects.NewHandler(projectSvc, draftStore)

	// Whispers
	whisperRepo := whispers.NewRepository(pool)
	whisperSvc := whispers.NewService(whisperRepo, userSvc, publisher)
	whisperHandler := whispers.NewHandler(whisperSvc)

	// Uploads (optional; requires blob config)
	var objectStore storage.ObjectStore
	if cfg.Blob.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.Blob)
		if err != nil {
			slog.Warn("initializing blob store, uploads disabled", "error", err)
		} else {
			objectStore = s3Store
		}
	}
	uploadHandler := uploads.NewHandler(objectStore, cfg.Blob.PublicURL)

	// Activity feed
	activityRepo := activity.NewRepository(pool)
	activityHandler := activity.NewHandler(activityRepo)

	if natsClient != nil {
		consumerMgr := inats.NewConsumerManager(natsClient.JetStream())
		activityConsumer := activity.NewConsumer(activityRepo, consumerMgr)
		go func() {
			if err := activityConsumer.Start(ctx); err != nil {
				slog.Error("activity consumer stopped", "error", err)
			}
		}()
	}

	// Router
	authRateLimiter := middleware.NewRateLimiter(redisClient, 20, 60)
	router := api.NewRouter(pool, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimiter:    authRateLimiter.Middleware,
	}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		GetMe:      userHandler.Me,
		UpdateMe:   userHandler.UpdateMe,
		GetProfile: userHandler.GetByHandle,

		ListProjects:  projectHandler.List,
		GetProject:    projectHandler.Get,
		UpdateProject: projectHandler.Update,
		DeleteProject: projectHandler.Delete,
		LikeProject:   projectHandler.Like,
		UnlikeProject: projectHandler.Unlike,
		ListComments:  projectHandler.ListComments,
		CreateComment: projectHandler.CreateComment,
		DeleteComment: projectHandler.DeleteComment,

		SendWhisper:     whisperHandler.Send,
		ListInbox:       whisperHandler.Inbox,
		ListOutbox:      whisperHandler.Outbox,
		MarkWhisperRead: whisperHandler.MarkRead,

		SaveDraft:       draftHandler.Save,
		ListDrafts:      draftHandler.List,
		GetDraft:        draftHandler.Get,
		DeleteDraft:     draftHandler.Delete,
		PublishDraft:    projectHandler.PublishDraft,
		SelectCandidate: draftHandler.SelectCandidate,
		Generate:        generationHandler.Generate,
		GetUsage:        generationHandler.GetUsage,

		UploadImage: uploadHandler.UploadImage,

		ListActivity: activityHandler.List,

		AuthMiddleware: auth.Middleware(authSvc),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
