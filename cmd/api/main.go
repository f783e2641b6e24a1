package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/config"
	"github.com/mwork/community-engine/internal/domain/gamification"
	"github.com/mwork/community-engine/internal/domain/leaderboard"
	"github.com/mwork/community-engine/internal/domain/member"
	"github.com/mwork/community-engine/internal/domain/moderation"
	"github.com/mwork/community-engine/internal/domain/notification"
	"github.com/mwork/community-engine/internal/jobs"
	"github.com/mwork/community-engine/internal/middleware"
	"github.com/mwork/community-engine/internal/pkg/database"
	"github.com/mwork/community-engine/internal/pkg/jwt"
	"github.com/mwork/community-engine/internal/pkg/logger"
	pkgresponse "github.com/mwork/community-engine/internal/pkg/response"
	"github.com/mwork/community-engine/internal/store"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "community-engine"})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Invalid timezone")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Str("timezone", loc.String()).
		Msg("Starting community engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db          *sqlx.DB
		redisClient *redis.Client
	)

	if cfg.StoreDriver == config.StorePostgres {
		db, err = database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer database.ClosePostgres(db)
	}

	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer database.CloseRedis(redisClient)
	}

	kv, err := store.Open(ctx, cfg.StoreDriver, db, redisClient, cfg.StorePrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("Using in-memory store, data is lost on restart")
	}

	// ---------- Change notifications ----------
	notifier := notification.Multi{notification.LogNotifier{}}
	if redisClient != nil {
		notifier = append(notifier, notification.NewRedisPublisher(redisClient, cfg.NotifyChannel))
	}

	// ---------- Services ----------
	locks := store.NewKeyLocker()

	gamificationService := gamification.NewService(gamification.NewRepository(kv), locks, notifier, loc)
	memberService := member.NewService(member.NewRepository(kv), locks, notifier)
	leaderboardService := leaderboard.NewService(gamificationService, memberService)
	moderationService := moderation.NewService(moderation.NewRepository(kv), locks, notifier)

	// ---------- Maintenance ----------
	if cfg.MaintenanceEnabled() {
		scheduler, err := jobs.NewScheduler(ctx, moderationService, cfg.MaintenanceCron, cfg.ReportRetention, loc)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure scheduler")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// ---------- Router ----------
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTTTL)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
			"store":   cfg.StoreDriver,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		mountCommunityRoutes(r, communityHandlers{
			gamification: gamification.NewHandler(gamificationService),
			leaderboard:  leaderboard.NewHandler(leaderboardService),
			members:      member.NewHandler(memberService),
			moderation:   moderation.NewHandler(moderationService),
		}, middleware.Moderator(jwtService))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("Server exited properly")
}

type communityHandlers struct {
	gamification *gamification.Handler
	leaderboard  *leaderboard.Handler
	members      *member.Handler
	moderation   *moderation.Handler
}

// mountCommunityRoutes registers every engine endpoint under
// /communities/{communityID}.
func mountCommunityRoutes(r chi.Router, h communityHandlers, moderatorMiddleware func(http.Handler) http.Handler) {
	r.Route("/communities/{communityID}", func(r chi.Router) {
		r.Mount("/gamification", h.gamification.Routes(moderatorMiddleware))
		r.Mount("/leaderboard", h.leaderboard.Routes())
		r.Mount("/members", h.members.Routes())
		r.Mount("/moderation", h.moderation.Routes(moderatorMiddleware))
	})
}
