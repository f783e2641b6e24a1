package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mwork/community-engine/internal/config"
	"github.com/mwork/community-engine/internal/domain/gamification"
	"github.com/mwork/community-engine/internal/domain/leaderboard"
	"github.com/mwork/community-engine/internal/domain/member"
	"github.com/mwork/community-engine/internal/jobs"
	"github.com/mwork/community-engine/internal/pkg/database"
	"github.com/mwork/community-engine/internal/pkg/logger"
	"github.com/mwork/community-engine/internal/store"
)

const (
	flushInterval = 2 * time.Second
	snapshotSize  = 50
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "change-worker"})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Fatal().Msg("change-worker needs a shared store, set STORE_DRIVER to postgres or redis")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("Invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	var db *sqlx.DB
	if cfg.StoreDriver == config.StorePostgres {
		db, err = database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer database.ClosePostgres(db)
	}

	kv, err := store.Open(ctx, cfg.StoreDriver, db, rdb, cfg.StorePrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}

	// Read side only: no notifier, the worker never mutates engine state.
	locks := store.NewKeyLocker()
	ledger := gamification.NewService(gamification.NewRepository(kv), locks, nil, loc)
	members := member.NewService(member.NewRepository(kv), locks, nil)
	snapshotter := jobs.NewSnapshotter(leaderboard.NewService(ledger, members), kv, snapshotSize)

	changes := make(chan string, 256)
	go subscribeChanges(ctx, rdb, cfg.NotifyChannel, changes)

	log.Info().Str("channel", cfg.NotifyChannel).Msg("Starting change-worker")
	snapshotter.Run(ctx, changes, flushInterval)
	log.Info().Msg("change-worker stopped")
}

// subscribeChanges forwards community ids published on channel. A full
// buffer drops the event; the next change of that community catches up.
func subscribeChanges(ctx context.Context, rdb *redis.Client, channel string, out chan<- string) {
	sub := rdb.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			select {
			case out <- msg.Payload:
			default:
				log.Warn().Str("community_id", msg.Payload).Msg("Change buffer full, dropping event")
			}
		}
	}
}
