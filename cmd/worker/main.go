package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/config"
	"grimoire-backend/internal/domains/book/job"
	"grimoire-backend/internal/shared"
	"grimoire-backend/pkg/container"
	"grimoire-backend/pkg/logger"
)

// The worker owns background maintenance, currently the periodic sweep
// that removes stored cover assets no book record references.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.App.Environment)

	c, err := container.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize container")
	}
	defer c.Cleanup()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues: map[string]int{
			shared.QueueDefault:     5,
			shared.QueueMaintenance: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.Handle(shared.TypeSweepOrphanedAssets, job.NewAssetSweepHandler(c.BookRepository, c.Storage, "covers/"))

	// Periodic schedule for the sweep
	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(
		cfg.Worker.AssetSweepSpec,
		asynq.NewTask(shared.TypeSweepOrphanedAssets, nil),
		asynq.Queue(shared.QueueMaintenance),
	); err != nil {
		log.Fatal().Err(err).Msg("failed to register asset sweep schedule")
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatal().Err(err).Msg("scheduler failed")
		}
	}()

	if err := srv.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("worker failed to start")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("worker shutting down")

	scheduler.Shutdown()
	srv.Shutdown()
}
