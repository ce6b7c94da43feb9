package main

import (
	"context"
	"log"
	"time"

	"mindsy/internal/activities"
	"mindsy/internal/blob"
	"mindsy/internal/config"
	"mindsy/internal/logger"
	"mindsy/internal/storage"
	"mindsy/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		lg.Fatal("dial temporal", "error", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		lg.Fatal("connect postgres", "error", err)
	}
	defer db.Close()
	if err := storage.EnsureSchema(ctx, db); err != nil {
		lg.Fatal("ensure schema", "error", err)
	}

	store, err := blob.NewGCSStore(ctx, cfg.StorageBucket)
	if err != nil {
		lg.Fatal("init storage", "error", err)
	}
	defer store.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, lg, db, store))

	lg.Info("mindsy worker listening", "temporal", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "mock_providers", cfg.ProvidersMocked)
	if err := w.Run(worker.InterruptCh()); err != nil {
		lg.Fatal("worker stopped", "error", err)
	}
}
