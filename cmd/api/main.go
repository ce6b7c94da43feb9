package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"mindsy/internal/api"
	"mindsy/internal/blob"
	"mindsy/internal/config"
	"mindsy/internal/logger"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := blob.NewGCSStore(ctx, cfg.StorageBucket)
	if err != nil {
		lg.Fatal("init storage", "error", err)
	}
	defer store.Close()

	tc, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		lg.Fatal("dial temporal", "error", err)
	}
	defer tc.Close()

	h := api.NewServer(cfg, lg, store, tc)
	lg.Info("mindsy api listening", "addr", cfg.APIAddr, "bucket", cfg.StorageBucket, "mock_providers", cfg.ProvidersMocked)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		lg.Fatal("serve", "error", err)
	}
}
