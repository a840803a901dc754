package main

import (
	"context"

	"rentalhub/config"
	"rentalhub/pkg/logger"
	"rentalhub/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	if err := pg.Truncate(context.Background()); err != nil {
		log.Error("failed to truncate tables", logger.Error(err))
		return
	}
	log.Info("truncated identities, profiles, listings, notifications and favorites")
}
