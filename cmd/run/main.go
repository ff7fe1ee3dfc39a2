package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/thep200/star-syncer/cfg"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/internal/syncer"
	"github.com/thep200/star-syncer/pkg/db"
	"github.com/thep200/star-syncer/pkg/log"
)

func main() {
	ctx := context.Background()
	godotenv.Load()

	// loader, _ := cfg.NewMockLoader()
	loader, _ := cfg.NewViperLoader()
	config, _ := loader.Load()
	mysql, _ := db.NewMysql(config)
	logger, _ := log.NewLogger(config)
	userMd, _ := model.NewUser(config, logger, mysql)
	gorse, _ := gorseapi.NewCaller(logger, config)
	s, _ := syncer.NewSyncer(logger, config, gorse, userMd)

	// Migrate database
	mysql.Migrate(userMd)

	//
	logger.Info(ctx, "Starting GitHub star sync")
	if err := s.SyncAll(ctx); err != nil {
		logger.Error(ctx, "Sync failed: %v", err)
		return
	}

	stats := s.GetStats()
	logger.Info(ctx, "Sync finished: %d users synced, %d users failed, %d items, %d feedback",
		stats.UsersSynced, stats.UsersFailed, stats.ItemsInserted, stats.FeedbackInserted)
}
