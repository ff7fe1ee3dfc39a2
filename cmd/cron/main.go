// Cronjob lập lịch đồng bộ: tìm các user có checkpoint quá hạn trong
// MySQL và đẩy yêu cầu đồng bộ vào Kafka cho consumer xử lý.

package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/pkg/db"
	"github.com/thep200/star-syncer/pkg/kafka"
	"github.com/thep200/star-syncer/pkg/log"
)

func main() {
	ctx := context.Background()
	godotenv.Load()

	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		os.Exit(1)
	}

	logger, _ := log.NewLogger(config)
	mysql, _ := db.NewMysql(config)
	userMd, _ := model.NewUser(config, logger, mysql)

	// Migrate database
	if err := mysql.Migrate(userMd); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	staleAfter := time.Duration(config.Syncer.StaleAfterHours) * time.Hour
	users, err := userMd.FindStale(staleAfter)
	if err != nil {
		logger.Error(ctx, "Failed to query stale users: %v", err)
		os.Exit(1)
	}

	if len(users) == 0 {
		logger.Info(ctx, "No users due for sync")
		return
	}

	producer := kafka.NewProducer(config, logger, config.Kafka.Producer.TopicSync)
	defer producer.Close()

	enqueued := 0
	for _, user := range users {
		msg := model.SyncMessage{
			Login:       user.Login,
			AccessToken: user.AccessToken,
		}
		if err := producer.Publish(ctx, "sync", msg); err != nil {
			logger.Error(ctx, "Failed to enqueue sync for user %s: %v", user.Login, err)
			continue
		}
		enqueued++
	}

	logger.Info(ctx, "Enqueued %d/%d users for sync", enqueued, len(users))
}
