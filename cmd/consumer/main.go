// Consumer nhận yêu cầu đồng bộ từ Kafka và chạy syncer cho từng user.
// Checkpoint chỉ tiến khi một lần đồng bộ thành công nên message xử lý
// dở dang có thể chạy lại an toàn.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/thep200/star-syncer/cfg"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/internal/syncer"
	"github.com/thep200/star-syncer/pkg/db"
	"github.com/thep200/star-syncer/pkg/kafka"
	"github.com/thep200/star-syncer/pkg/log"
)

func main() {
	godotenv.Load()

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, _ := log.NewLogger(config)

	// Setup database
	mysql, _ := db.NewMysql(config)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create syncer
	userMd, _ := model.NewUser(config, logger, mysql)
	gorse, _ := gorseapi.NewCaller(logger, config)
	s, err := syncer.NewSyncer(logger, config, gorse, userMd)
	if err != nil {
		logger.Error(ctx, "Failed to create syncer: %v", err)
		os.Exit(1)
	}

	if err := mysql.Migrate(userMd); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	startSyncConsumer(ctx, config, logger, s, userMd)

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
}

func startSyncConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, s *syncer.Syncer, userMd *model.User) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicSync, "star-syncer-group")

	// Register handler for sync messages
	consumer.RegisterHandler("sync", func(data []byte) error {
		var syncMsg model.SyncMessage
		if err := json.Unmarshal(data, &syncMsg); err != nil {
			return fmt.Errorf("failed to unmarshal sync message: %w", err)
		}

		// Đọc lại user từ database để lấy checkpoint hiện tại
		user := model.User{
			Login:       syncMsg.Login,
			AccessToken: syncMsg.AccessToken,
		}
		if stored, err := userMd.FindByLogin(syncMsg.Login); err == nil && stored != nil {
			user.PulledAt = stored.PulledAt
		}
		if err := s.SyncUser(ctx, user); err != nil {
			return fmt.Errorf("failed to sync user %s: %w", syncMsg.Login, err)
		}
		return nil
	})

	// Start consumer in a goroutine
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Sync consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Sync consumer started successfully")
}
