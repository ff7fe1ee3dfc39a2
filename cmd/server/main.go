// Server vận hành: phơi bày health check và thống kê đồng bộ, đồng thời
// chạy một batch đồng bộ khi khởi động nếu được yêu cầu.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/thep200/star-syncer/api"
	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/internal/ui"
	"github.com/thep200/star-syncer/pkg/log"
)

func main() {
	port := flag.Int("port", 8080, "Port for the status server")
	syncOnStart := flag.Bool("sync", false, "Start a sync batch on startup")
	flag.Parse()

	godotenv.Load()
	ctx := context.Background()

	syncAPI := api.NewSyncAPI()
	if err := syncAPI.Initialize(ctx); err != nil {
		fmt.Printf("Failed to initialize sync API: %v\n", err)
		os.Exit(1)
	}

	loader, _ := cfg.NewViperLoader()
	config, _ := loader.Load()
	logger, _ := log.NewLogger(config)

	if *syncOnStart {
		if msg, err := syncAPI.StartSync(); err != nil {
			logger.Error(ctx, "Failed to start sync: %v", err)
		} else {
			logger.Info(ctx, "%s", msg)
		}
	}

	server, err := ui.NewServer(logger, config, syncAPI, *port)
	if err != nil {
		logger.Error(ctx, "Failed to create status server: %v", err)
		os.Exit(1)
	}

	if err := server.Start(); err != nil {
		logger.Error(ctx, "Status server stopped: %v", err)
		os.Exit(1)
	}
}
