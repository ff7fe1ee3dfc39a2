// Package api cung cấp các API public để tương tác với star syncer
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thep200/star-syncer/cfg"
	gorseapi "github.com/thep200/star-syncer/internal/gorse_api"
	"github.com/thep200/star-syncer/internal/model"
	"github.com/thep200/star-syncer/internal/syncer"
	"github.com/thep200/star-syncer/pkg/db"
	"github.com/thep200/star-syncer/pkg/log"
)

// SyncStats chứa thống kê về quá trình đồng bộ
type SyncStats struct {
	IsRunning        bool      `json:"isRunning"`
	StartTime        time.Time `json:"startTime"`
	Duration         string    `json:"duration"`
	UsersSynced      int32     `json:"usersSynced"`
	UsersFailed      int32     `json:"usersFailed"`
	ItemsInserted    int32     `json:"itemsInserted"`
	FeedbackInserted int32     `json:"feedbackInserted"`
	LastError        string    `json:"lastError"`
}

// SyncAPI cung cấp các API để tương tác với star syncer
type SyncAPI struct {
	ctx         context.Context
	config      *cfg.Config
	logger      log.Logger
	mysql       *db.Mysql
	syncer      *syncer.Syncer
	syncing     bool
	syncStatsMu sync.RWMutex
	syncStats   *SyncStats
}

// NewSyncAPI tạo một instance mới của SyncAPI
func NewSyncAPI() *SyncAPI {
	return &SyncAPI{
		syncStats: &SyncStats{},
	}
}

// Initialize khởi tạo các thành phần cần thiết cho syncer
func (a *SyncAPI) Initialize(ctx context.Context) error {
	a.ctx = ctx

	var err error

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	a.config, err = loader.Load()
	if err != nil {
		a.logger, _ = log.NewCslLogger()
		a.logger.Error(a.ctx, "Failed to load configuration: %v", err)
		return err
	}

	// Set up logger
	a.logger, err = log.NewLogger(a.config)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Set up database
	a.mysql, err = db.NewMysql(a.config)
	if err != nil {
		a.logger.Error(a.ctx, "Failed to connect to database: %v", err)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set up store client and syncer
	gorse, err := gorseapi.NewCaller(a.logger, a.config)
	if err != nil {
		return fmt.Errorf("failed to create gorse caller: %w", err)
	}

	userMd, err := model.NewUser(a.config, a.logger, a.mysql)
	if err != nil {
		return fmt.Errorf("failed to create user model: %w", err)
	}

	a.syncer, err = syncer.NewSyncer(a.logger, a.config, gorse, userMd)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	// Migrate database tables
	return a.mysql.Migrate(userMd)
}

// StartSync bắt đầu một batch đồng bộ cho mọi user quá hạn
func (a *SyncAPI) StartSync() (string, error) {
	a.syncStatsMu.RLock()
	isSyncing := a.syncing
	a.syncStatsMu.RUnlock()

	if isSyncing {
		return "Sync is already in progress", nil
	}

	if a.syncer == nil {
		return "", errors.New("syncer is not initialized")
	}

	a.syncStatsMu.Lock()
	a.syncing = true
	a.syncStats = &SyncStats{
		IsRunning: true,
		StartTime: time.Now(),
	}
	a.syncStatsMu.Unlock()

	go func() {
		err := a.syncer.SyncAll(a.ctx)

		a.updateSyncStats(func(stats *SyncStats) {
			stats.IsRunning = false
			if err != nil {
				stats.LastError = err.Error()
			}
		})

		a.syncStatsMu.Lock()
		a.syncing = false
		a.syncStatsMu.Unlock()
	}()

	return "Started syncing stale users", nil
}

// GetSyncStats trả về thống kê về quá trình đồng bộ
func (a *SyncAPI) GetSyncStats() (*SyncStats, error) {
	a.syncStatsMu.RLock()
	defer a.syncStatsMu.RUnlock()

	if a.syncStats == nil {
		return &SyncStats{}, nil
	}

	stats := *a.syncStats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}

	if a.syncer != nil {
		counters := a.syncer.GetStats()
		stats.UsersSynced = counters.UsersSynced
		stats.UsersFailed = counters.UsersFailed
		stats.ItemsInserted = counters.ItemsInserted
		stats.FeedbackInserted = counters.FeedbackInserted
	}

	return &stats, nil
}

// updateSyncStats cập nhật thống kê một cách an toàn
func (a *SyncAPI) updateSyncStats(updateFn func(*SyncStats)) {
	a.syncStatsMu.Lock()
	defer a.syncStatsMu.Unlock()

	if a.syncStats == nil {
		a.syncStats = &SyncStats{}
	}

	updateFn(a.syncStats)
}

// GetDatabaseStatus kiểm tra trạng thái kết nối cơ sở dữ liệu
func (a *SyncAPI) GetDatabaseStatus() (string, error) {
	if a.mysql == nil {
		return "Database not initialized", nil
	}

	if err := a.mysql.Ping(); err != nil {
		return "Database not connected: " + err.Error(), err
	}

	return "Database connected", nil
}
