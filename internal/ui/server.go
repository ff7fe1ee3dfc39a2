// Server HTTP nhỏ phục vụ health check và thống kê đồng bộ cho vận hành.
// Giao diện web cho người dùng cuối nằm ngoài phạm vi service này.

package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thep200/star-syncer/api"
	"github.com/thep200/star-syncer/cfg"
	"github.com/thep200/star-syncer/pkg/log"
)

type Server struct {
	Logger  log.Logger
	Config  *cfg.Config
	SyncAPI *api.SyncAPI
	server  *http.Server
	port    int
}

func NewServer(logger log.Logger, config *cfg.Config, syncAPI *api.SyncAPI, port int) (*Server, error) {
	return &Server{
		Logger:  logger,
		Config:  config,
		SyncAPI: syncAPI,
		port:    port,
	}, nil
}

// Start khởi động HTTP server, chặn cho tới khi server dừng
func (s *Server) Start() error {
	handler, err := NewHandler(s.Logger, s.SyncAPI)
	if err != nil {
		return fmt.Errorf("failed to create status handler: %w", err)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.Logger.Info(context.Background(), "Starting status server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Stop dừng HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.Logger.Info(ctx, "Shutting down status server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
