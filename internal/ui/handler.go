package ui

import (
	"encoding/json"
	"net/http"

	"github.com/thep200/star-syncer/api"
	"github.com/thep200/star-syncer/pkg/log"
)

type Handler struct {
	Logger  log.Logger
	SyncAPI *api.SyncAPI
}

func NewHandler(logger log.Logger, syncAPI *api.SyncAPI) (*Handler, error) {
	return &Handler{
		Logger:  logger,
		SyncAPI: syncAPI,
	}, nil
}

// RegisterRoutes đăng ký các route trạng thái
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.getHealth)
	mux.HandleFunc("/api/stats", h.getStats)
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	status, err := h.SyncAPI.GetDatabaseStatus()
	code := http.StatusOK
	if err != nil {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.SyncAPI.GetSyncStats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
