package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatbox/internal/config"
	"chatbox/internal/model"
	"chatbox/web"
)

// Repository is the message API used by the HTTP layer.
type Repository interface {
	Create(ctx context.Context, text, user string) (model.Message, error)
	List(ctx context.Context) ([]model.Message, error)
}

// ReadinessReporter exposes store connectivity for the health and readiness
// probes.
type ReadinessReporter interface {
	Connected() bool
}

// Handler holds application dependencies
type Handler struct {
	Repo    Repository
	Store   ReadinessReporter
	Config  config.Config
	Log     *slog.Logger
	started time.Time
}

// New creates a new Handler with the given dependencies
func New(repo Repository, store ReadinessReporter, cfg config.Config, log *slog.Logger) *Handler {
	return &Handler{
		Repo:    repo,
		Store:   store,
		Config:  cfg,
		Log:     log,
		started: time.Now(),
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(h.logRequests)
	if h.Config.MetricsEnabled {
		r.Use(measureRequests)
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// REST API
	r.HandleFunc("/api/messages", h.GetMessages).Methods("GET")
	r.HandleFunc("/api/messages", h.CreateMessage).Methods("POST")

	// Probes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/ready", h.Ready).Methods("GET")

	// 組み込みクライアント
	r.PathPrefix("/").Handler(http.FileServer(http.FS(web.Assets()))).Methods("GET")

	return r
}

// Health handles GET /health. It never fails: store connectivity is reported
// as a flag, not an error.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	database := "disconnected"
	if h.Store.Connected() {
		database = "connected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"uptime":    time.Since(h.started).Seconds(),
		"timestamp": time.Now().UnixMilli(),
		"database":  database,
	})
}

// Ready handles GET /ready for orchestrator readiness gating.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.Store.Connected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
