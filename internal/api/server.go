package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/mavericks/crisis-monitor/internal/models"
	"github.com/mavericks/crisis-monitor/internal/store"
)

// Monitor is the control surface the API drives.
type Monitor interface {
	Start(ctx context.Context, cfg models.MonitorConfig) error
	Stop()
	IsRunning() bool
}

// Server wires the HTTP control plane over the store and the monitor.
type Server struct {
	apiKey  string
	store   store.AlertStore
	monitor Monitor
}

// NewServer creates the control-plane server. An empty apiKey leaves
// all endpoints open.
func NewServer(apiKey string, alertStore store.AlertStore, monitor Monitor) *Server {
	return &Server{
		apiKey:  apiKey,
		store:   alertStore,
		monitor: monitor,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")
	router.HandleFunc("/alerts", s.requireAPIKey(s.handleListAlerts)).Methods("GET", "OPTIONS")
	router.HandleFunc("/alerts", s.requireAPIKey(s.handleClearAlerts)).Methods("DELETE")
	router.HandleFunc("/start-monitor", s.requireAPIKey(s.handleStartMonitor)).Methods("POST", "OPTIONS")
	router.HandleFunc("/stop-monitor", s.requireAPIKey(s.handleStopMonitor)).Methods("POST", "OPTIONS")

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAPIKey checks the shared-secret header. No body detail is
// leaked on mismatch.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		logrus.Errorf("Health check failed to count alerts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"alerts_count": count,
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	var since time.Time
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hours must be a positive integer"})
			return
		}
		since = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	alerts, err := s.store.List(r.Context(), limit, since)
	if err != nil {
		logrus.Errorf("Failed to list alerts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (s *Server) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.Clear(r.Context())
	if err != nil {
		logrus.Errorf("Failed to clear alerts: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "cleared",
		"alerts_cleared": removed,
	})
}

func (s *Server) handleStartMonitor(w http.ResponseWriter, r *http.Request) {
	var cfg models.MonitorConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := validateConfig(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cfg = cfg.Normalize()
	if err := s.monitor.Start(r.Context(), cfg); err != nil {
		logrus.Errorf("Failed to start monitor: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start monitor"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "monitor_started",
		"cfg":    cfg,
	})
}

func (s *Server) handleStopMonitor(w http.ResponseWriter, r *http.Request) {
	s.monitor.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "monitor_stopped"})
}

func validateConfig(cfg models.MonitorConfig) error {
	if len(cfg.Keywords) == 0 {
		return errors.New("keywords must be a non-empty list")
	}
	for _, keyword := range cfg.Keywords {
		if strings.TrimSpace(keyword) == "" {
			return errors.New("keywords must not be blank")
		}
	}
	if cfg.IntervalSeconds < 0 {
		return errors.New("interval_seconds must be positive")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
