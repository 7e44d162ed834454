package apihttp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	analyticsapp "envmonitor-cloud/internal/analytics/application"
	"envmonitor-cloud/internal/observability/metrics"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

// DashboardHandler serves the read-side endpoints backing the dashboard.
type DashboardHandler struct {
	analytics *analyticsapp.Service
	logger    *log.Logger
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(analytics *analyticsapp.Service, logger *log.Logger) (*DashboardHandler, error) {
	if analytics == nil {
		return nil, errors.New("dashboard handler: nil analytics service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DashboardHandler{analytics: analytics, logger: logger}, nil
}

// HandleLatest serves GET /latest.
func (h *DashboardHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	latest, err := h.analytics.Latest(r.Context())
	if err != nil {
		h.logger.Printf("latest query: %v", err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, latest)
}

// HandleTrend serves GET /trend/{sensor}.
func (h *DashboardHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kind, ok := sensorFromPath(r.URL.Path, "/trend/")
	if !ok {
		metrics.IncTrendRequest(metrics.ResultError)
		http.Error(w, "unknown sensor", http.StatusBadRequest)
		return
	}
	view, err := h.analytics.Trend(r.Context(), kind)
	if err != nil {
		h.logger.Printf("trend query: sensor=%s: %v", kind, err)
		metrics.IncTrendRequest(metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	metrics.IncTrendRequest(metrics.ResultSuccess)
	writeJSON(w, view)
}

// HandleDailySummary serves GET /daily-summary/{sensor}.
func (h *DashboardHandler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	kind, ok := sensorFromPath(r.URL.Path, "/daily-summary/")
	if !ok {
		http.Error(w, "unknown sensor", http.StatusBadRequest)
		return
	}
	summary, err := h.analytics.DailySummary(r.Context(), kind)
	if err != nil {
		h.logger.Printf("daily summary query: sensor=%s: %v", kind, err)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

func sensorFromPath(path, prefix string) (sensors.SensorKind, bool) {
	name := strings.TrimPrefix(path, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	kind := sensors.SensorKind(name)
	if !kind.Valid() {
		return "", false
	}
	return kind, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
