package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	ingest "envmonitor-cloud/internal/ingest/application"
	"envmonitor-cloud/internal/observability/metrics"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

// Handler ingests sensor readings from devices.
type Handler struct {
	service *ingest.Service
	loc     *time.Location
	logger  *log.Logger
}

// NewHandler constructs an ingest handler.
func NewHandler(service *ingest.Service, loc *time.Location, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ingest handler: nil service")
	}
	if loc == nil {
		return nil, errors.New("ingest handler: nil location")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, loc: loc, logger: logger}, nil
}

// ServeHTTP routes POST /add and POST /add-batch.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	switch r.URL.Path {
	case "/add":
		h.handleAdd(w, r, start)
	case "/add-batch":
		h.handleAddBatch(w, r, start)
	default:
		http.NotFound(w, r)
	}
}

type addRequest struct {
	SensorName string   `json:"sensor_name"`
	Value      *float64 `json:"value"`
	Timestamp  string   `json:"timestamp"`
	DeviceID   string   `json:"device_id"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request, start time.Time) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, start, "invalid json", err)
		return
	}
	kind := sensors.SensorKind(req.SensorName)
	if !kind.Valid() {
		h.reject(w, start, "unknown sensor", errors.New("sensor_name "+req.SensorName))
		return
	}
	if req.Value == nil {
		h.reject(w, start, "missing value", errors.New("value is required"))
		return
	}
	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.ParseInLocation(timestampLayout, req.Timestamp, h.loc)
		if err != nil {
			h.reject(w, start, "invalid timestamp", err)
			return
		}
		ts = parsed
	}

	if _, err := h.service.IngestReading(r.Context(), kind, *req.Value, ts, req.DeviceID); err != nil {
		h.logger.Printf("ingest add: %v", err)
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	writeJSON(w, map[string]any{"status": "ok"})
}

type batchRequest struct {
	DeviceID    string   `json:"device_id"`
	MQ2         *float64 `json:"mq2"`
	MQ135       *float64 `json:"mq135"`
	Humidity    *float64 `json:"humidity"`
	PMDust      *float64 `json:"pm_dust"`
	Pressure    *float64 `json:"bmp_pressure"`
	Temperature *float64 `json:"bmp_temp"`
	Altitude    *float64 `json:"bmp_altitude"`
}

func (h *Handler) handleAddBatch(w http.ResponseWriter, r *http.Request, start time.Time) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, start, "invalid json", err)
		return
	}
	if req.DeviceID == "" {
		h.reject(w, start, "missing device", errors.New("device_id is required"))
		return
	}

	ts, count, err := h.service.IngestBatch(r.Context(), ingest.Batch{
		DeviceID:    req.DeviceID,
		MQ2:         req.MQ2,
		MQ135:       req.MQ135,
		Humidity:    req.Humidity,
		PMDust:      req.PMDust,
		Pressure:    req.Pressure,
		Temperature: req.Temperature,
		Altitude:    req.Altitude,
	})
	if err != nil {
		h.logger.Printf("ingest batch: %v", err)
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	writeJSON(w, map[string]any{
		"status":    "ok",
		"inserted":  count,
		"timestamp": ts.Format(timestampLayout),
	})
}

func (h *Handler) reject(w http.ResponseWriter, start time.Time, reason string, err error) {
	h.logger.Printf("ingest rejected: %s: %v", reason, err)
	metrics.IncIngestError(reason)
	metrics.ObserveIngest(metrics.ResultError, time.Since(start))
	http.Error(w, reason, http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
