package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	alertapp "envmonitor-cloud/internal/alerts/application"
	alerts "envmonitor-cloud/internal/alerts/domain"
	ingest "envmonitor-cloud/internal/ingest/application"
	"envmonitor-cloud/internal/sensors/infrastructure/memory"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

type memoryStateRepo struct {
	mu     sync.Mutex
	states map[sensors.SensorKind]alerts.AlertState
}

func newMemoryStateRepo() *memoryStateRepo {
	return &memoryStateRepo{states: make(map[sensors.SensorKind]alerts.AlertState)}
}

func (r *memoryStateRepo) Get(_ context.Context, kind sensors.SensorKind) (*alerts.AlertState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[kind]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *memoryStateRepo) Upsert(_ context.Context, state *alerts.AlertState) error {
	r.mu.Lock()
	r.states[state.SensorName] = *state
	r.mu.Unlock()
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *memory.ReadingStore) {
	t.Helper()
	store := memory.NewReadingStore()
	alertService, err := alertapp.NewService(alerts.DefaultRules(), newMemoryStateRepo())
	if err != nil {
		t.Fatalf("new alert service: %v", err)
	}
	ingestService, err := ingest.NewService(store, alertService, time.UTC, log.Default())
	if err != nil {
		t.Fatalf("new ingest service: %v", err)
	}
	handler, err := NewHandler(ingestService, time.UTC, log.Default())
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, store
}

func TestHandleAddBatch(t *testing.T) {
	handler, store := newTestHandler(t)

	body := `{"device_id":"esp32-01","humidity":55.5}`
	req := httptest.NewRequest(http.MethodPost, "/add-batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", resp["status"])
	}
	if resp["inserted"] != float64(1) {
		t.Fatalf("expected 1 inserted, got %v", resp["inserted"])
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 stored reading, got %d", store.Count())
	}
}

func TestHandleAddSingle(t *testing.T) {
	handler, store := newTestHandler(t)

	body := `{"sensor_name":"MQ2","value":12.5,"timestamp":"2026-08-30 08:00:00","device_id":"esp32-01"}`
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	readings, err := store.QueryRange(context.Background(), sensors.SensorMQ2,
		time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC), time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(readings) != 1 || readings[0].Value != 12.5 {
		t.Fatalf("unexpected stored readings: %+v", readings)
	}
}

func TestHandleAddRejectsMalformedPayload(t *testing.T) {
	handler, store := newTestHandler(t)

	cases := map[string]string{
		"invalid json":   `{"sensor_name":`,
		"unknown sensor": `{"sensor_name":"Radon","value":1}`,
		"missing value":  `{"sensor_name":"MQ2"}`,
		"bad timestamp":  `{"sensor_name":"MQ2","value":1,"timestamp":"yesterday"}`,
	}
	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
	if store.Count() != 0 {
		t.Fatalf("rejected payloads must not store readings, got %d", store.Count())
	}
}

func TestHandleAddBatchRequiresDevice(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/add-batch", strings.NewReader(`{"humidity":55}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerRejectsNonPost(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/add", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
