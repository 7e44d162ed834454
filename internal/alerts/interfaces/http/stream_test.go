package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	alertapp "envmonitor-cloud/internal/alerts/application"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	event := alertapp.AlertEvent{
		Sensor:  "MQ2",
		Value:   45,
		Message: "MQ2 ALERT: Value 45 above safe limit!",
		At:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	broker.Notify(context.Background(), event)

	select {
	case payload := <-ch:
		var got alertapp.AlertEvent
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if got.Sensor != "MQ2" || got.Message != event.Message {
			t.Fatalf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestBrokerDropsForSlowClients(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	defer broker.Unsubscribe(ch)

	// Fill the client buffer and then some; Notify must never block.
	for i := 0; i < 40; i++ {
		broker.Notify(context.Background(), alertapp.AlertEvent{Sensor: "MQ2", Value: float64(i)})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected full buffer, got %d/%d", len(ch), cap(ch))
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	broker := NewSSEBroker()
	ch := broker.Subscribe()
	broker.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	// Notifying after unsubscribe must not panic.
	broker.Notify(context.Background(), alertapp.AlertEvent{Sensor: "MQ2"})
}
