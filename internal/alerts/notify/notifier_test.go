package notify

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	alertapp "envmonitor-cloud/internal/alerts/application"
)

type recordingChannel struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	err      error
}

func (r *recordingChannel) Send(_ context.Context, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subject)
	r.bodies = append(r.bodies, body)
	return nil
}

func (r *recordingChannel) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects)
}

func TestEmailNotifierSubjectAndBody(t *testing.T) {
	channel := &recordingChannel{}
	notifier, err := NewEmailNotifier(channel, log.Default())
	if err != nil {
		t.Fatalf("new email notifier: %v", err)
	}

	notifier.Notify(context.Background(), alertapp.AlertEvent{
		Sensor:  "MQ2",
		Value:   45,
		Message: "MQ2 ALERT: Value 45 above safe limit!",
		At:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	})

	if channel.Count() != 1 {
		t.Fatalf("expected 1 send, got %d", channel.Count())
	}
	if channel.subjects[0] != "MQ2 Alert" {
		t.Fatalf("unexpected subject: %s", channel.subjects[0])
	}
	if channel.bodies[0] != "MQ2 ALERT: Value 45 above safe limit!" {
		t.Fatalf("unexpected body: %s", channel.bodies[0])
	}
}

func TestEmailNotifierSwallowsSendFailure(t *testing.T) {
	channel := &recordingChannel{err: errors.New("relay down")}
	var logged strings.Builder
	notifier, err := NewEmailNotifier(channel, log.New(&logged, "", 0))
	if err != nil {
		t.Fatalf("new email notifier: %v", err)
	}

	// Must not panic or propagate the channel error.
	notifier.Notify(context.Background(), alertapp.AlertEvent{Sensor: "Humidity", Message: "msg"})

	if !strings.Contains(logged.String(), "relay down") {
		t.Fatalf("expected failure to be logged, got %q", logged.String())
	}
}

func TestMultiNotifierFansOut(t *testing.T) {
	first := &recordingChannel{}
	second := &recordingChannel{}
	n1, err := NewEmailNotifier(first, log.Default())
	if err != nil {
		t.Fatalf("new email notifier: %v", err)
	}
	n2, err := NewEmailNotifier(second, log.Default())
	if err != nil {
		t.Fatalf("new email notifier: %v", err)
	}

	multi := NewMultiNotifier(n1, nil, n2)
	multi.Notify(context.Background(), alertapp.AlertEvent{Sensor: "PM_Dust", Message: "msg"})

	if first.Count() != 1 || second.Count() != 1 {
		t.Fatalf("expected both channels to receive, got %d/%d", first.Count(), second.Count())
	}
}

func TestNewSMTPChannelRequiresCompleteConfig(t *testing.T) {
	_, err := NewSMTPChannel(SMTPConfig{Host: "smtp-relay.brevo.com", Port: 587})
	if err == nil {
		t.Fatal("expected error for incomplete smtp settings")
	}

	channel, err := NewSMTPChannel(SMTPConfig{
		Host:      "smtp-relay.brevo.com",
		Port:      587,
		Username:  "user",
		Password:  "pass",
		Sender:    "alerts@example.com",
		Recipient: "ops@example.com",
	})
	if err != nil {
		t.Fatalf("new smtp channel: %v", err)
	}
	if channel == nil {
		t.Fatal("expected channel")
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := buildMessage("alerts@example.com", "ops@example.com", "MQ2 Alert", "body text")
	for _, expected := range []string{
		"From: alerts@example.com\r\n",
		"To: ops@example.com\r\n",
		"Subject: MQ2 Alert\r\n",
		"\r\n\r\nbody text",
	} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected message to include %q, got %q", expected, msg)
		}
	}
}
