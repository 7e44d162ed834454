package analytics

import (
	"testing"
	"time"
)

func TestSlotOfBoundaries(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         int
	}{
		{0, 0, 0},
		{0, 14, 0},
		{0, 15, 1},
		{8, 0, 32},
		{12, 30, 50},
		{23, 45, 95},
		{23, 59, 95},
	}
	for _, tc := range cases {
		ts := time.Date(2026, 8, 30, tc.hour, tc.minute, 30, 0, time.UTC)
		if got := SlotOf(ts, time.UTC); got != tc.want {
			t.Fatalf("SlotOf(%02d:%02d) = %d, want %d", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestSlotOfRespectsZone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 02:30 UTC is 08:00 in Asia/Kolkata (+05:30).
	ts := time.Date(2026, 8, 30, 2, 30, 0, 0, time.UTC)
	if got := SlotOf(ts, kolkata); got != 32 {
		t.Fatalf("expected slot 32 for 08:00 local, got %d", got)
	}
}

func TestSlotLabels(t *testing.T) {
	labels := SlotLabels()
	if len(labels) != SlotCount {
		t.Fatalf("expected %d labels, got %d", SlotCount, len(labels))
	}
	if labels[0] != "00:00" {
		t.Fatalf("expected first label 00:00, got %s", labels[0])
	}
	if labels[32] != "08:00" {
		t.Fatalf("expected label 08:00 at slot 32, got %s", labels[32])
	}
	if labels[95] != "23:45" {
		t.Fatalf("expected last label 23:45, got %s", labels[95])
	}
}

func TestDayBounds(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 20:00 UTC on Aug 30 is already Aug 31 in Asia/Kolkata.
	now := time.Date(2026, 8, 30, 20, 0, 0, 0, time.UTC)
	start, end := DayBounds(now, kolkata)
	if start.Day() != 31 || start.Hour() != 0 || start.Minute() != 0 {
		t.Fatalf("unexpected day start: %v", start)
	}
	if !end.Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected day end: %v", end)
	}
}
