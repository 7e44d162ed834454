package analytics

import (
	"fmt"
	"time"
)

// SlotCount is the number of fixed 15-minute time-of-day buckets.
const SlotCount = 96

const slotMinutes = 15

// SlotOf maps a timestamp to its time-of-day bucket in the given zone,
// independent of calendar day: floor(minutes-of-day / 15), range [0, 95].
func SlotOf(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return (local.Hour()*60 + local.Minute()) / slotMinutes
}

// SlotLabels returns the 96 "HH:MM" labels from "00:00" to "23:45".
func SlotLabels() []string {
	labels := make([]string, SlotCount)
	for i := 0; i < SlotCount; i++ {
		minutes := i * slotMinutes
		labels[i] = fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
	}
	return labels
}

// DayBounds returns the start of the calendar day containing now and the
// start of the next day, both in the given zone.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
