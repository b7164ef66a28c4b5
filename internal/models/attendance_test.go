package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttendanceRecordStatus(t *testing.T) {
	in := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	out := in.Add(4 * time.Hour)

	pending := AttendanceRecord{}
	assert.Equal(t, StatusPending, pending.Status())

	inProgress := AttendanceRecord{SignInTime: &in}
	assert.Equal(t, StatusInProgress, inProgress.Status())

	completed := AttendanceRecord{SignInTime: &in, SignOutTime: &out}
	assert.Equal(t, StatusCompleted, completed.Status())
}

func TestHoursBetween(t *testing.T) {
	in := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	assert.Equal(t, 3.92, HoursBetween(in, in.Add(3*time.Hour+55*time.Minute)))
	assert.Equal(t, 0.5, HoursBetween(in, in.Add(30*time.Minute)))
	assert.Equal(t, 0.0, HoursBetween(in, in))
	// Never negative.
	assert.Equal(t, 0.0, HoursBetween(in, in.Add(-time.Hour)))
}

func TestActivityEndTime(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	activity := Activity{StartTime: start, DurationHours: 2.5}
	assert.Equal(t, start.Add(2*time.Hour+30*time.Minute), activity.EndTime())
}

func TestActivitySpotsLeft(t *testing.T) {
	assert.Equal(t, 15, (&Activity{TotalSpots: 20, SpotsTaken: 5}).SpotsLeft())
	assert.Equal(t, 0, (&Activity{TotalSpots: 20, SpotsTaken: 20}).SpotsLeft())
	assert.Equal(t, 0, (&Activity{TotalSpots: 20, SpotsTaken: 25}).SpotsLeft())
}
