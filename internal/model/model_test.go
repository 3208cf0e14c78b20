package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateWindow_Clamp(t *testing.T) {
	tests := []struct {
		name string
		in   DateWindow
		want DateWindow
	}{
		{"valid window untouched", DateWindow{StartDay: 1, EndDay: 5}, DateWindow{StartDay: 1, EndDay: 5}},
		{"equal offsets", DateWindow{StartDay: 0, EndDay: 0}, DateWindow{StartDay: 0, EndDay: 1}},
		{"negative start", DateWindow{StartDay: -3, EndDay: 2}, DateWindow{StartDay: 0, EndDay: 2}},
		{"negative start and end", DateWindow{StartDay: -3, EndDay: -1}, DateWindow{StartDay: 0, EndDay: 1}},
		{"end before start", DateWindow{StartDay: 4, EndDay: 2}, DateWindow{StartDay: 4, EndDay: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestDateWindow_Bounds(t *testing.T) {
	// 01:30 at +02:00 is still the 9th in UTC.
	now := time.Date(2024, 3, 10, 1, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

	start, end := DateWindow{StartDay: 1, EndDay: 3}.Bounds(now)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.UTC, start.Location())
}

func TestMidnightUTC(t *testing.T) {
	got := MidnightUTC(time.Date(2024, 12, 31, 23, 59, 59, 999, time.UTC))
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), got)
}
