package ics

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"calfilter/internal/model"
)

func TestNormalize(t *testing.T) {
	want := func(h int) time.Time { return time.Date(2024, 3, 10, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		in   RawStart
		want time.Time
	}{
		{"date becomes utc midnight", RawStart{Kind: StartDate, Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}, want(0)},
		{"floating keeps wall clock", RawStart{Kind: StartFloating, Time: time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)}, want(14)},
		{"offset converted to utc", RawStart{Kind: StartZoned, Time: time.Date(2024, 3, 10, 14, 0, 0, 0, time.FixedZone("", 2*60*60))}, want(12)},
		{"utc stays utc", RawStart{Kind: StartZoned, Time: want(14)}, want(14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func rawAt(summary string, t time.Time) RawEvent {
	return RawEvent{
		Summary:     summary,
		Description: model.DefaultDescription,
		Location:    model.DefaultLocation,
		Start:       RawStart{Kind: StartZoned, Time: t},
	}
}

func TestFilter_ClosedWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 45, 0, 0, time.UTC)
	day := func(d, h int) time.Time { return time.Date(2024, 3, 10+d, h, 0, 0, 0, time.UTC) }

	raw := []RawEvent{
		rawAt("yesterday late", day(-1, 23)),
		rawAt("today midnight", day(0, 0)),
		rawAt("tomorrow noon", day(1, 12)),
		rawAt("end midnight", day(2, 0)),
		rawAt("after end", day(2, 0).Add(time.Second)),
	}

	got := Filter(raw, model.DateWindow{StartDay: 0, EndDay: 2}, now)

	var summaries []string
	for _, ev := range got {
		summaries = append(summaries, ev.Summary)
	}
	assert.Equal(t, []string{"today midnight", "tomorrow noon", "end midnight"}, summaries)
}

func TestFilter_MixedEncodings(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	raw := []RawEvent{
		{Summary: "offset", Start: RawStart{Kind: StartZoned, Time: time.Date(2024, 3, 10, 14, 0, 0, 0, time.FixedZone("", 2*60*60))}},
		{Summary: "floating", Start: RawStart{Kind: StartFloating, Time: time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)}},
		{Summary: "date", Start: RawStart{Kind: StartDate, Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}},
	}

	got := Filter(raw, model.DateWindow{StartDay: 0, EndDay: 1}, now)

	want := []model.Event{
		{Summary: "date", Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{Summary: "offset", Start: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		{Summary: "floating", Start: time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_StableOnTies(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	noon := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	raw := []RawEvent{
		rawAt("b-1", noon),
		rawAt("a", noon.Add(-time.Hour)),
		rawAt("b-2", noon),
		rawAt("b-3", noon.In(time.FixedZone("", -5*60*60))),
	}
	got := Filter(raw, model.DateWindow{StartDay: 0, EndDay: 1}, now)

	var summaries []string
	for _, ev := range got {
		summaries = append(summaries, ev.Summary)
	}
	assert.Equal(t, []string{"a", "b-1", "b-2", "b-3"}, summaries)
}

func TestFilter_EmptyIsNotNil(t *testing.T) {
	got := Filter(nil, model.DateWindow{StartDay: 0, EndDay: 2}, time.Now())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// Every returned start lies in the window and the output is sorted, for a
// spread of random windows and inputs.
func TestFilter_WindowAndOrderProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	now := time.Date(2024, 6, 1, 17, 3, 0, 0, time.UTC)
	base := model.MidnightUTC(now)

	for i := 0; i < 50; i++ {
		s := rnd.Intn(5)
		w := model.DateWindow{StartDay: s, EndDay: s + 1 + rnd.Intn(5)}

		raw := make([]RawEvent, 0, 40)
		for j := 0; j < 40; j++ {
			offset := time.Duration(rnd.Intn(12*24)) * time.Hour / 2
			raw = append(raw, rawAt(fmt.Sprintf("ev-%d", j), base.Add(-24*time.Hour+offset)))
		}

		from, to := w.Bounds(now)
		got := Filter(raw, w, now)
		for k, ev := range got {
			assert.False(t, ev.Start.Before(from), "window %+v: %s before %s", w, ev.Start, from)
			assert.False(t, ev.Start.After(to), "window %+v: %s after %s", w, ev.Start, to)
			if k > 0 {
				assert.False(t, ev.Start.Before(got[k-1].Start), "window %+v: not sorted at %d", w, k)
			}
		}
	}
}
