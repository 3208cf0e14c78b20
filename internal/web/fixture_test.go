package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	goical "github.com/emersion/go-ical"
	"github.com/stretchr/testify/require"

	"calfilter/internal/config"
)

// fixedNow anchors every date window in these tests: the window 0..2 is
// [2024-03-10 00:00Z, 2024-03-12 00:00Z].
var fixedNow = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

type fixtureEvent struct {
	uid         string
	summary     string
	description string
	location    string
	start       time.Time
	allDay      bool
}

// encodeFeed builds a calendar document with an independent encoder so the
// parser is checked against real-world serialization, escaping included.
func encodeFeed(t *testing.T, events ...fixtureEvent) []byte {
	t.Helper()

	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, "-//calfilter//fixtures//EN")

	for _, fe := range events {
		ev := goical.NewEvent()
		ev.Props.SetText(goical.PropUID, fe.uid)
		ev.Props.SetDateTime(goical.PropDateTimeStamp, fixedNow)
		if fe.allDay {
			ev.Props.SetDate(goical.PropDateTimeStart, fe.start)
		} else {
			ev.Props.SetDateTime(goical.PropDateTimeStart, fe.start)
		}
		if fe.summary != "" {
			ev.Props.SetText(goical.PropSummary, fe.summary)
		}
		if fe.description != "" {
			ev.Props.SetText(goical.PropDescription, fe.description)
		}
		if fe.location != "" {
			ev.Props.SetText(goical.PropLocation, fe.location)
		}
		cal.Children = append(cal.Children, ev.Component)
	}

	var buf bytes.Buffer
	require.NoError(t, goical.NewEncoder(&buf).Encode(cal))
	return buf.Bytes()
}

// wasteFeed is a small municipal waste calendar around fixedNow.
func wasteFeed(t *testing.T) []byte {
	t.Helper()
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	return encodeFeed(t,
		fixtureEvent{uid: "papier", summary: "Papier", start: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), allDay: true},
		fixtureEvent{uid: "gelb", summary: "Gelber Sack", start: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), allDay: true},
		fixtureEvent{
			uid:         "rest",
			summary:     "Restmüll",
			description: "Tonne bis 6 Uhr rausstellen",
			location:    "Hof, Tor 2",
			start:       time.Date(2024, 3, 10, 14, 0, 0, 0, berlin),
		},
		fixtureEvent{uid: "bio", summary: "Bio & Grünschnitt", start: time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)},
		fixtureEvent{uid: "glas", summary: "Glas", start: time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)},
		fixtureEvent{uid: "sperr", summary: "Sperrmüll", start: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), allDay: true},
	)
}

// staleFeed holds a single event long before any window used in the tests.
func staleFeed(t *testing.T) []byte {
	t.Helper()
	return encodeFeed(t, fixtureEvent{uid: "old", summary: "Last year", start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), allDay: true})
}

// upstream serves documents by path and counts requests.
type upstream struct {
	*httptest.Server

	mu   sync.Mutex
	hits int
}

func newUpstream(t *testing.T, docs map[string][]byte) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits++
		u.mu.Unlock()

		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		_, _ = w.Write(doc)
	}))
	t.Cleanup(u.Close)
	return u
}

// newTestServer wires a Server to defaultURL with the fixed clock.
func newTestServer(t *testing.T, defaultURL string, opts ...Option) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DefaultURL = defaultURL
	cfg.FetchTimeoutSeconds = 2
	return NewServer(cfg, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

// stubFetcher returns canned results without touching the network.
type stubFetcher func(ctx context.Context, url string) ([]byte, error)

func (f stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}
