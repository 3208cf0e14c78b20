package web

import (
	"errors"
	"net/http"

	"calfilter/internal/ics"
	appLog "calfilter/internal/log"
)

// handleCalendar fetches the requested feed, filters it to the date window
// and renders it.
//
// GET /?url=<feed>&start=0&end=2&plaintext=true
//   - url:       calendar feed (default: config default_url)
//   - start/end: whole-day offsets from today's UTC midnight, inclusive
//   - plaintext: "true" for one summary per line instead of JSON
//
// An unreachable feed or an empty response body is a 400. A feed that cannot be parsed yields an empty
// successful result.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query(), s.cfg)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			appLog.Info("rejecting calendar request", "reason", err.Error(), "request_id", requestIDFrom(r.Context()))
			writeResponse(w, renderValidationError(ve, req.Format))
			return
		}
		appLog.Error("calendar request parsing failed", err)
		writeResponse(w, renderInternalError(req.Format))
		return
	}

	appLog.Debug("calendar request",
		"start_day", req.Window.StartDay,
		"end_day", req.Window.EndDay,
		"plaintext", req.Format == formatPlain,
		"request_id", requestIDFrom(r.Context()),
	)

	doc, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		// The fetcher already logged the cause.
		s.metrics.observeFetch(fetchError)
		writeResponse(w, renderFetchError(req.Format))
		return
	}

	raw, err := ics.Parse(doc)
	if err != nil {
		s.metrics.observeFetch(fetchParseError)
		appLog.Error("ics parse failed; responding with no events", err, "request_id", requestIDFrom(r.Context()))
		raw = nil
	} else {
		s.metrics.observeFetch(fetchOK)
	}

	events := ics.Filter(raw, req.Window, s.now())
	s.metrics.observeEvents(len(events))
	writeResponse(w, renderEvents(events, req.Format))
}
