package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"calfilter/internal/config"
	"calfilter/internal/model"
)

// format selects the response encoding.
type format int

const (
	formatJSON format = iota
	formatPlain
)

// ValidationError reports a query parameter that could not be parsed.
type ValidationError struct {
	Param string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: must be an integer", e.Value, e.Param)
}

// calendarRequest is a validated calendar query.
type calendarRequest struct {
	URL    string
	Window model.DateWindow
	Format format
}

// formatFromQuery reads plaintext=true (case-insensitive); anything else is
// JSON.
func formatFromQuery(q url.Values) format {
	if strings.EqualFold(strings.TrimSpace(q.Get("plaintext")), "true") {
		return formatPlain
	}
	return formatJSON
}

// parseRequest applies cfg defaults and window clamping to the query. Empty
// parameters count as absent. On error the returned request still carries
// the requested Format.
func parseRequest(q url.Values, cfg *config.Config) (calendarRequest, error) {
	req := calendarRequest{
		URL:    cfg.DefaultURL,
		Format: formatFromQuery(q),
	}
	if u := strings.TrimSpace(q.Get("url")); u != "" {
		req.URL = u
	}

	start, err := intParam(q, "start", cfg.DefaultStartDay)
	if err != nil {
		return req, err
	}
	end, err := intParam(q, "end", cfg.DefaultEndDay)
	if err != nil {
		return req, err
	}

	req.Window = model.DateWindow{StartDay: start, EndDay: end}.Clamp()
	return req, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Param: name, Value: raw}
	}
	return n, nil
}
