package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	appLog "calfilter/internal/log"
	"calfilter/internal/model"
)

const (
	contentTypeJSON  = "application/json; charset=utf-8"
	contentTypePlain = "text/plain; charset=utf-8"

	msgFetchFailed   = "Failed to retrieve iCal data"
	msgNoEvents      = "No events found."
	msgInternalError = "Internal server error"

	// statusFetchFailed is returned when the upstream feed cannot be retrieved.
	statusFetchFailed = http.StatusBadRequest
)

// response is a fully rendered HTTP reply.
type response struct {
	status      int
	contentType string
	body        []byte
}

// eventDTO is the JSON view of an event; field order is part of the output.
type eventDTO struct {
	Summary     string `json:"summary"`
	Start       string `json:"start"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type eventsResponse struct {
	Status string     `json:"status"`
	Events []eventDTO `json:"events"`
	Count  int        `json:"count"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// renderEvents renders a successful (possibly empty) result.
func renderEvents(events []model.Event, f format) response {
	if f == formatPlain {
		if len(events) == 0 {
			return plain(http.StatusOK, msgNoEvents)
		}
		summaries := make([]string, len(events))
		for i, ev := range events {
			summaries[i] = ev.Summary
		}
		return plain(http.StatusOK, strings.Join(summaries, "\n"))
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, eventDTO{
			Summary:     ev.Summary,
			Start:       ev.Start.UTC().Format(model.StartLayout),
			Description: ev.Description,
			Location:    ev.Location,
		})
	}
	return jsonResponse(http.StatusOK, eventsResponse{
		Status: "success",
		Events: dtos,
		Count:  len(dtos),
	}, "  ")
}

// renderFetchError renders the reply for an unreachable upstream feed.
func renderFetchError(f format) response {
	return renderError(statusFetchFailed, msgFetchFailed, f)
}

func renderValidationError(err *ValidationError, f format) response {
	return renderError(http.StatusBadRequest, err.Error(), f)
}

func renderInternalError(f format) response {
	return renderError(http.StatusInternalServerError, msgInternalError, f)
}

func renderError(status int, msg string, f format) response {
	if f == formatPlain {
		return plain(status, msg)
	}
	return jsonResponse(status, errorResponse{Status: "error", Message: msg}, "")
}

func plain(status int, body string) response {
	return response{status: status, contentType: contentTypePlain, body: []byte(body)}
}

// jsonResponse encodes v without HTML escaping, so non-ASCII text and
// characters like & stay literal. A non-empty indent pretty-prints.
func jsonResponse(status int, v any, indent string) response {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
		return response{
			status:      http.StatusInternalServerError,
			contentType: contentTypeJSON,
			body:        []byte(`{"status":"error","message":"` + msgInternalError + `"}`),
		}
	}
	return response{
		status:      status,
		contentType: contentTypeJSON,
		body:        bytes.TrimSuffix(buf.Bytes(), []byte("\n")),
	}
}

func writeResponse(w http.ResponseWriter, resp response) {
	h := w.Header()
	h.Set("Content-Type", resp.contentType)
	h.Set("Content-Length", strconv.Itoa(len(resp.body)))
	w.WriteHeader(resp.status)
	if _, err := w.Write(resp.body); err != nil {
		appLog.Debug("failed to write response body", "err", err)
	}
}
