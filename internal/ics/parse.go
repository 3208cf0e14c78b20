package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calfilter/internal/log"
	"calfilter/internal/model"
)

// StartKind tells how a DTSTART value was encoded.
type StartKind int

const (
	// StartDate is a date without a time of day (VALUE=DATE).
	StartDate StartKind = iota
	// StartFloating is a date-time with no offset or zone.
	StartFloating
	// StartZoned is a date-time in UTC ("Z" suffix) or a resolvable TZID.
	StartZoned
)

func (k StartKind) String() string {
	switch k {
	case StartDate:
		return "date"
	case StartFloating:
		return "floating"
	case StartZoned:
		return "zoned"
	default:
		return fmt.Sprintf("StartKind(%d)", int(k))
	}
}

// RawStart is a DTSTART value before normalization. For StartDate and
// StartFloating, Time holds the wall-clock components in UTC; for StartZoned
// it is the instant in its own location.
type RawStart struct {
	Kind StartKind
	Time time.Time
}

// RawEvent is one VEVENT with defaults applied to its text properties.
type RawEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       RawStart
}

// ParseError reports a calendar document that could not be decoded or a
// VEVENT without a usable DTSTART.
type ParseError struct {
	// Event is the zero-based VEVENT index, or -1 for document-level errors.
	Event int
	UID   string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Event < 0:
		return fmt.Sprintf("parse calendar: %v", e.Err)
	case e.UID != "":
		return fmt.Sprintf("parse calendar: vevent %d (uid %s): %v", e.Event, e.UID, e.Err)
	default:
		return fmt.Sprintf("parse calendar: vevent %d: %v", e.Event, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errEmptyDocument = errors.New("empty document")
	errMissingStart  = errors.New("missing DTSTART")
)

const (
	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
	layoutUTC      = "20060102T150405Z"
)

// Parse decodes a calendar document into its VEVENTs, in document order.
//
// A single VEVENT without a usable DTSTART fails the whole document; callers
// decide whether to degrade to an empty result.
func Parse(doc []byte) ([]RawEvent, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, &ParseError{Event: -1, Err: errEmptyDocument}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(doc))
	if err != nil {
		return nil, &ParseError{Event: -1, Err: err}
	}

	vevents := cal.Events()
	events := make([]RawEvent, 0, len(vevents))
	for i, ve := range vevents {
		ev, err := parseVEvent(ve)
		if err != nil {
			return nil, &ParseError{Event: i, UID: ev.UID, Err: err}
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (RawEvent, error) {
	out := RawEvent{
		Summary:     textOr(ve, ical.ComponentPropertySummary, model.DefaultSummary),
		Description: textOr(ve, ical.ComponentPropertyDescription, model.DefaultDescription),
		Location:    textOr(ve, ical.ComponentPropertyLocation, model.DefaultLocation),
	}
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return out, errMissingStart
	}
	start, err := parseStart(dtStart.Value, dtStart.ICalParameters)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	return out, nil
}

// parseStart classifies a DTSTART value as date, floating or zoned.
func parseStart(value string, params map[string][]string) (RawStart, error) {
	v := strings.TrimSpace(value)

	if strings.EqualFold(param(params, "VALUE"), "DATE") || !strings.Contains(v, "T") {
		t, err := time.Parse(layoutDate, v)
		if err != nil {
			return RawStart{}, err
		}
		return RawStart{Kind: StartDate, Time: t}, nil
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse(layoutUTC, v)
		if err != nil {
			return RawStart{}, err
		}
		return RawStart{Kind: StartZoned, Time: t}, nil
	}

	t, err := time.Parse(layoutDateTime, v)
	if err != nil {
		return RawStart{}, err
	}

	tzid := strings.Trim(param(params, "TZID"), `"`)
	if tzid == "" {
		return RawStart{Kind: StartFloating, Time: t}, nil
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		// Custom VTIMEZONE names (e.g. Windows zone names) end up here.
		appLog.Debug("unknown TZID, treating DTSTART as floating", "tzid", tzid, "err", err)
		return RawStart{Kind: StartFloating, Time: t}, nil
	}
	return RawStart{
		Kind: StartZoned,
		Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc),
	}, nil
}

func param(params map[string][]string, name string) string {
	if vs := params[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// textOr returns the property value, already unescaped by the parser, or def
// when the property is absent. A present but empty value stays empty.
func textOr(ve *ical.VEvent, prop ical.ComponentProperty, def string) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return def
	}
	return p.Value
}
