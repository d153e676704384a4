// Package normalize converts raw form submissions into canonical events.
package normalize

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/grantfleet/yardwatch/internal/event"
	"github.com/grantfleet/yardwatch/internal/extract"
)

// Clock provides time for deterministic testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultClock is used by the production API.
var DefaultClock Clock = realClock{}

// Labels is the declarative table of candidate label fragments per canonical
// field, tried in order. Relabeling an upstream form is a change here, not a
// code change.
var Labels = map[string][]string{
	"trailer":        {"trailer number", "trailer #", "trailer"},
	"driver":         {"driver name", "your name", "driver"},
	"customer":       {"customer name", "customer"},
	"dropLocation":   {"drop location", "where did you drop", "location description"},
	"gpsAddress":     {"gps address", "current address", "address"},
	"defectLevel":    {"defect level", "any defects", "defect", "damage"},
	"defectNotes":    {"defect notes", "describe the defect", "damage notes"},
	"accessoryNotes": {"accessor", "straps", "equipment left"},
}

// Normalizer classifies and converts raw submissions. Submissions whose
// template matches neither known id are rejected.
type Normalizer struct {
	dropTemplateID string
	pickTemplateID string
	clock          Clock
	logger         *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock (for testing).
func WithClock(clock Clock) Option {
	return func(n *Normalizer) { n.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// New creates a Normalizer for the two known form template ids.
func New(dropTemplateID, pickTemplateID string, opts ...Option) *Normalizer {
	n := &Normalizer{
		dropTemplateID: dropTemplateID,
		pickTemplateID: pickTemplateID,
		clock:          DefaultClock,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts a raw submission into a canonical Event. The second
// return is false for submissions of unrecognized templates, which are
// skipped silently (visible only through lower processed counts).
func (n *Normalizer) Normalize(raw *extract.RawSubmission) (*event.Event, bool) {
	if raw == nil || raw.ID == "" {
		return nil, false
	}

	templateID := raw.ResolveTemplateID()
	var kind event.Kind
	switch templateID {
	case n.dropTemplateID:
		kind = event.KindDrop
	case n.pickTemplateID:
		kind = event.KindPick
	default:
		n.logger.Debug("skipping submission of unknown template",
			"submission_id", raw.ID,
			"template_id", templateID,
		)
		return nil, false
	}

	e := &event.Event{
		ID:               raw.ID,
		TemplateID:       templateID,
		Kind:             kind,
		DriverName:       n.driverName(raw),
		TrailerNumber:    event.NormalizeTrailerNumber(n.trailerNumber(raw)),
		SubmittedAt:      n.submittedAt(raw),
		CustomerName:     extract.First(raw, Labels["customer"]...),
		DropLocationDesc: extract.First(raw, Labels["dropLocation"]...),
		GPSAddress:       extract.First(raw, Labels["gpsAddress"]...),
		DefectNotes:      extract.First(raw, Labels["defectNotes"]...),
		AccessoryNotes:   extract.First(raw, Labels["accessoryNotes"]...),
		PhotoURLs:        extract.PhotoURLs(raw),
		IngestedAt:       n.clock.Now(),
	}
	e.Location = n.location(raw, e)
	e.DefectLevel = n.defectLevel(raw)

	return e, true
}

func (n *Normalizer) driverName(raw *extract.RawSubmission) string {
	if raw.Driver != nil && raw.Driver.Name != "" {
		return raw.Driver.Name
	}
	if raw.DriverName != "" {
		return raw.DriverName
	}
	if v := extract.First(raw, Labels["driver"]...); v != "" {
		return v
	}
	return event.UnknownDriver
}

func (n *Normalizer) trailerNumber(raw *extract.RawSubmission) string {
	if v := extract.First(raw, Labels["trailer"]...); v != "" {
		return v
	}
	return raw.TrailerNumber
}

// location resolves in preference order: structured address, structured
// coordinates (kept as "lat, lng" pending enrichment), flat string,
// extractor-derived address fields, then the UnknownLocation sentinel.
func (n *Normalizer) location(raw *extract.RawSubmission, e *event.Event) string {
	loc := raw.ResolveLocation()
	switch {
	case loc.Address != "":
		return loc.Address
	case loc.HasCoords:
		return FormatCoordinates(loc.Latitude, loc.Longitude)
	case loc.Flat != "":
		return loc.Flat
	case e.GPSAddress != "":
		return e.GPSAddress
	case e.DropLocationDesc != "":
		return e.DropLocationDesc
	default:
		return event.UnknownLocation
	}
}

func (n *Normalizer) defectLevel(raw *extract.RawSubmission) event.DefectLevel {
	v := extract.First(raw, Labels["defectLevel"]...)
	if v == "" {
		v = raw.Condition
	}
	return event.ParseDefectLevel(v)
}

// submittedAt parses the submission timestamp, defaulting to ingestion time
// when absent or unparseable. This is a documented policy choice, not a data
// integrity violation: late-arriving records without timestamps are kept.
func (n *Normalizer) submittedAt(raw *extract.RawSubmission) time.Time {
	if raw.SubmittedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw.SubmittedAt); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, raw.SubmittedAt); err == nil {
			return t
		}
	}
	return n.clock.Now()
}

// FormatCoordinates renders a lat/lng pair in the "lat, lng" form that
// geocode.ParseCoordinates recognizes for later enrichment.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
