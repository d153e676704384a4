// Package event provides the shared Event model for YardWatch.
// This package is used by derive, issues, normalize, notify, store, and api.
package event

import (
	"strings"
	"time"
)

// Kind classifies a custody event.
type Kind string

// Event kind constants.
const (
	KindDrop Kind = "DROP"
	KindPick Kind = "PICK"
)

// DefectLevel is the closed set of defect classifications drivers can report.
type DefectLevel string

// Defect level constants. Raw form values are operator-edited text, so
// parsing is permissive and anything unrecognized maps to DefectNo.
const (
	DefectNo             DefectLevel = "No"
	DefectMinor          DefectLevel = "Yes (minor)"
	DefectNeedsAttention DefectLevel = "Yes (needs attention)"
)

// ParseDefectLevel maps a raw form value onto the closed DefectLevel set.
// Unrecognized or empty input yields DefectNo; upstream payload quality is
// variable and rejecting such records would silently lose data.
func ParseDefectLevel(raw string) DefectLevel {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return DefectNo
	case strings.Contains(s, "attention"), strings.Contains(s, "major"):
		return DefectNeedsAttention
	case strings.Contains(s, "minor"):
		return DefectMinor
	case strings.HasPrefix(s, "yes"):
		return DefectMinor
	default:
		return DefectNo
	}
}

// Event represents one canonical custody event. Events are immutable once
// stored; Seq is assigned by the store at append time and serves as the
// tie-break when two events share a SubmittedAt.
type Event struct {
	ID               string      `json:"id"`
	TemplateID       string      `json:"templateId"`
	Kind             Kind        `json:"kind"`
	DriverName       string      `json:"driverName"`
	TrailerNumber    string      `json:"trailerNumber"`
	Location         string      `json:"location"`
	SubmittedAt      time.Time   `json:"submittedAt"`
	Seq              int64       `json:"seq"`
	CustomerName     string      `json:"customerName,omitempty"`
	DropLocationDesc string      `json:"dropLocationDesc,omitempty"`
	GPSAddress       string      `json:"gpsAddress,omitempty"`
	DefectLevel      DefectLevel `json:"defectLevel,omitempty"`
	DefectNotes      string      `json:"defectNotes,omitempty"`
	AccessoryNotes   string      `json:"accessoryNotes,omitempty"`
	PhotoURLs        []string    `json:"photoUrls,omitempty"`
	IngestedAt       time.Time   `json:"ingestedAt"`
}

// UnknownDriver is the driver name used when no driver could be extracted.
const UnknownDriver = "Unknown Driver"

// UnknownLocation is the sentinel used when no location could be resolved
// from any source.
const UnknownLocation = "Unknown Location"

// NormalizeTrailerNumber canonicalizes a trailer identifier: trims, collapses
// internal whitespace runs to single hyphens, and upper-cases. This is the
// join key for all derivation and is applied exactly once, at ingestion.
// " trl 501 " normalizes to "TRL-501".
func NormalizeTrailerNumber(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Join(fields, "-"))
}

// Before reports whether a sorts strictly before b in the canonical stream
// order: ascending SubmittedAt, then ascending Seq (insertion order).
func Before(a, b Event) bool {
	if a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.Seq < b.Seq
	}
	return a.SubmittedAt.Before(b.SubmittedAt)
}
