// Package extract resolves semantic fields out of raw form submissions.
//
// The upstream source exposes submissions in two shapes: a structured field
// list with typed value containers, and an older flat label/value pair list.
// Shape ambiguity is resolved here and must not leak past normalization.
package extract

import "encoding/json"

// RawSubmission is the wire shape of one form submission. Fields from the
// structured shape and the flat shape coexist; the extractor tries the
// structured shape first.
type RawSubmission struct {
	ID             string          `json:"id"`
	FormTemplateID string          `json:"formTemplateId,omitempty"`
	TemplateID     string          `json:"templateId,omitempty"`
	Driver         *RawDriver      `json:"driver,omitempty"`
	DriverName     string          `json:"driverName,omitempty"`
	Fields         []RawField      `json:"fields,omitempty"`
	Inputs         []RawInput      `json:"inputs,omitempty"`
	Photos         []RawMedia      `json:"photos,omitempty"`
	Location       json.RawMessage `json:"location,omitempty"`
	TrailerNumber  string          `json:"trailerNumber,omitempty"`
	SubmittedAt    string          `json:"submittedAt,omitempty"`
	Condition      string          `json:"condition,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// RawDriver is the nested driver object of the structured shape.
type RawDriver struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// RawField is one entry of the structured field list. Exactly one value
// container is populated depending on Type.
type RawField struct {
	Label  string       `json:"label"`
	Type   string       `json:"type,omitempty"`
	Text   *TextValue   `json:"textValue,omitempty"`
	Number *NumberValue `json:"numberValue,omitempty"`
	Choice *ChoiceValue `json:"multipleChoiceValue,omitempty"`
	Check  *ChoiceValue `json:"checkBoxesValue,omitempty"`
	Media  *MediaValue  `json:"mediaValue,omitempty"`
}

// TextValue holds a plain text field value.
type TextValue struct {
	Value string `json:"value"`
}

// NumberValue holds a numeric field value.
type NumberValue struct {
	Value float64 `json:"value"`
}

// ChoiceValue holds the selected options of a choice field.
type ChoiceValue struct {
	Selected []ChoiceOption `json:"value"`
}

// ChoiceOption is one selected option of a choice field.
type ChoiceOption struct {
	Label string `json:"label"`
}

// MediaValue holds uploaded media items of a media field.
type MediaValue struct {
	Items []RawMedia `json:"value"`
}

// RawMedia is one uploaded media item. Items whose processing failed carry
// MediaStatusFailed and must be skipped.
type RawMedia struct {
	URL    string `json:"url"`
	Status string `json:"processingStatus,omitempty"`
}

// MediaStatusFailed marks a media item whose upstream processing failed.
const MediaStatusFailed = "failed"

// RawLocation is the structured location object of the newer shape.
type RawLocation struct {
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// ResolveTemplateID returns the submission's form template identifier,
// preferring the structured field name over the legacy one.
func (s *RawSubmission) ResolveTemplateID() string {
	if s.FormTemplateID != "" {
		return s.FormTemplateID
	}
	return s.TemplateID
}

// ResolvedLocation is the shape-independent view of a submission's location.
type ResolvedLocation struct {
	Address   string
	Latitude  float64
	Longitude float64
	HasCoords bool
	Flat      string
}

// ResolveLocation decodes the location payload, which may be a structured
// object or a flat string. Both zero values absent yields an empty result.
func (s *RawSubmission) ResolveLocation() ResolvedLocation {
	var loc ResolvedLocation
	if len(s.Location) == 0 {
		return loc
	}

	var structured RawLocation
	if err := json.Unmarshal(s.Location, &structured); err == nil {
		loc.Address = structured.Address
		loc.Latitude = structured.Latitude
		loc.Longitude = structured.Longitude
		loc.HasCoords = structured.Latitude != 0 || structured.Longitude != 0
		return loc
	}

	var flat string
	if err := json.Unmarshal(s.Location, &flat); err == nil {
		loc.Flat = flat
	}
	return loc
}
