package extract

import (
	"strconv"
	"strings"
)

// Value extracts the first field whose label contains the given label
// fragment, case-insensitively. The structured field list is tried first,
// then the flat label/value pairs. Returns "" when nothing matches.
//
// Labels are operator-edited text, not stable keys; substring matching is
// the only robust join available against this source. A relabeled upstream
// form silently breaks extraction, so candidate fragments live in a
// declarative table (see normalize.Labels) rather than scattered literals.
func Value(s *RawSubmission, label string) string {
	needle := strings.ToLower(label)

	for i := range s.Fields {
		f := &s.Fields[i]
		if strings.Contains(strings.ToLower(f.Label), needle) {
			if v := fieldValue(f); v != "" {
				return v
			}
		}
	}

	for _, in := range s.Inputs {
		if strings.Contains(strings.ToLower(in.Label), needle) && in.Value != "" {
			return in.Value
		}
	}

	return ""
}

// First returns the first non-empty extraction over an ordered list of
// candidate label fragments.
func First(s *RawSubmission, labels ...string) string {
	for _, label := range labels {
		if v := Value(s, label); v != "" {
			return v
		}
	}
	return ""
}

// RawInput is one entry of the flat label/value pair list.
type RawInput struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// fieldValue resolves the typed value container of a structured field.
// Choice fields yield their selected options joined by ", ".
func fieldValue(f *RawField) string {
	switch {
	case f.Text != nil:
		return f.Text.Value
	case f.Number != nil:
		return strconv.FormatFloat(f.Number.Value, 'f', -1, 64)
	case f.Choice != nil:
		return joinOptions(f.Choice.Selected)
	case f.Check != nil:
		return joinOptions(f.Check.Selected)
	default:
		return ""
	}
}

func joinOptions(opts []ChoiceOption) string {
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		if o.Label != "" {
			labels = append(labels, o.Label)
		}
	}
	return strings.Join(labels, ", ")
}

// PhotoURLs collects all media URLs from every media-bearing structured
// field and the parallel flat photo list, in order, skipping any item whose
// processing failed.
func PhotoURLs(s *RawSubmission) []string {
	var urls []string

	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Media == nil {
			continue
		}
		for _, m := range f.Media.Items {
			if m.URL != "" && m.Status != MediaStatusFailed {
				urls = append(urls, m.URL)
			}
		}
	}

	for _, m := range s.Photos {
		if m.URL != "" && m.Status != MediaStatusFailed {
			urls = append(urls, m.URL)
		}
	}

	return urls
}
