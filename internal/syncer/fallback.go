package syncer

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/grantfleet/yardwatch/internal/derive"
	"github.com/grantfleet/yardwatch/internal/extract"
	"github.com/grantfleet/yardwatch/internal/normalize"
	"github.com/grantfleet/yardwatch/internal/upstream"
)

// Fallback synthesizes plausible submissions when the upstream source is
// unreachable. Each invocation yields zero or one record: roughly 40% of
// runs produce nothing, the rest split evenly between drops and picks, with
// picks biased toward trailers currently open so the synthetic stream stays
// coherent.
type Fallback struct {
	dropTemplateID string
	pickTemplateID string
	rng            *rand.Rand
	clock          normalize.Clock
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithRand sets the random source (for deterministic tests).
func WithRand(rng *rand.Rand) FallbackOption {
	return func(f *Fallback) { f.rng = rng }
}

// WithFallbackClock sets the clock (for testing).
func WithFallbackClock(clock normalize.Clock) FallbackOption {
	return func(f *Fallback) { f.clock = clock }
}

// NewFallback creates a generator emitting records of the two known form
// templates.
func NewFallback(dropTemplateID, pickTemplateID string, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		dropTemplateID: dropTemplateID,
		pickTemplateID: pickTemplateID,
		rng:            rand.New(rand.NewSource(rand.Int63())),
		clock:          normalize.DefaultClock,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Page synthesizes one terminal page. HasNextPage is always false so the
// fetch loop ends after a fallback page.
func (f *Fallback) Page(open []derive.TrailerState) *upstream.Page {
	page := &upstream.Page{
		Pagination: upstream.Pagination{HasNextPage: false},
	}

	if f.rng.Float64() < 0.4 {
		return page
	}

	isDrop := f.rng.Float64() < 0.5
	templateID := f.pickTemplateID
	trailer := generatedTrailerNumber(f.rng)
	location := "En Route"
	if isDrop {
		templateID = f.dropTemplateID
		location = "Distribution Center"
	} else if len(open) > 0 {
		trailer = open[f.rng.Intn(len(open))].ID
	}

	sub := extract.RawSubmission{
		ID:             uuid.NewString(),
		FormTemplateID: templateID,
		Driver:         &extract.RawDriver{Name: "Simulated Driver"},
		TrailerNumber:  trailer,
		Location:       mustJSONString(location),
		SubmittedAt:    f.clock.Now().UTC().Format(time.RFC3339),
	}

	page.Data = append(page.Data, sub)
	return page
}

func generatedTrailerNumber(rng *rand.Rand) string {
	return "TRL-" + strconv.Itoa(100+rng.Intn(900))
}

func mustJSONString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
