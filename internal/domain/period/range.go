package period

import (
	"time"

	"github.com/homeledger/taxengine/internal/domain/shared"
)

// Range is an inclusive date range. A nil bound is unbounded on that side.
type Range struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// NewRange validates and builds a range. End before start is an InvalidRange error.
func NewRange(start, end *time.Time) (Range, error) {
	if start != nil && end != nil && end.Before(*start) {
		return Range{}, shared.NewInvalidRangeError("range end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	r := Range{}
	if start != nil {
		s := *start
		r.Start = &s
	}
	if end != nil {
		e := *end
		r.End = &e
	}
	return r, nil
}

// Unbounded returns a range that contains every instant.
func Unbounded() Range {
	return Range{}
}

// Contains reports start <= t <= end.
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// IsBounded reports whether both ends are set.
func (r Range) IsBounded() bool {
	return r.Start != nil && r.End != nil
}
