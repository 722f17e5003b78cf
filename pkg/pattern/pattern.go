package pattern

import (
	"strconv"
	"strings"
	"time"
)

// Age hint values. An age biases the default date filter when a pattern
// carries no explicit date constraint.
const (
	AgeAny = ""
	AgeNew = "new"
	AgeOld = "old"
)

// Constraint types. Letter ranges are specified as character-code bounds,
// not letter indexes.
const (
	ConstraintRange       = "range"
	ConstraintLetterRange = "letter-range"
	ConstraintHexRange    = "hex-range"
)

// isoDate is the layout for the pattern's explicit date fields.
const isoDate = "2006-01-02"

// youTubeEpoch is the day the first video was uploaded. No upload date can
// sensibly precede it, so it anchors open-ended date ranges.
var youTubeEpoch = time.Date(2005, time.April, 23, 0, 0, 0, 0, time.UTC)

// Constraint narrows how a filler run's value is generated. Value holds a
// "min-max" integer pair.
type Constraint struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Bounds parses the "min-max" value. ok is false when the value is
// unparseable or inverted; callers then fall back to the default range for
// the placeholder, per the silent-fallback policy.
func (c Constraint) Bounds() (min, max int, ok bool) {
	lo, hi, found := strings.Cut(c.Value, "-")
	if !found {
		return 0, 0, false
	}
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, false
	}
	max, err = strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, false
	}
	if min > max {
		return 0, 0, false
	}
	return min, max, true
}

// Pattern is a named, reusable template for generating search queries. All
// fields are primitives or flat slices so a Pattern round-trips losslessly
// through JSON, which the store and the import/export endpoints rely on.
type Pattern struct {
	// ID is assigned by the store for custom patterns; built-ins leave it empty.
	ID string `json:"id,omitempty"`

	// Name is display text prepended verbatim to the filled specifier. Any
	// separator (space, underscore) must be part of the name or specifier.
	Name string `json:"name"`

	// Genre is a free-text category label; empty means uncategorized.
	Genre string `json:"genre"`

	// Age is one of AgeAny, AgeNew, AgeOld.
	Age string `json:"age"`

	// Specifiers are the selectable template strings. Never empty: a pattern
	// with no specifier carries a single "".
	Specifiers []string `json:"specifiers"`

	// Constraints apply to filler-character runs in every specifier.
	Constraints []Constraint `json:"constraints,omitempty"`

	// DateBefore, DateAfter and DateExact are optional ISO dates. Exact takes
	// precedence over before/after; before and after are independent axes.
	DateBefore string `json:"dateBefore,omitempty"`
	DateAfter  string `json:"dateAfter,omitempty"`
	DateExact  string `json:"dateExact,omitempty"`

	// IsCustom marks user-authored patterns. It only affects pool membership
	// management, never the filling or formatting logic.
	IsCustom bool `json:"isCustom,omitempty"`
}

// Normalize enforces the structural invariants a Pattern must satisfy before
// use: at least one specifier (possibly empty) and a known age value.
func (p Pattern) Normalize() Pattern {
	if len(p.Specifiers) == 0 {
		p.Specifiers = []string{""}
	}
	if p.Age != AgeNew && p.Age != AgeOld {
		p.Age = AgeAny
	}
	return p
}

// DateRange resolves the span a sampled upload date may fall in, used by the
// date live-preview. DateExact pins both ends to a single day and wins over
// the other two; otherwise each axis defaults independently, to the YouTube
// epoch on the left and the reference date on the right. Unparseable dates
// are ignored like any other malformed constraint.
func (p Pattern) DateRange(ref time.Time) (start, end time.Time) {
	start, end = youTubeEpoch, ref
	if p.DateExact != "" {
		if d, err := time.Parse(isoDate, p.DateExact); err == nil {
			return d, d.AddDate(0, 0, 1)
		}
	}
	if p.DateAfter != "" {
		if d, err := time.Parse(isoDate, p.DateAfter); err == nil {
			start = d
		}
	}
	if p.DateBefore != "" {
		if d, err := time.Parse(isoDate, p.DateBefore); err == nil {
			end = d
		}
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}
