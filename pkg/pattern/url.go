package pattern

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vantol/trawler/pkg/distribution"
)

const (
	resultsURL = "https://www.youtube.com/results"

	// sortByUploadDate is YouTube's packed "sp" filter value for sorting
	// results by upload date. Always appended so the oldest hits surface.
	sortByUploadDate = "CAISAhAB"
)

var fourDigitRe = regexp.MustCompile(`\d{4}`)

// SearchURL fills the specifier for the pattern and formats the result with
// BuildURL. Callers that need the filled term as well must call Fill once and
// pass the term to BuildURL themselves; filling here and separately for
// display would produce two different random terms.
func (g *Generator) SearchURL(p Pattern, specifier string, ref time.Time, dateOverride bool, cfg *distribution.Config) string {
	return BuildURL(p, specifier, g.Fill(specifier, p, ref, cfg), ref, dateOverride)
}

// BuildURL wraps an already-filled term in double quotes to force an
// exact-phrase match, attaches an upload-date filter per the precedence rules
// in dateFilter, and returns the complete results URL. It never fails; the
// worst malformed pattern yields a plain quoted search with no date filter.
func BuildURL(p Pattern, specifier, term string, ref time.Time, dateOverride bool) string {
	query := `"` + term + `"`
	if filter := dateFilter(p, specifier, term, ref, dateOverride); filter != "" {
		query += " " + filter
	}
	v := url.Values{}
	v.Set("search_query", query)
	v.Set("sp", sortByUploadDate)
	return resultsURL + "?" + v.Encode()
}

// dateFilter derives the upload-date filter for a filled search term.
//
// Precedence: an explicit override always wins and uses the supplied date.
// A specifier containing YYYY filters after the year that was actually
// filled in, extracted from the term, which may differ from ref's year when
// constraints randomized it. Then come the pattern's explicit date fields,
// exact before before/after. The age hint is the last resort: "old" filters
// before the reference date, "new" and unset add nothing.
//
// Only the override path zero-pads month and day; the others emit the bare
// numbers, matching what existing saved searches contain.
func dateFilter(p Pattern, specifier, term string, ref time.Time, override bool) string {
	if override {
		return fmt.Sprintf("before:%d-%02d-%02d", ref.Year(), int(ref.Month()), ref.Day())
	}
	if strings.Contains(specifier, "YYYY") {
		if year := fourDigitRe.FindString(term); year != "" {
			return fmt.Sprintf("after:%s-%d-%d", year, int(ref.Month()), ref.Day())
		}
		return ""
	}
	if p.DateExact != "" {
		if d, err := time.Parse(isoDate, p.DateExact); err == nil {
			next := d.AddDate(0, 0, 1)
			return fmt.Sprintf("after:%d-%d-%d before:%d-%d-%d",
				d.Year(), int(d.Month()), d.Day(),
				next.Year(), int(next.Month()), next.Day())
		}
	}
	if p.DateAfter != "" || p.DateBefore != "" {
		var parts []string
		if d, err := time.Parse(isoDate, p.DateAfter); err == nil && p.DateAfter != "" {
			parts = append(parts, fmt.Sprintf("after:%d-%d-%d", d.Year(), int(d.Month()), d.Day()))
		}
		if d, err := time.Parse(isoDate, p.DateBefore); err == nil && p.DateBefore != "" {
			parts = append(parts, fmt.Sprintf("before:%d-%d-%d", d.Year(), int(d.Month()), d.Day()))
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if p.Age == AgeOld {
		return fmt.Sprintf("before:%d-%d-%d", ref.Year(), int(ref.Month()), ref.Day())
	}
	return ""
}
