package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vantol/trawler/pkg/distribution"
)

// maxRunDigits caps the default numeric range of a filler run so 10^n stays
// inside an int64. Longer runs still produce n characters, just from the
// capped range, left-padded like everything else.
const maxRunDigits = 18

var fillerRunRe = regexp.MustCompile(`X+`)

// Generator expands specifier templates and formats search URLs. It owns the
// random sampler, so seeding the sampler makes the whole pipeline
// deterministic for tests.
type Generator struct {
	sampler *distribution.Sampler
}

// NewGenerator returns a Generator drawing from s. A nil sampler gets a
// time-seeded one.
func NewGenerator(s *distribution.Sampler) *Generator {
	if s == nil {
		s = distribution.NewSampler()
	}
	return &Generator{sampler: s}
}

// Sampler exposes the generator's random source for the live-preview
// endpoints, which draw from the same stream as actual fills.
func (g *Generator) Sampler() *distribution.Sampler {
	return g.sampler
}

// Fill expands a specifier template into concrete text for the given pattern
// and reference date, returning the pattern name with the filled specifier
// appended (no separator is inserted; authors embed their own).
//
// Token passes run in a fixed order: YYYY, Month, Mon, MM, DD, HH, mm, SS,
// then maximal runs of X. "Month" and "Mon" must be replaced before the
// two-letter MM pass or a literal "Month" in a template would be corrupted;
// no token's replacement text can be re-matched by a later pass. Unknown
// tokens pass through untouched.
//
// cfg optionally shapes the random filler values; when nil, runs are filled
// with plain uniform draws.
func (g *Generator) Fill(template string, p Pattern, ref time.Time, cfg *distribution.Config) string {
	if template == "" {
		return p.Name
	}
	out := template
	out = strings.ReplaceAll(out, "YYYY", fmt.Sprintf("%04d", ref.Year()))
	out = strings.ReplaceAll(out, "Month", ref.Month().String())
	out = strings.ReplaceAll(out, "Mon", ref.Format("Jan"))
	out = strings.ReplaceAll(out, "MM", fmt.Sprintf("%02d", int(ref.Month())))
	out = strings.ReplaceAll(out, "DD", fmt.Sprintf("%02d", ref.Day()))
	out = strings.ReplaceAll(out, "HH", fmt.Sprintf("%02d", ref.Hour()))
	out = strings.ReplaceAll(out, "mm", fmt.Sprintf("%02d", ref.Minute()))
	out = strings.ReplaceAll(out, "SS", fmt.Sprintf("%02d", ref.Second()))
	out = fillerRunRe.ReplaceAllStringFunc(out, func(run string) string {
		return g.fillRun(len(run), p.Constraints, cfg)
	})
	return p.Name + out
}

// fillRun generates the replacement for one maximal run of n filler
// characters. The default range covers every n-digit decimal value. When the
// pattern carries range constraints, the last valid one in declaration order
// governs every run in the specifier; there is no per-run scoping. That is
// long-standing observed behavior (see the pinning test), so it stays until
// the product semantics are revisited.
func (g *Generator) fillRun(n int, constraints []Constraint, cfg *distribution.Config) string {
	min, max := 0, pow10(n)-1
	kind := ""
	for _, c := range constraints {
		switch c.Type {
		case ConstraintRange, ConstraintLetterRange, ConstraintHexRange:
			lo, hi, ok := c.Bounds()
			if !ok {
				// Malformed value: ignored, default range stands.
				continue
			}
			min, max, kind = lo, hi, c.Type
		}
	}

	var text string
	if kind == ConstraintLetterRange {
		// One character code per filler position, so a run of n produces n
		// letters rather than a single padded character.
		var b strings.Builder
		b.Grow(n)
		for i := 0; i < n; i++ {
			b.WriteRune(rune(g.draw(min, max, cfg)))
		}
		text = b.String()
	} else {
		v := g.draw(min, max, cfg)
		if kind == ConstraintHexRange {
			text = strings.ToUpper(strconv.FormatInt(int64(v), 16))
		} else {
			text = strconv.Itoa(v)
		}
	}

	// Every run is left-padded with "0" to its literal width, hex included.
	if len(text) < n {
		text = strings.Repeat("0", n-len(text)) + text
	}
	return text
}

func (g *Generator) draw(min, max int, cfg *distribution.Config) int {
	if cfg == nil {
		return g.sampler.Uniform(min, max)
	}
	return g.sampler.ConstrainedInt(min, max, *cfg, distribution.DefaultMaxAttempts)
}

func pow10(n int) int {
	if n > maxRunDigits {
		n = maxRunDigits
	}
	v := 1
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
