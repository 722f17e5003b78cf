package pattern

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantol/trawler/pkg/distribution"
)

func testGenerator() *Generator {
	return NewGenerator(distribution.NewSeededSampler(51, 52))
}

var testRef = time.Date(2024, time.March, 5, 9, 7, 3, 0, time.UTC)

func TestFillDateTokens(t *testing.T) {
	g := testGenerator()
	p := Pattern{Name: "WIN_"}

	got := g.Fill("YYYYMMDD_HH_mm_SS", p, testRef, nil)
	assert.Equal(t, "WIN_20240305_09_07_03", got)

	got = g.Fill("YYYY-MM-DD at HH.mm.SS", Pattern{Name: "WhatsApp Video "}, testRef, nil)
	assert.Equal(t, "WhatsApp Video 2024-03-05 at 09.07.03", got)
}

func TestFillMonthTokens(t *testing.T) {
	g := testGenerator()

	got := g.Fill("Month Mon", Pattern{}, testRef, nil)
	assert.Equal(t, "March Mar", got)

	// "Month" must be consumed whole; a "Mon" pass running first would
	// mangle it into "Marth".
	got = g.Fill("Month", Pattern{}, testRef, nil)
	assert.Equal(t, "March", got)
}

func TestFillEmptyTemplate(t *testing.T) {
	g := testGenerator()
	assert.Equal(t, "My Movie", g.Fill("", Pattern{Name: "My Movie"}, testRef, nil))
}

func TestFillUnknownTokensPassThrough(t *testing.T) {
	g := testGenerator()
	got := g.Fill("QQ-##-zz", Pattern{Name: "P_"}, testRef, nil)
	assert.Equal(t, "P_QQ-##-zz", got)
}

func TestFillRunWidth(t *testing.T) {
	g := testGenerator()
	for _, width := range []int{1, 2, 4, 8} {
		template := strings.Repeat("X", width)
		for i := 0; i < 200; i++ {
			got := g.Fill(template, Pattern{}, testRef, nil)
			require.Len(t, got, width, "run %q produced %q", template, got)
			v, err := strconv.Atoi(got)
			require.NoError(t, err, "run output %q is not numeric", got)
			require.GreaterOrEqual(t, v, 0)
		}
	}
}

func TestFillLongRunStaysFinite(t *testing.T) {
	g := testGenerator()
	got := g.Fill(strings.Repeat("X", 25), Pattern{}, testRef, nil)
	assert.Len(t, got, 25)
	assert.Regexp(t, regexp.MustCompile(`^\d{25}$`), got)
}

func TestFillRangeConstraint(t *testing.T) {
	g := testGenerator()
	p := Pattern{Constraints: []Constraint{{Type: ConstraintRange, Value: "10000-99999"}}}
	for i := 0; i < 200; i++ {
		got := g.Fill("XXXXX", p, testRef, nil)
		v, err := strconv.Atoi(got)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 10000)
		require.LessOrEqual(t, v, 99999)
	}
}

func TestFillLetterRange(t *testing.T) {
	g := testGenerator()
	p := Pattern{
		Name:        "Recording-",
		Constraints: []Constraint{{Type: ConstraintLetterRange, Value: "65-90"}},
	}
	letterRe := regexp.MustCompile(`^Recording-[A-Z]{2}$`)
	seen := make(map[string]bool)
	for i := 0; i < 300; i++ {
		got := g.Fill("XX", p, testRef, nil)
		require.Regexp(t, letterRe, got)
		seen[got] = true
	}
	// Each position draws independently, so the output space is far larger
	// than 26 values.
	assert.Greater(t, len(seen), 26)
}

func TestFillHexRange(t *testing.T) {
	g := testGenerator()
	p := Pattern{
		Name:        "trim.",
		Constraints: []Constraint{{Type: ConstraintHexRange, Value: "0-4294967295"}},
	}
	hexRe := regexp.MustCompile(`^trim\.[0-9A-F]{8}$`)
	for i := 0; i < 200; i++ {
		got := g.Fill("XXXXXXXX", p, testRef, nil)
		require.Regexp(t, hexRe, got)
	}

	// Small hex values pad to the run width like decimals do.
	narrow := Pattern{Constraints: []Constraint{{Type: ConstraintHexRange, Value: "10-10"}}}
	assert.Equal(t, "0A", g.Fill("XX", narrow, testRef, nil))
}

// TestFillLastConstraintWins pins the observed behavior that with multiple
// range constraints, the last valid one governs every run in the specifier.
func TestFillLastConstraintWins(t *testing.T) {
	g := testGenerator()
	p := Pattern{Constraints: []Constraint{
		{Type: ConstraintRange, Value: "1-3"},
		{Type: ConstraintHexRange, Value: "10-10"},
	}}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "0A", g.Fill("XX", p, testRef, nil))
	}
}

func TestFillMalformedConstraintIgnored(t *testing.T) {
	g := testGenerator()
	p := Pattern{Constraints: []Constraint{
		{Type: ConstraintHexRange, Value: "banana"},
		{Type: "mystery", Value: "1-2"},
	}}
	for i := 0; i < 100; i++ {
		got := g.Fill("XXX", p, testRef, nil)
		require.Regexp(t, regexp.MustCompile(`^\d{3}$`), got)
	}
}

func TestFillWithDistribution(t *testing.T) {
	g := testGenerator()
	cfg := &distribution.Config{Type: distribution.TypeBell, Center: 0.5, Spread: 0.2}
	for i := 0; i < 200; i++ {
		got := g.Fill("XXXX", Pattern{Name: "IMG_"}, testRef, cfg)
		require.Regexp(t, regexp.MustCompile(`^IMG_\d{4}$`), got)
	}
}

func TestFillMultipleRuns(t *testing.T) {
	g := testGenerator()
	got := g.Fill("XX-XXX", Pattern{}, testRef, nil)
	assert.Regexp(t, regexp.MustCompile(`^\d{2}-\d{3}$`), got)
}

func TestNewGeneratorNilSampler(t *testing.T) {
	g := NewGenerator(nil)
	require.NotNil(t, g.Sampler())
	assert.Len(t, g.Fill("XXXX", Pattern{}, testRef, nil), 4)
}
