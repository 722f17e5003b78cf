package pattern

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintBounds(t *testing.T) {
	cases := []struct {
		value    string
		min, max int
		ok       bool
	}{
		{"5-10", 5, 10, true},
		{"0-0", 0, 0, true},
		{" 5 - 10 ", 5, 10, true},
		{"65-90", 65, 90, true},
		{"0-4294967295", 0, 4294967295, true},
		{"10-5", 0, 0, false},
		{"5", 0, 0, false},
		{"banana", 0, 0, false},
		{"a-b", 0, 0, false},
		{"-5-10", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		min, max, ok := Constraint{Type: ConstraintRange, Value: tc.value}.Bounds()
		assert.Equal(t, tc.ok, ok, "Bounds(%q) ok", tc.value)
		if tc.ok {
			assert.Equal(t, tc.min, min, "Bounds(%q) min", tc.value)
			assert.Equal(t, tc.max, max, "Bounds(%q) max", tc.value)
		}
	}
}

func TestNormalize(t *testing.T) {
	p := Pattern{Name: "IMG_", Age: "ancient"}.Normalize()
	assert.Equal(t, []string{""}, p.Specifiers, "empty specifier list should become a single empty specifier")
	assert.Equal(t, AgeAny, p.Age, "unknown age should reset to any")

	kept := Pattern{Name: "MVI_", Age: AgeOld, Specifiers: []string{"XXXX"}}.Normalize()
	assert.Equal(t, AgeOld, kept.Age)
	assert.Equal(t, []string{"XXXX"}, kept.Specifiers)
}

func TestPatternJSONRoundTrip(t *testing.T) {
	p := Pattern{
		ID:          "b2c6e1f0-0000-4000-8000-000000000000",
		Name:        "trim.",
		Genre:       "Phone",
		Age:         AgeNew,
		Specifiers:  []string{"XXXXXXXX"},
		Constraints: []Constraint{{Type: ConstraintHexRange, Value: "0-4294967295"}},
		DateAfter:   "2013-09-18",
		IsCustom:    true,
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got Pattern
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p, got)
}

func TestDateRange(t *testing.T) {
	ref := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	start, end := Pattern{}.DateRange(ref)
	assert.True(t, start.Equal(youTubeEpoch), "default start should anchor at the first upload")
	assert.True(t, end.Equal(ref))

	start, end = Pattern{DateAfter: "2015-06-01", DateBefore: "2016-06-01"}.DateRange(ref)
	assert.Equal(t, time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2016, time.June, 1, 0, 0, 0, 0, time.UTC), end)

	// Exact wins over both axes and pins a single day.
	start, end = Pattern{DateExact: "2015-06-07", DateAfter: "2010-01-01", DateBefore: "2020-01-01"}.DateRange(ref)
	assert.Equal(t, time.Date(2015, time.June, 7, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2015, time.June, 8, 0, 0, 0, 0, time.UTC), end)

	// Inverted range collapses to its start.
	start, end = Pattern{DateAfter: "2020-01-01", DateBefore: "2010-01-01"}.DateRange(ref)
	assert.True(t, end.Equal(start))

	// Malformed dates fall back to the defaults.
	start, end = Pattern{DateAfter: "not-a-date"}.DateRange(ref)
	assert.True(t, start.Equal(youTubeEpoch))
	assert.True(t, end.Equal(ref))
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.NotEmpty(t, catalog)

	names := make(map[string]bool, len(catalog))
	for _, p := range catalog {
		assert.NotEmpty(t, p.Specifiers, "%s must have at least one specifier", p.Name)
		assert.False(t, p.IsCustom, "%s: built-ins are never custom", p.Name)
		names[p.Name] = true
		for _, c := range p.Constraints {
			_, _, ok := c.Bounds()
			assert.True(t, ok, "%s carries an unparseable constraint %q", p.Name, c.Value)
		}
	}
	for _, want := range []string{"IMG_", "DSC_", "GOPR", "WIN_", "Recording-", "trim."} {
		assert.True(t, names[want], "catalog missing %s", want)
	}
}

func TestLoadCatalog(t *testing.T) {
	builtins := DefaultCatalog()

	got, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err, "a missing catalog file is not an error")
	assert.Len(t, got, len(builtins))

	extra := []Pattern{{Name: "CLIP_", Specifiers: []string{"XXX"}}, {Name: "REC"}}
	data, err := json.Marshal(extra)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	got, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, got, len(builtins)+2)
	assert.Equal(t, "CLIP_", got[len(builtins)].Name)
	assert.Equal(t, []string{""}, got[len(builtins)+1].Specifiers, "loaded patterns must be normalized")

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadCatalog(path)
	assert.Error(t, err)
}
