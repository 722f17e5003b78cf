package pattern

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultCatalog returns the built-in patterns: filename conventions of
// cameras, phones and recording software whose owners uploaded straight to
// YouTube without retitling. Callers get a fresh slice each time; patterns
// are treated as immutable once selected for a formatting operation.
func DefaultCatalog() []Pattern {
	catalog := []Pattern{
		{Name: "IMG_", Specifiers: []string{"XXXX"}},
		{Name: "IMG ", Specifiers: []string{"XXXX"}},
		{Name: "DSC_", Specifiers: []string{"XXXX"}},
		{Name: "DSCN", Specifiers: []string{"XXXX"}},
		{Name: "DSCF", Specifiers: []string{"XXXX"}},
		{Name: "MVI_", Age: AgeOld, Specifiers: []string{"XXXX"}},
		{Name: "MOV0", Age: AgeOld, Specifiers: []string{"XXXX"}},
		{Name: "MAQ0", Age: AgeOld, Specifiers: []string{"XXXX"}},
		{Name: "SDV_", Age: AgeOld, Specifiers: []string{"XXXX"}},
		{Name: "100_", Specifiers: []string{"XXXX"}},
		{Name: "SAM_", Specifiers: []string{"XXXX"}},
		{Name: "SANY", Age: AgeOld, Specifiers: []string{"XXXX"}},
		{Name: "PICT", Age: AgeOld, Specifiers: []string{"XXXX"}},
		{Name: "FILE", Specifiers: []string{"XXXX"}},
		{Name: "GOPR", Specifiers: []string{"XXXX"}, DateAfter: "2010-01-01"},
		{Name: "DJI_", Specifiers: []string{"XXXX"}, DateAfter: "2013-01-01"},
		{Name: "VID_", Specifiers: []string{"YYYYMMDD"}},
		{Name: "WIN_", Specifiers: []string{"YYYYMMDD_HH_mm_SS"}, DateAfter: "2012-10-26"},
		{Name: "WhatsApp Video ", Specifiers: []string{"YYYY-MM-DD at HH.mm.SS"}, DateAfter: "2013-01-01"},
		{Name: "Photo on ", Specifiers: []string{"YYYY-MM-DD at HH.mm"}},
		{Name: "VTS_01_", Genre: "DVD", Age: AgeOld, Specifiers: []string{"X"}},
		{Name: "My Movie", Age: AgeOld, Specifiers: []string{"", " X"}},
		{Name: "My Slideshow", Age: AgeOld, Specifiers: []string{"", " X"}},
		{Name: "Practice ", Genre: "Music", Specifiers: []string{"YYYY MM DD"}},
		{
			Name:        "trim.",
			Specifiers:  []string{"XXXXXXXX"},
			Constraints: []Constraint{{Type: ConstraintHexRange, Value: "0-4294967295"}},
			DateAfter:   "2013-09-18",
		},
		{
			Name:        "Recording-",
			Specifiers:  []string{"XX"},
			Constraints: []Constraint{{Type: ConstraintLetterRange, Value: "65-90"}},
		},
		{
			Name:        "P10",
			Age:         AgeOld,
			Specifiers:  []string{"XXXXX"},
			Constraints: []Constraint{{Type: ConstraintRange, Value: "10000-99999"}},
		},
	}
	for i := range catalog {
		catalog[i] = catalog[i].Normalize()
	}
	return catalog
}

// LoadCatalog reads extra patterns from a JSON file and appends them to the
// built-in catalog. A missing file is not an error: the built-ins alone are
// a complete catalog, the file is an operator extension point.
func LoadCatalog(path string) ([]Pattern, error) {
	catalog := DefaultCatalog()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog, nil
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var extra []Pattern
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	for _, p := range extra {
		catalog = append(catalog, p.Normalize())
	}
	return catalog, nil
}
