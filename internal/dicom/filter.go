package dicom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom"
)

// Series is the ordered list of file paths that make up one series.
type Series []string

// Study is the ordered list of series in one examination.
type Study []Series

// HeaderReader reads a file's metadata without its pixel data.
type HeaderReader func(path string) (dicom.Dataset, error)

// Constraint requires the attribute named by ID to have the text value Want.
type Constraint struct {
	ID   Identifier
	Want string
}

// Constraints is a set of attribute constraints that must all hold.
type Constraints []Constraint

// NewConstraints builds a constraint set from a configuration mapping of
// identifier to expected value. Keys are processed in sorted order so the
// resulting set is deterministic.
func NewConstraints(filters map[string]any) Constraints {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := make(Constraints, 0, len(keys))
	for _, k := range keys {
		c = append(c, Constraint{ID: ParseIdentifier(k), Want: CanonicalAny(filters[k])})
	}
	return c
}

// Match reports whether ds satisfies every constraint. Missing attributes
// compare as NotFound.
func (c Constraints) Match(ds dicom.Dataset) bool {
	for _, con := range c {
		if ResolveOrNotFound(ds, con.ID) != con.Want {
			return false
		}
	}
	return true
}

// String renders the set as "id=value" pairs for log messages.
func (c Constraints) String() string {
	parts := make([]string, len(c))
	for i, con := range c {
		parts[i] = fmt.Sprintf("%s=%q", con.ID, con.Want)
	}
	return strings.Join(parts, ", ")
}

// FilterStudy returns, for every series in study, the files whose headers
// satisfy c. Series left without files are dropped. The order of series and
// files is preserved. A nil read uses ReadHeaders. The first read error aborts
// the whole operation.
func FilterStudy(study Study, c Constraints, read HeaderReader) (Study, error) {
	if read == nil {
		read = ReadHeaders
	}

	filtered := Study{}
	for _, series := range study {
		var kept Series
		for _, path := range series {
			ds, err := read(path)
			if err != nil {
				return nil, fmt.Errorf("read header %s: %w", path, err)
			}
			if c.Match(ds) {
				kept = append(kept, path)
			}
		}
		if len(kept) > 0 {
			filtered = append(filtered, kept)
		}
	}
	return filtered, nil
}
