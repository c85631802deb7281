package dicom

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
)

// NotFound is the text used for an attribute that could not be resolved. It
// takes part in comparisons like any other value, so a constraint can never
// be satisfied by a missing attribute unless it explicitly expects "None".
const NotFound = "None"

// multiValueSeparator joins multi-valued elements, as in the DICOM encoding.
const multiValueSeparator = `\`

// Resolve looks up id in ds and returns its canonical text. ok is false when
// the keyword is unknown or the element is absent. Resolve never fails.
func Resolve(ds dicom.Dataset, id Identifier) (string, bool) {
	t, ok := id.Tag()
	if !ok {
		return "", false
	}
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return "", false
	}
	return CanonicalText(elem.Value), true
}

// ResolveString parses label with ParseIdentifier and resolves it.
func ResolveString(ds dicom.Dataset, label string) (string, bool) {
	return Resolve(ds, ParseIdentifier(label))
}

// ResolveOrNotFound is Resolve with absence mapped to NotFound.
func ResolveOrNotFound(ds dicom.Dataset, id Identifier) string {
	if v, ok := Resolve(ds, id); ok {
		return v
	}
	return NotFound
}

// CanonicalText converts an element value to the text used for comparisons.
// Multiple values are joined with a backslash, string padding is removed and
// numbers use the shortest representation that round-trips.
func CanonicalText(v dicom.Value) string {
	switch vals := v.GetValue().(type) {
	case []string:
		out := make([]string, len(vals))
		for i, s := range vals {
			out[i] = strings.TrimRight(s, " \x00")
		}
		return strings.Join(out, multiValueSeparator)
	case []int:
		out := make([]string, len(vals))
		for i, n := range vals {
			out[i] = strconv.Itoa(n)
		}
		return strings.Join(out, multiValueSeparator)
	case []float64:
		out := make([]string, len(vals))
		for i, f := range vals {
			out[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(out, multiValueSeparator)
	case []byte:
		return hex.EncodeToString(vals)
	case []*dicom.SequenceItemValue:
		return fmt.Sprintf("Sequence(%d items)", len(vals))
	case dicom.PixelDataInfo:
		return "PixelData"
	default:
		return strings.Trim(v.String(), " []")
	}
}

// CanonicalAny converts a configuration value (decoded from JSON or YAML) to
// the same text form CanonicalText produces, so that 3 and "3" both match an
// IS element holding 3. A json.Number keeps its source text, so 5.0 matches a
// DS element holding "5.0" and not one holding "5".
func CanonicalAny(v any) string {
	switch x := v.(type) {
	case nil:
		return NotFound
	case string:
		return x
	case json.Number:
		return string(x)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) && math.Abs(x) < 1<<53 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return CanonicalAny(float64(x))
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = CanonicalAny(e)
		}
		return strings.Join(out, multiValueSeparator)
	case []string:
		return strings.Join(x, multiValueSeparator)
	default:
		return fmt.Sprint(x)
	}
}
