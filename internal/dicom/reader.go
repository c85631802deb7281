package dicom

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ReadHeaders parses a DICOM file and skips its pixel data.
func ReadHeaders(path string) (dicom.Dataset, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return dicom.Dataset{}, err
	}
	return ds, nil
}

// ReadFull parses a DICOM file including its pixel data.
func ReadFull(path string) (dicom.Dataset, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return dicom.Dataset{}, err
	}
	return ds, nil
}

// IsDICOMFile reports whether path starts with the DICM preamble.
func IsDICOMFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, 132)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return string(header[128:132]) == "DICM"
}

// StringValue returns the canonical text of t, or "" when absent.
func StringValue(ds dicom.Dataset, t tag.Tag) string {
	v, _ := Resolve(ds, TagIdentifier(t))
	return v
}

// IntValue parses the first value of t as an integer.
func IntValue(ds dicom.Dataset, t tag.Tag) (int, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return 0, false
	}
	switch vals := elem.Value.GetValue().(type) {
	case []int:
		if len(vals) > 0 {
			return vals[0], true
		}
	case []string:
		if len(vals) > 0 {
			n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// FloatValue parses the first value of t as a float. Decimal strings (DS)
// are accepted as well as binary floats.
func FloatValue(ds dicom.Dataset, t tag.Tag) (float64, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return 0, false
	}
	switch vals := elem.Value.GetValue().(type) {
	case []float64:
		if len(vals) > 0 {
			return vals[0], true
		}
	case []int:
		if len(vals) > 0 {
			return float64(vals[0]), true
		}
	case []string:
		if len(vals) > 0 {
			f, err := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// describe returns a short "path (SeriesDescription)" label for errors.
func describe(path string, ds dicom.Dataset) string {
	if d := StringValue(ds, tag.SeriesDescription); d != "" {
		return fmt.Sprintf("%s (%s)", path, d)
	}
	return path
}
