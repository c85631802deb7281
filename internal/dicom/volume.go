package dicom

import (
	"errors"
	"fmt"

	"github.com/mkmik/argsort"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrEncapsulatedPixels is returned for compressed pixel data, which the
// volume loader does not decode.
var ErrEncapsulatedPixels = errors.New("encapsulated pixel data is not supported")

// Volume is a stack of equally sized slices with their headers. Each slice
// is stored row-major with rescale slope and intercept applied.
type Volume struct {
	Rows    int
	Cols    int
	Slices  [][]float64
	Headers []dicom.Dataset
	Files   []string
}

// Depth returns the number of slices.
func (v *Volume) Depth() int {
	return len(v.Slices)
}

// Slice returns slice i (0-based).
func (v *Volume) Slice(i int) ([]float64, error) {
	if i < 0 || i >= len(v.Slices) {
		return nil, fmt.Errorf("slice index %d out of range [0,%d)", i, len(v.Slices))
	}
	return v.Slices[i], nil
}

// Info returns the header of the first slice.
func (v *Volume) Info() dicom.Dataset {
	if len(v.Headers) == 0 {
		return dicom.Dataset{}
	}
	return v.Headers[0]
}

// LoadVolume reads every file with pixel data and stacks the first frame of
// each into a Volume. Slices are ordered by InstanceNumber; files without one
// go last, in input order.
func LoadVolume(paths []string) (*Volume, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to load")
	}

	datasets := make([]dicom.Dataset, len(paths))
	instance := make([]int, len(paths))
	hasInstance := make([]bool, len(paths))
	for i, p := range paths {
		ds, err := ReadFull(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		datasets[i] = ds
		instance[i], hasInstance[i] = IntValue(ds, tag.InstanceNumber)
	}

	order := argsort.SortSlice(paths, func(i, j int) bool {
		if hasInstance[i] != hasInstance[j] {
			return hasInstance[i]
		}
		if hasInstance[i] && instance[i] != instance[j] {
			return instance[i] < instance[j]
		}
		return i < j
	})

	vol := &Volume{}
	for _, idx := range order {
		ds := datasets[idx]
		pixels, rows, cols, err := slicePixels(ds)
		if err != nil {
			return nil, fmt.Errorf("pixel data of %s: %w", describe(paths[idx], ds), err)
		}
		if vol.Depth() == 0 {
			vol.Rows, vol.Cols = rows, cols
		} else if rows != vol.Rows || cols != vol.Cols {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d", paths[idx], cols, rows, vol.Cols, vol.Rows)
		}
		vol.Slices = append(vol.Slices, pixels)
		vol.Headers = append(vol.Headers, ds)
		vol.Files = append(vol.Files, paths[idx])
	}

	return vol, nil
}

// slicePixels extracts the first frame of ds as rescaled float values.
func slicePixels(ds dicom.Dataset) ([]float64, int, int, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("find pixel data: %w", err)
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, 0, 0, fmt.Errorf("unexpected pixel data value type %v", elem.Value.ValueType())
	}
	if len(info.Frames) == 0 {
		return nil, 0, 0, fmt.Errorf("no frames in pixel data")
	}

	fr := info.Frames[0]
	if fr.Encapsulated {
		return nil, 0, 0, ErrEncapsulatedPixels
	}
	native := fr.NativeData
	if native == nil {
		return nil, 0, 0, fmt.Errorf("no native frame data")
	}

	slope, ok := FloatValue(ds, tag.RescaleSlope)
	if !ok || slope == 0 {
		slope = 1
	}
	intercept, _ := FloatValue(ds, tag.RescaleIntercept)
	pixelRepresentation, _ := IntValue(ds, tag.PixelRepresentation)
	signed := pixelRepresentation == 1
	bits := native.BitsPerSample()

	rows, cols := native.Rows(), native.Cols()
	out := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			samples, err := native.GetPixel(x, y)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("pixel (%d,%d): %w", x, y, err)
			}
			v := samples[0]
			if signed {
				v = signExtend(v, bits)
			}
			out[y*cols+x] = float64(v)*slope + intercept
		}
	}

	return out, rows, cols, nil
}

// signExtend reinterprets an unsigned sample as two's complement.
func signExtend(v, bits int) int {
	switch bits {
	case 8:
		return int(int8(uint8(v)))
	case 16:
		return int(int16(uint16(v)))
	case 32:
		return int(int32(uint32(v)))
	default:
		return v
	}
}
