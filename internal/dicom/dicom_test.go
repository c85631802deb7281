package dicom

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// dataset builds an in-memory dataset from tag/value pairs.
func dataset(t *testing.T, pairs ...any) dicom.Dataset {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("dataset: odd number of arguments")
	}
	ds := dicom.Dataset{}
	for i := 0; i < len(pairs); i += 2 {
		tg, ok := pairs[i].(tag.Tag)
		if !ok {
			t.Fatalf("dataset: argument %d is not a tag", i)
		}
		elem, err := dicom.NewElement(tg, pairs[i+1])
		if err != nil {
			t.Fatalf("dataset: %v: %v", tg, err)
		}
		ds.Elements = append(ds.Elements, elem)
	}
	return ds
}

// testImage describes a small MR image written by writeTestFile.
type testImage struct {
	Description string
	SeriesUID   string
	Series      int
	Instance    int // 0 leaves InstanceNumber out
	Modality    string
	Rows, Cols  int
	Pixels      []uint16
	Slope       string
	Intercept   string
	Signed      bool
}

// writeTestFile writes img as a DICOM file named name in dir.
func writeTestFile(t *testing.T, dir, name string, img testImage) string {
	t.Helper()
	if img.Rows == 0 {
		img.Rows, img.Cols = 2, 2
	}
	if img.Pixels == nil {
		img.Pixels = make([]uint16, img.Rows*img.Cols)
	}
	if img.Modality == "" {
		img.Modality = "MR"
	}
	if img.SeriesUID == "" {
		img.SeriesUID = "1.2.3.4"
	}
	repr := 0
	if img.Signed {
		repr = 1
	}

	nf := frame.NewNativeFrame[uint16](16, img.Rows, img.Cols, img.Rows*img.Cols, 1)
	copy(nf.RawData, img.Pixels)

	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittle}),
		mustNewElement(tag.SOPClassUID, []string{mrImageStorage}),
		mustNewElement(tag.Modality, []string{img.Modality}),
		mustNewElement(tag.SeriesDescription, []string{img.Description}),
		mustNewElement(tag.SeriesInstanceUID, []string{img.SeriesUID}),
		mustNewElement(tag.SeriesNumber, []string{strconv.Itoa(img.Series)}),
		mustNewElement(tag.Rows, []int{img.Rows}),
		mustNewElement(tag.Columns, []int{img.Cols}),
		mustNewElement(tag.BitsAllocated, []int{16}),
		mustNewElement(tag.BitsStored, []int{16}),
		mustNewElement(tag.HighBit, []int{15}),
		mustNewElement(tag.PixelRepresentation, []int{repr}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
	}
	if img.Instance > 0 {
		elements = append(elements, mustNewElement(tag.InstanceNumber, []string{strconv.Itoa(img.Instance)}))
	}
	if img.Slope != "" {
		elements = append(elements, mustNewElement(tag.RescaleSlope, []string{img.Slope}))
	}
	if img.Intercept != "" {
		elements = append(elements, mustNewElement(tag.RescaleIntercept, []string{img.Intercept}))
	}
	elements = append(elements, mustNewElement(tag.PixelData, dicom.PixelDataInfo{
		Frames: []*frame.Frame{{NativeData: nf}},
	}))

	path := filepath.Join(dir, name)
	if err := writeDatasetToFile(path, dicom.Dataset{Elements: elements}); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestIsDICOMFile(t *testing.T) {
	dir := t.TempDir()
	dcm := writeTestFile(t, dir, "a.dcm", testImage{Description: "x"})
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !IsDICOMFile(dcm) {
		t.Errorf("IsDICOMFile(%s) = false", dcm)
	}
	if IsDICOMFile(txt) {
		t.Errorf("IsDICOMFile(%s) = true", txt)
	}
	if IsDICOMFile(filepath.Join(dir, "missing")) {
		t.Error("IsDICOMFile(missing) = true")
	}
}
