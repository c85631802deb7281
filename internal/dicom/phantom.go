package dicom

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/big"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mrsinham/b0spt/internal/figure"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/multierr"
)

// PhantomOptions configures WritePhantomStudy.
type PhantomOptions struct {
	OutputDir   string
	Slices      int
	Size        int
	Seed        uint64
	PatientName string
	PatientID   string
	StudyDate   string
	StudyTime   string
}

// PhantomSeries describes one series of the synthetic shim study.
type PhantomSeries struct {
	Role        string
	Description string
	ImageType   []string
	Number      int
	Magnet      bool
	Phase       bool
}

// PhantomLayout lists the four series a shim phantom test produces.
var PhantomLayout = []PhantomSeries{
	{Role: "shim_R", Description: "B0map_shim", ImageType: []string{"ORIGINAL", "PRIMARY", "R", "FFE"}, Number: 301},
	{Role: "shim_P", Description: "B0map_shim", ImageType: []string{"ORIGINAL", "PRIMARY", "P", "FFE"}, Number: 302, Phase: true},
	{Role: "shimmagnet_R", Description: "B0map_shimmagnet", ImageType: []string{"ORIGINAL", "PRIMARY", "R", "FFE"}, Number: 401, Magnet: true},
	{Role: "shimmagnet_P", Description: "B0map_shimmagnet", ImageType: []string{"ORIGINAL", "PRIMARY", "P", "FFE"}, Number: 402, Magnet: true, Phase: true},
}

const (
	mrImageStorage    = "1.2.840.10008.5.1.4.1.1.4"
	explicitVRLittle  = "1.2.840.10008.1.2.1"
	phantomBitsStored = 12
	phantomIntercept  = -2048
)

func (o *PhantomOptions) setDefaults() {
	if o.Slices <= 0 {
		o.Slices = 5
	}
	if o.Size <= 0 {
		o.Size = 64
	}
	if o.PatientName == "" {
		o.PatientName = "PHANTOM^B0"
	}
	if o.PatientID == "" {
		o.PatientID = "SPT001"
	}
	if o.StudyDate == "" {
		o.StudyDate = "20230414"
	}
	if o.StudyTime == "" {
		o.StudyTime = "081106"
	}
}

// WritePhantomStudy writes the four shim series of a synthetic B0 phantom
// test as MR images under opts.OutputDir, one subdirectory per series. It
// returns the written paths grouped by series in PhantomLayout order.
func WritePhantomStudy(opts PhantomOptions) (Study, error) {
	opts.setDefaults()
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	studyUID := deterministicUID(opts, "study")
	frameUID := deterministicUID(opts, "frame")

	study := make(Study, 0, len(PhantomLayout))
	for _, s := range PhantomLayout {
		dir := filepath.Join(opts.OutputDir, fmt.Sprintf("%d_%s", s.Number, s.Role))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create series directory: %w", err)
		}
		seriesUID := deterministicUID(opts, s.Role)

		var files Series
		for i := 0; i < opts.Slices; i++ {
			instance := i + 1
			path := filepath.Join(dir, fmt.Sprintf("IM%04d.dcm", instance))

			rng := randv2.New(randv2.NewPCG(opts.Seed, uint64(s.Number)<<16|uint64(instance)))
			nf := phantomFrame(s, opts.Size, i, opts.Slices, rng)

			elements := []*dicom.Element{
				mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittle}),
				mustNewElement(tag.SOPClassUID, []string{mrImageStorage}),
				mustNewElement(tag.SOPInstanceUID, []string{deterministicUID(opts, fmt.Sprintf("%s_%d", s.Role, instance))}),
				mustNewElement(tag.ImageType, s.ImageType),
				mustNewElement(tag.StudyDate, []string{opts.StudyDate}),
				mustNewElement(tag.SeriesDate, []string{opts.StudyDate}),
				mustNewElement(tag.AcquisitionDate, []string{opts.StudyDate}),
				mustNewElement(tag.StudyTime, []string{opts.StudyTime}),
				mustNewElement(tag.SeriesTime, []string{opts.StudyTime}),
				mustNewElement(tag.AcquisitionTime, []string{opts.StudyTime}),
				mustNewElement(tag.Modality, []string{"MR"}),
				mustNewElement(tag.Manufacturer, []string{"Philips"}),
				mustNewElement(tag.SeriesDescription, []string{s.Description}),
				mustNewElement(tag.PatientName, []string{opts.PatientName}),
				mustNewElement(tag.PatientID, []string{opts.PatientID}),
				mustNewElement(tag.ProtocolName, []string{s.Description}),
				mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
				mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
				mustNewElement(tag.SeriesNumber, []string{fmt.Sprintf("%d", s.Number)}),
				mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", instance)}),
				mustNewElement(tag.FrameOfReferenceUID, []string{frameUID}),
				mustNewElement(tag.SliceLocation, []string{fmt.Sprintf("%.1f", float64(i-opts.Slices/2)*10)}),
				mustNewElement(tag.SamplesPerPixel, []int{1}),
				mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
				mustNewElement(tag.Rows, []int{opts.Size}),
				mustNewElement(tag.Columns, []int{opts.Size}),
				mustNewElement(tag.BitsAllocated, []int{16}),
				mustNewElement(tag.BitsStored, []int{phantomBitsStored}),
				mustNewElement(tag.HighBit, []int{phantomBitsStored - 1}),
				mustNewElement(tag.PixelRepresentation, []int{0}),
				mustNewElement(tag.RescaleIntercept, []string{fmt.Sprintf("%d", phantomIntercept)}),
				mustNewElement(tag.RescaleSlope, []string{"1"}),
				mustNewElement(tag.PixelData, dicom.PixelDataInfo{
					Frames: []*frame.Frame{{Encapsulated: false, NativeData: nf}},
				}),
			}

			if err := writeDatasetToFile(path, dicom.Dataset{Elements: elements}); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
			files = append(files, path)
		}
		study = append(study, files)
	}

	return study, nil
}

// phantomFrame renders one slice of a spherical phantom in an inhomogeneous
// field. The phase series holds the wrapped field phase; the real series holds
// magnitude times its cosine. The shim magnet adds an off-centre dipole term.
func phantomFrame(s PhantomSeries, size, slice, slices int, rng *randv2.Rand) *frame.NativeFrame[uint16] {
	img := image.NewGray16(image.Rect(0, 0, size, size))

	c := float64(size-1) / 2
	radius := float64(size) * 0.42
	z := (float64(slice) - float64(slices-1)/2) / float64(slices)
	maxStored := float64(int(1)<<phantomBitsStored - 1)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := (float64(x)-c)/radius, (float64(y)-c)/radius
			r2 := dx*dx + dy*dy + z*z
			if r2 > 1 {
				img.SetGray16(x, y, color.Gray16{Y: uint16(-phantomIntercept)})
				continue
			}

			field := 6*(dx*dx-dy*dy) + 4*z*dx
			if s.Magnet {
				mx, my := dx-0.5, dy+0.3
				field += 3 / (0.15 + mx*mx + my*my)
			}
			phase := math.Remainder(field, 2*math.Pi)

			var v float64
			if s.Phase {
				v = phase / math.Pi * 2000
			} else {
				v = 1800 * (1 - 0.3*r2) * math.Cos(phase)
			}
			v += (rng.Float64() - 0.5) * 40

			stored := math.Max(0, math.Min(maxStored, v-phantomIntercept))
			img.SetGray16(x, y, color.Gray16{Y: uint16(stored)})
		}
	}

	kind := "R"
	if s.Phase {
		kind = "P"
	}
	label := fmt.Sprintf("%s%d", kind, slice+1)
	scale := math.Max(1, float64(size)/150)
	figure.DrawOutlinedText(img, 2, 2, label, scale,
		color.Gray16{Y: uint16(maxStored)}, color.Gray16{Y: 0}, 1)

	nf := frame.NewNativeFrame[uint16](16, size, size, size*size, 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			nf.RawData[y*size+x] = img.Gray16At(x, y).Y
		}
	}
	return nf
}

// deterministicUID derives a stable UID under the 2.25 (UUID) root from the
// options and a name, so repeated runs with the same seed produce the same
// identifiers.
func deterministicUID(opts PhantomOptions, name string) string {
	key := fmt.Sprintf("%s|%s|%s|%d|%s", opts.PatientID, opts.StudyDate, opts.StudyTime, opts.Seed, name)
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	return "2.25." + new(big.Int).SetBytes(u[:]).String()
}

// writeDatasetToFile writes a DICOM dataset to a file.
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	return dicom.Write(f, ds, opts...)
}

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}
