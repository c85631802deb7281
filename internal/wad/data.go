// Package wad implements the file-based exchange with the QC host: the data
// folder holding one study, the action configuration and the results file.
package wad

import (
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrsinham/b0spt/internal/dicom"
	sdicom "github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"
)

// SeriesSummary describes one series found in the data folder.
type SeriesSummary struct {
	UID         string
	Number      int
	Description string
	Instances   int
}

type instance struct {
	path   string
	number int
}

type series struct {
	uid         string
	number      int
	description string
	instances   []instance
}

// Data is the study found in a data folder, grouped into series.
type Data struct {
	Dir    string
	series []*series
}

// LoadData walks dir and groups every DICOM file by SeriesInstanceUID.
// DICOMDIR files are ignored and files that do not parse are skipped with a
// warning. Series are
// ordered by SeriesNumber, then by first appearance; files within a series by
// InstanceNumber, then by path.
func LoadData(dir string, log *zap.Logger) (*Data, error) {
	if log == nil {
		log = zap.NewNop()
	}

	d := &Data{Dir: dir}
	byUID := map[string]*series{}

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.EqualFold(entry.Name(), "DICOMDIR") {
			return nil
		}
		// Files without the preamble are still parsed; only what fails to
		// parse is dropped.
		ds, err := dicom.ReadHeaders(path)
		if err != nil {
			msg := "skipping unreadable file"
			if !dicom.IsDICOMFile(path) {
				msg = "skipping non-DICOM file"
			}
			log.Warn(msg, zap.String("path", path), zap.Error(err))
			return nil
		}

		uid := dicom.StringValue(ds, tag.SeriesInstanceUID)
		if uid == "" {
			uid = "dir:" + filepath.Dir(path)
		}
		s, ok := byUID[uid]
		if !ok {
			number, hasNumber := dicom.IntValue(ds, tag.SeriesNumber)
			if !hasNumber {
				number = math.MaxInt
			}
			s = &series{
				uid:         uid,
				number:      number,
				description: dicom.StringValue(ds, tag.SeriesDescription),
			}
			byUID[uid] = s
			d.series = append(d.series, s)
		}

		number, hasNumber := dicom.IntValue(ds, tag.InstanceNumber)
		if !hasNumber {
			number = math.MaxInt
		}
		s.instances = append(s.instances, instance{path: path, number: number})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk data folder: %w", err)
	}

	sort.SliceStable(d.series, func(i, j int) bool {
		return d.series[i].number < d.series[j].number
	})
	for _, s := range d.series {
		sort.SliceStable(s.instances, func(i, j int) bool {
			a, b := s.instances[i], s.instances[j]
			if a.number != b.number {
				return a.number < b.number
			}
			return a.path < b.path
		})
	}

	log.Debug("loaded data folder", zap.String("dir", dir), zap.Int("series", len(d.series)))
	return d, nil
}

// SeriesFileList returns the file paths of every series.
func (d *Data) SeriesFileList() dicom.Study {
	study := make(dicom.Study, 0, len(d.series))
	for _, s := range d.series {
		files := make(dicom.Series, len(s.instances))
		for i, inst := range s.instances {
			files[i] = inst.path
		}
		study = append(study, files)
	}
	return study
}

// AllSeries summarises every series.
func (d *Data) AllSeries() []SeriesSummary {
	out := make([]SeriesSummary, len(d.series))
	for i, s := range d.series {
		number := s.number
		if number == math.MaxInt {
			number = 0
		}
		out[i] = SeriesSummary{
			UID:         s.uid,
			Number:      number,
			Description: s.description,
			Instances:   len(s.instances),
		}
	}
	return out
}

// InstancesByTags reads the headers of every file and returns those
// matching c, in series and instance order.
func (d *Data) InstancesByTags(c dicom.Constraints) ([]sdicom.Dataset, error) {
	var out []sdicom.Dataset
	for _, s := range d.series {
		for _, inst := range s.instances {
			ds, err := dicom.ReadHeaders(inst.path)
			if err != nil {
				return nil, fmt.Errorf("read header %s: %w", inst.path, err)
			}
			if c.Match(ds) {
				out = append(out, ds)
			}
		}
	}
	return out, nil
}
