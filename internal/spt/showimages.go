package spt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mrsinham/b0spt/internal/dicom"
	"github.com/mrsinham/b0spt/internal/figure"
	"github.com/mrsinham/b0spt/internal/wad"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"
)

// figureSpec pairs the real and phase roles shown in one figure.
type figureSpec struct {
	real   string
	phase  string
	result string
}

var figures = []figureSpec{
	{real: RoleShimR, phase: RoleShimP, result: ResultShimFigure},
	{real: RoleShimMagnetR, phase: RoleShimMagnetP, result: ResultShimMagnetFigure},
}

func runShowImages(ctx context.Context, in Input, action wad.Action, res ResultSink, opts Options, log *zap.Logger) error {
	slices, err := slicesParam(action)
	if err != nil {
		return err
	}

	volumes := map[string]*dicom.Volume{}
	study := in.SeriesFileList()
	for _, fig := range figures {
		for _, role := range []string{fig.real, fig.phase} {
			if err := ctx.Err(); err != nil {
				return err
			}
			vol, err := loadRole(study, action, role, slices, opts)
			if err != nil {
				return err
			}
			log.Debug("loaded series",
				zap.String("role", role),
				zap.Int("slices", vol.Depth()),
				zap.Int("rows", vol.Rows),
				zap.Int("cols", vol.Cols))
			volumes[role] = vol
		}
	}

	for _, fig := range figures {
		path, err := renderFigure(volumes[fig.real], volumes[fig.phase], slices, opts.OutputDir)
		if err != nil {
			return fmt.Errorf("figure %s: %w", fig.result, err)
		}
		log.Info("wrote figure", zap.String("name", fig.result), zap.String("path", path))
		if err := res.AddObject(fig.result, path); err != nil {
			return err
		}
	}
	return nil
}

// slicesParam returns the 1-based slices to show.
func slicesParam(action wad.Action) ([]int, error) {
	slices, ok, err := action.IntsParam(ParamSlices)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultSlices, nil
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("param %s: no slices given", ParamSlices)
	}
	for _, s := range slices {
		if s < 1 {
			return nil, fmt.Errorf("param %s: slice %d out of range, slices start at 1", ParamSlices, s)
		}
	}
	return slices, nil
}

// loadRole filters the study for role and loads the first matching series.
func loadRole(study dicom.Study, action wad.Action, role string, slices []int, opts Options) (*dicom.Volume, error) {
	c, ok := action.Filter(role)
	if !ok {
		return nil, fmt.Errorf("filter set %q not configured", role)
	}
	matched, err := dicom.FilterStudy(study, c, opts.ReadHeaders)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, &MissingSeriesError{Role: role}
	}

	vol, err := opts.LoadVolume(matched[0])
	if err != nil {
		return nil, fmt.Errorf("load series %q: %w", role, err)
	}
	need := 0
	for _, s := range slices {
		need = max(need, s)
	}
	if vol.Depth() < need {
		return nil, fmt.Errorf("series %q has %d slices, need at least %d", role, vol.Depth(), need)
	}
	return vol, nil
}

// renderFigure draws real slices on the top row and phase slices below,
// then writes the PNG into dir.
func renderFigure(realVol, phaseVol *dicom.Volume, slices []int, dir string) (string, error) {
	info := realVol.Info()
	patient := dicom.StringValue(info, tag.PatientName)
	description := dicom.StringValue(info, tag.SeriesDescription)
	title := strings.Join([]string{
		"B0 SPT",
		patient,
		description,
		dicom.StringValue(info, tag.StudyDate),
		dicom.StringValue(info, tag.StudyTime),
	}, " ")

	g := figure.New(2, len(slices), title)
	rows := []struct {
		label string
		vol   *dicom.Volume
	}{
		{"Real", realVol},
		{"Phase", phaseVol},
	}
	for r, row := range rows {
		for col, s := range slices {
			pixels, err := row.vol.Slice(s - 1)
			if err != nil {
				return "", err
			}
			panel := figure.Panel{
				Title:  fmt.Sprintf("%s slice %d", row.label, s),
				Width:  row.vol.Cols,
				Height: row.vol.Rows,
				Pixels: pixels,
			}
			if err := g.Set(r, col, panel); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(dir, FigureName(patient, description))
	if err := g.SavePNG(path); err != nil {
		return "", err
	}
	return path, nil
}

// FigureName returns the PNG file name for a patient and series description.
// Path separators are replaced so the name stays inside the output directory.
func FigureName(patient, description string) string {
	clean := strings.NewReplacer("/", "_", `\`, "_").Replace
	return "B0_SPT_" + clean(patient) + "_" + clean(description) + ".png"
}
