// Package spt runs the B0 shim phantom test actions against one study.
package spt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mrsinham/b0spt/internal/dicom"
	"github.com/mrsinham/b0spt/internal/wad"
	sdicom "github.com/suyashkumar/dicom"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Action names.
const (
	ActionAcqDateTime = "acqdatetime"
	ActionShowImages  = "showimages"
)

// Filter set and parameter names.
const (
	FilterDateTime = "datetime_filter"
	ParamSlices    = "slices"
)

// Series roles of the showimages action.
const (
	RoleShimR       = "shim_R"
	RoleShimP       = "shim_P"
	RoleShimMagnetR = "shimmagnet_R"
	RoleShimMagnetP = "shimmagnet_P"
)

// Result names.
const (
	ResultAcqDateTime      = "AcquisitionDateTime"
	ResultShimFigure       = "B0_SPT_SHIM_figure"
	ResultShimMagnetFigure = "B0_SPT_SHIM_MAGNET_figure"
)

// DefaultSlices are the 1-based slices shown when no slices parameter is set.
var DefaultSlices = []int{2, 3, 4}

// ErrSeriesNotFound is wrapped by MissingSeriesError.
var ErrSeriesNotFound = errors.New("required series not found")

// MissingSeriesError reports a role whose filter matched no file.
type MissingSeriesError struct {
	Role string
}

func (e *MissingSeriesError) Error() string {
	return fmt.Sprintf("required series %q not found", e.Role)
}

func (e *MissingSeriesError) Unwrap() error {
	return ErrSeriesNotFound
}

// Input is the study the actions run against.
type Input interface {
	SeriesFileList() dicom.Study
	AllSeries() []wad.SeriesSummary
	InstancesByTags(c dicom.Constraints) ([]sdicom.Dataset, error)
}

// ResultSink receives the results of a run.
type ResultSink interface {
	AddDateTime(name string, t time.Time) error
	AddObject(name, path string) error
}

// Options tunes a run. The zero value writes figures to the working
// directory and logs nothing.
type Options struct {
	OutputDir   string
	Logger      *zap.Logger
	Report      io.Writer
	ReadHeaders dicom.HeaderReader
	LoadVolume  func(paths []string) (*dicom.Volume, error)
}

func (o *Options) setDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Report == nil {
		o.Report = io.Discard
	}
	if o.ReadHeaders == nil {
		o.ReadHeaders = dicom.ReadHeaders
	}
	if o.LoadVolume == nil {
		o.LoadVolume = dicom.LoadVolume
	}
}

// Run reports the series found in the study and executes the configured
// actions in name order. Unknown actions are skipped. The first failing
// action stops the run.
func Run(ctx context.Context, in Input, cfg wad.Config, res ResultSink, opts Options) error {
	opts.setDefaults()
	log := opts.Logger

	if err := report(opts.Report, in.AllSeries()); err != nil {
		return fmt.Errorf("write series report: %w", err)
	}
	for _, w := range cfg.Validate() {
		log.Warn("suspicious filter", zap.String("warning", w))
	}

	for _, name := range cfg.ActionNames() {
		if err := ctx.Err(); err != nil {
			return err
		}

		action := cfg.Actions[name]
		log := log.With(zap.String("action", name))

		var err error
		switch name {
		case ActionAcqDateTime:
			err = runAcqDateTime(in, action, res, log)
		case ActionShowImages:
			err = runShowImages(ctx, in, action, res, opts, log)
		default:
			log.Warn("skipping unknown action")
			continue
		}
		if err != nil {
			return fmt.Errorf("action %s: %w", name, err)
		}
		log.Info("action done")
	}
	return nil
}

// report prints the series inventory.
func report(w io.Writer, series []wad.SeriesSummary) error {
	p := message.NewPrinter(language.English)
	if _, err := p.Fprintf(w, "The following series are found:\n"); err != nil {
		return err
	}
	for _, s := range series {
		if _, err := p.Fprintf(w, "%s with %d instances\n", s.Description, s.Instances); err != nil {
			return err
		}
	}
	return nil
}

func runAcqDateTime(in Input, action wad.Action, res ResultSink, log *zap.Logger) error {
	c, ok := action.Filter(FilterDateTime)
	if !ok {
		return fmt.Errorf("filter set %q not configured", FilterDateTime)
	}
	matched, err := in.InstancesByTags(c)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return fmt.Errorf("datetime series not found: %w", ErrSeriesNotFound)
	}

	dt, err := dicom.AcquisitionDateTime(matched[0])
	if err != nil {
		return err
	}
	log.Debug("acquisition datetime", zap.Time("datetime", dt), zap.Stringer("filter", c))
	return res.AddDateTime(ResultAcqDateTime, dt)
}
