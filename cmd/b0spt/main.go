package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrsinham/b0spt/internal/dicom"
	"github.com/mrsinham/b0spt/internal/spt"
	"github.com/mrsinham/b0spt/internal/wad"
)

// version is set at build time via -ldflags
var version = "dev"

// cli holds the flags and logger shared by the commands.
type cli struct {
	dataDir     string
	configPath  string
	resultsPath string
	verbose     bool

	logger *zap.Logger
	stdout io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{stdout: stdout}

	root := &cobra.Command{
		Use:   "b0spt",
		Short: "B0 shim phantom test QC module",
		Long: `b0spt selects the shim real and phase series of a B0 shim phantom test,
renders three slices of each into a figure with and without the shim magnet,
and registers the figures and the acquisition time as QC results.

The QC host calls it as:
  b0spt -d <data dir> -c <config> -r <results.json>`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if c.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger.With(zap.String("run_id", uuid.NewString()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runModule(cmd.Context())
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "Enable debug logging")

	flags := root.Flags()
	flags.StringVarP(&c.dataDir, "data", "d", "", "Folder holding the study (required)")
	flags.StringVarP(&c.configPath, "config", "c", "", "Module configuration, JSON or YAML (required)")
	flags.StringVarP(&c.resultsPath, "results", "r", "", "Results file to write (required)")
	_ = root.MarkFlagRequired("data")
	_ = root.MarkFlagRequired("config")
	_ = root.MarkFlagRequired("results")

	root.AddCommand(newPhantomCmd(c))
	return root
}

// runModule runs the configured actions and writes the results file. Nothing
// is written when an action fails.
func (c *cli) runModule(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := c.logger

	cfg, err := wad.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	data, err := wad.LoadData(c.dataDir, log)
	if err != nil {
		return err
	}
	outDir := filepath.Dir(c.resultsPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	res := wad.NewResults(c.resultsPath)

	log.Info("starting",
		zap.String("data", c.dataDir),
		zap.String("config", c.configPath),
		zap.Strings("actions", cfg.ActionNames()))

	err = spt.Run(ctx, data, cfg, res, spt.Options{
		OutputDir: outDir,
		Logger:    log,
		Report:    c.stdout,
	})
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}

	if err := res.Write(); err != nil {
		return err
	}
	log.Info("results written", zap.String("path", res.Path()), zap.Int("entries", len(res.Entries())))
	return nil
}

func newPhantomCmd(c *cli) *cobra.Command {
	opts := dicom.PhantomOptions{}

	cmd := &cobra.Command{
		Use:   "phantom",
		Short: "Write a synthetic shim phantom study",
		Long: `Writes the four shim series (real and phase, with and without the shim magnet)
of a synthetic B0 phantom test as MR DICOM files, one folder per series.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			study, err := dicom.WritePhantomStudy(opts)
			if err != nil {
				return err
			}
			files := 0
			for _, s := range study {
				files += len(s)
			}
			c.logger.Info("phantom study written",
				zap.String("dir", opts.OutputDir),
				zap.Int("series", len(study)),
				zap.Int("files", files))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d series (%d files) to %s\n", len(study), files, opts.OutputDir)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.OutputDir, "output", "o", "", "Output directory (required)")
	flags.IntVar(&opts.Slices, "slices", 5, "Slices per series")
	flags.IntVar(&opts.Size, "size", 64, "Rows and columns per slice")
	flags.Uint64Var(&opts.Seed, "seed", 0, "Seed for the noise pattern")
	flags.StringVar(&opts.PatientName, "patient-name", "PHANTOM^B0", "PatientName")
	flags.StringVar(&opts.StudyDate, "study-date", "20230414", "StudyDate (YYYYMMDD)")
	flags.StringVar(&opts.StudyTime, "study-time", "081106", "StudyTime (HHMMSS)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
