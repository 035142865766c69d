package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"exemplarfill/internal/models"
	"exemplarfill/pkg/config"
	"exemplarfill/pkg/imageio"
	"exemplarfill/pkg/inpainting"
	"exemplarfill/pkg/metrics"
	"exemplarfill/pkg/priority"
	"exemplarfill/pkg/visualization"
)

type fillOptions struct {
	imagePath     string
	maskPath      string
	outputPath    string
	configPath    string
	referencePath string
	logLevel      string
	debug         bool
}

// FillCommand inpaints the masked region of an image
func FillCommand() *cobra.Command {
	var opts fillOptions
	cfg := config.DefaultConfig()

	var command = &cobra.Command{
		Use:   "fill --image <path> --mask <path> [--output <path>]",
		Short: "Fill the white region of a mask with content from the rest of the image.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return errors.Wrapf(err, "could not load config '%v'", opts.configPath)
			}
			applyFlags(cmd, loaded, cfg)

			if opts.debug {
				loaded.Logging.Level = zerolog.DebugLevel.String()
			} else if cmd.Flags().Changed("log-level") {
				loaded.Logging.Level = opts.logLevel
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			return runFill(opts, loaded)
		},
	}

	f := command.Flags()
	f.StringVarP(&opts.imagePath, "image", "i", "", "input image path")
	f.StringVarP(&opts.maskPath, "mask", "m", "", "mask image path; white pixels are filled")
	f.StringVarP(&opts.outputPath, "output", "o", "output.png", "output image path")
	f.StringVarP(&opts.configPath, "config", "c", "exemplarfill.yaml", "YAML configuration file")
	f.StringVar(&opts.referencePath, "reference", "", "ground-truth image to report quality metrics against")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	f.BoolVar(&opts.debug, "debug", false, "debug logging level")

	f.IntVarP(&cfg.Inpainting.PatchRadius, "radius", "r", cfg.Inpainting.PatchRadius, "patch half-width w; patches are (2w+1)x(2w+1)")
	f.Float64Var(&cfg.Inpainting.Alpha, "alpha", cfg.Inpainting.Alpha, "data term normalization constant")
	f.StringVar(&cfg.Inpainting.PriorityMode, "mode", cfg.Inpainting.PriorityMode, "priority mode (product, confidence, data)")
	f.IntVarP(&cfg.Inpainting.Workers, "workers", "w", cfg.Inpainting.Workers, "number of worker goroutines")
	f.BoolVar(&cfg.Output.SaveIntermediary, "save-intermediary", cfg.Output.SaveIntermediary, "save snapshots while filling")
	f.StringVar(&cfg.Output.IntermediaryDir, "intermediary-dir", cfg.Output.IntermediaryDir, "directory for intermediary snapshots")
	f.IntVar(&cfg.Output.IntermediaryEvery, "every", cfg.Output.IntermediaryEvery, "save a snapshot every N iterations")
	f.BoolVarP(&cfg.Output.Verbose, "verbose", "v", cfg.Output.Verbose, "print progress")

	_ = command.MarkFlagRequired("image")
	_ = command.MarkFlagRequired("mask")
	return command
}

// applyFlags copies the explicitly set flag values from flags over cfg
func applyFlags(cmd *cobra.Command, cfg, flags *config.Config) {
	changed := cmd.Flags().Changed
	if changed("radius") {
		cfg.Inpainting.PatchRadius = flags.Inpainting.PatchRadius
	}
	if changed("alpha") {
		cfg.Inpainting.Alpha = flags.Inpainting.Alpha
	}
	if changed("mode") {
		cfg.Inpainting.PriorityMode = flags.Inpainting.PriorityMode
	}
	if changed("workers") {
		cfg.Inpainting.Workers = flags.Inpainting.Workers
	}
	if changed("save-intermediary") {
		cfg.Output.SaveIntermediary = flags.Output.SaveIntermediary
	}
	if changed("intermediary-dir") {
		cfg.Output.IntermediaryDir = flags.Output.IntermediaryDir
	}
	if changed("every") {
		cfg.Output.IntermediaryEvery = flags.Output.IntermediaryEvery
	}
	if changed("verbose") {
		cfg.Output.Verbose = flags.Output.Verbose
	}
}

func runFill(opts fillOptions, cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	logger := log.Logger

	im, err := imageio.LoadImage(opts.imagePath)
	if err != nil {
		return errors.Wrapf(err, "could not load image '%v'", opts.imagePath)
	}
	mask, err := imageio.LoadMask(opts.maskPath, im.Width, im.Height)
	if err != nil {
		return errors.Wrapf(err, "could not load mask '%v'", opts.maskPath)
	}
	hole := mask.Clone()

	mode, err := priority.ParseMode(cfg.Inpainting.PriorityMode)
	if err != nil {
		return err
	}

	params := &inpainting.Params{
		PatchRadius: cfg.Inpainting.PatchRadius,
		Alpha:       cfg.Inpainting.Alpha,
		Mode:        mode,
		Workers:     cfg.Inpainting.Workers,
		Logger:      &logger,
	}
	if cfg.Output.Verbose {
		params.Progress = printProgress
	}
	if cfg.Output.SaveIntermediary {
		viewer := visualization.NewViewer(cfg.Output.IntermediaryDir, cfg.Output.IntermediaryEvery, logger)
		params.Observer = viewer.Observe
	}

	log.Info().
		Str("image", opts.imagePath).
		Str("mask", opts.maskPath).
		Int("hole", hole.Count()).
		Msg("Filling image")

	start := time.Now()
	res, err := inpainting.NewInpainter(params).Inpaint(im, mask)
	if cfg.Output.Verbose {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return errors.Wrap(err, "inpainting failed")
	}

	if err := imageio.Save(imageio.ToImage(im), opts.outputPath); err != nil {
		return errors.Wrapf(err, "could not save output '%v'", opts.outputPath)
	}

	log.Info().
		Str("output", opts.outputPath).
		Int("iterations", res.Iterations).
		Int("filled", res.Filled).
		Int("candidates", res.Candidates).
		Dur("elapsed", time.Since(start)).
		Msg("Inpainting completed")

	if opts.referencePath != "" {
		return reportQuality(opts.referencePath, im, hole)
	}
	return nil
}

func printProgress(filled, total int, _ string) {
	fmt.Fprintf(os.Stderr, "\rFilled %d/%d pixels (%.1f%%)", filled, total, 100*float64(filled)/float64(total))
}

// reportQuality prints metrics of the filled region against a reference image
func reportQuality(path string, im *models.Image, hole *models.Mask) error {
	ref, err := imageio.LoadImage(path)
	if err != nil {
		return errors.Wrapf(err, "could not load reference '%v'", path)
	}
	rep, err := metrics.Compare(im, ref, hole)
	if err != nil {
		return errors.Wrap(err, "could not compare against reference")
	}

	fmt.Printf("Quality over %d filled pixels:\n", rep.Pixels)
	fmt.Printf("=======================================\n")
	fmt.Printf("Root Mean Square Error (RMSE): %.3f\n", rep.RMSE)
	fmt.Printf("Mean Absolute Error (MAE): %.3f\n", rep.MAE)
	fmt.Printf("Peak Signal-to-Noise Ratio (PSNR): %.2f dB\n", rep.PSNR)
	fmt.Printf("Structural Similarity Index (SSIM): %.3f\n", rep.SSIM)
	fmt.Printf("Mutual Information (MI): %.3f\n", rep.MI)
	fmt.Printf("Entropy Difference: %.3f\n", rep.EntropyDiff)
	return nil
}
