package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"shrink/internal/processor"
	"shrink/pkg/imgutil"
)

type settings struct {
	inputDir  string
	outputDir string
	size      sizeValue
	format    string
	filter    string
	quality   int
	maxPixels int
	plain     bool
	verbose   bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	s := &settings{size: sizeValue{size: processor.Size{Width: 800, Height: 600}}}

	cmd := &cobra.Command{
		Use:   "shrink [flags]",
		Short: "shrink - batch image resizer and converter",
		Long: "shrink resizes every image in a folder to fit within a bounding box, " +
			"keeping its aspect ratio, and optionally converts it to another format.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          s.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&s.inputDir, "input", "i", "input", "input folder containing images")
	flags.StringVarP(&s.outputDir, "output", "o", "output", "output folder for processed images")
	flags.VarP(&s.size, "size", "s", "target size (width height)")
	flags.StringVarP(&s.format, "format", "f", "", "output format ("+strings.Join(imgutil.Names(), ", ")+"; jpg is an alias of jpeg)")
	flags.StringVar(&s.filter, "filter", processor.DefaultFilter, "resample filter ("+strings.Join(processor.FilterNames(), ", ")+")")
	flags.IntVarP(&s.quality, "quality", "q", 0, "jpeg/webp quality 1-100, 0 uses the format default")
	flags.IntVar(&s.maxPixels, "max-pixels", processor.DefaultMaxPixels, "refuse images with more pixels than this, 0 disables the check")
	flags.BoolVar(&s.plain, "plain", false, "print plain lines even on a terminal")
	flags.BoolVarP(&s.verbose, "verbose", "v", false, "log diagnostics to stderr")

	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return cmd
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (s *settings) run(cmd *cobra.Command, args []string) error {
	if err := s.applyEnv(cmd.Flags()); err != nil {
		return err
	}
	if err := s.size.takeHeight(args); err != nil {
		return err
	}
	opts, err := s.options()
	if err != nil {
		return err
	}

	logger := newLogger(s.verbose)
	defer func() { _ = logger.Sync() }()
	opts.Logger = logger

	out := cmd.OutOrStdout()
	printBanner(out, opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	summary, err := runWithDisplay(ctx, out, opts, s.plain)
	if err != nil {
		return err
	}
	printSummary(out, summary)
	return nil
}

func (s *settings) options() (processor.Options, error) {
	opts := processor.Options{
		InputDir:  s.inputDir,
		OutputDir: s.outputDir,
		Size:      s.size.size,
		Filter:    s.filter,
		Quality:   s.quality,
		MaxPixels: s.maxPixels,
	}

	if s.format != "" {
		format, err := imgutil.ParseFormat(s.format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	if _, err := processor.ParseFilter(s.filter); err != nil {
		return opts, err
	}
	if s.quality < 0 || s.quality > 100 {
		return opts, fmt.Errorf("--quality must be between 0 and 100, got %d", s.quality)
	}
	if s.maxPixels < 0 {
		return opts, fmt.Errorf("--max-pixels must not be negative, got %d", s.maxPixels)
	}
	return opts, nil
}
