package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"shrink/internal/processor"
	"shrink/internal/tui"
	"shrink/pkg/imgutil"
)

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runWithDisplay runs the batch while a display goroutine consumes its
// progress: the Bubble Tea model on a terminal, plain lines otherwise.
func runWithDisplay(ctx context.Context, out io.Writer, opts processor.Options, plain bool) (processor.Summary, error) {
	updates := make(chan processor.ProgressUpdate, 64)
	uiDone := make(chan struct{})

	if plain || !isTerminal(out) {
		go func() {
			defer close(uiDone)
			tui.PrintPlain(out, updates)
		}()
	} else {
		program := tea.NewProgram(tui.NewModel(updates), tea.WithOutput(out), tea.WithInput(nil))
		go func() {
			defer close(uiDone)
			if _, err := program.Run(); err != nil {
				opts.Logger.Debug("progress display stopped", zap.Error(err))
			}
			// keep the batch from blocking once the display is gone
			for range updates {
			}
		}()
	}

	summary, _, err := processor.Run(ctx, opts, updates)
	close(updates)
	<-uiDone
	return summary, err
}

func printBanner(w io.Writer, opts processor.Options) {
	format := "Original"
	if opts.Format != imgutil.FormatUnknown {
		format = opts.Format.String()
	}
	rule := tui.Rule("*", 50)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "Processing images from: %s\n", opts.InputDir)
	fmt.Fprintf(w, "Target size: %s\n", opts.Size)
	fmt.Fprintf(w, "Output format: %s\n", format)
	fmt.Fprintf(w, "%s\n\n", rule)
}

func printSummary(w io.Writer, summary processor.Summary) {
	rows := []tui.SummaryRow{
		{Label: "Processed", Value: fmt.Sprintf("%d images", summary.Processed)},
		{Label: "Skipped", Value: fmt.Sprintf("%d files", summary.Skipped)},
		{Label: "Output folder", Value: summary.OutputDir},
	}
	fmt.Fprintf(w, "\n%s\n", tui.RenderSummary("Processing complete!", rows))
}
