package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"shrink/pkg/imgutil"
)

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".gif"}

// Supported reports whether name carries one of the accepted extensions.
func Supported(name string) bool {
	return lo.Contains(supportedExtensions, strings.ToLower(extOf(name)))
}

// Run shrinks every supported image directly inside opts.InputDir into
// opts.OutputDir, one file at a time. Per-file failures are counted as
// skipped; only setup errors, a failed directory listing or a cancelled
// ctx are returned.
func Run(ctx context.Context, opts Options, updates chan<- ProgressUpdate) (Summary, []Result, error) {
	summary := Summary{OutputDir: opts.OutputDir}
	var results []Result

	if !opts.Size.Valid() {
		return summary, nil, fmt.Errorf("%w: %s", ErrInvalidSize, opts.Size)
	}
	filter, err := ParseFilter(opts.Filter)
	if err != nil {
		return summary, nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return summary, nil, err
	}
	if abs, absErr := filepath.Abs(opts.OutputDir); absErr == nil {
		summary.OutputDir = abs
	}

	entries, err := os.ReadDir(opts.InputDir)
	if err != nil {
		return summary, nil, err
	}

	var jobs []Job
	for _, entry := range entries {
		path := filepath.Join(opts.InputDir, entry.Name())
		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			mode = info.Mode()
		}
		if !mode.IsRegular() {
			continue
		}
		jobs = append(jobs, Job{Path: path, Name: entry.Name()})
	}
	send(updates, ProgressUpdate{TotalDelta: len(jobs)})

	w := worker{opts: opts, filter: filter, logger: logger}
	for _, job := range jobs {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return summary, results, err
			}
		}

		res := w.process(job)
		update := ProgressUpdate{Line: res.Line()}
		if res.Status == StatusProcessed {
			summary.Processed++
			update.ProcessedDelta = 1
		} else {
			summary.Skipped++
			update.SkippedDelta = 1
		}
		send(updates, update)
		results = append(results, res)
	}

	logger.Debug("batch done",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.String("output", summary.OutputDir),
	)
	return summary, results, nil
}

func send(updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates != nil {
		updates <- u
	}
}

type worker struct {
	opts   Options
	filter imaging.ResampleFilter
	logger *zap.Logger
}

func (w worker) process(job Job) Result {
	res := Result{Name: job.Name}
	log := w.logger.With(zap.String("file", job.Name))

	if !Supported(job.Name) {
		res.Status = StatusUnsupported
		log.Debug("unsupported extension")
		return res
	}

	img, srcFormat, err := openImage(job.Path, w.opts.MaxPixels)
	if err != nil {
		return w.fail(log, res, StageDecode, err)
	}
	res.Format = srcFormat
	res.From = img.Bounds().Size()

	img = Fit(img, w.opts.Size, w.filter)
	img = Convert(img, w.opts.Format)
	res.To = img.Bounds().Size()

	saveFormat := w.opts.Format
	if saveFormat == imgutil.FormatUnknown {
		saveFormat = srcFormat
	}
	res.Output = outputName(job.Name, w.opts.Format)
	dest := filepath.Join(w.opts.OutputDir, res.Output)
	if err := saveImage(img, saveFormat, dest, imgutil.EncodeOptions{Quality: w.opts.Quality}); err != nil {
		return w.fail(log, res, StageEncode, err)
	}

	res.Status = StatusProcessed
	log.Debug("processed",
		zap.Stringer("from_format", srcFormat),
		zap.Stringer("to_format", saveFormat),
		zap.Int("from_width", res.From.X),
		zap.Int("from_height", res.From.Y),
		zap.Int("to_width", res.To.X),
		zap.Int("to_height", res.To.Y),
	)
	return res
}

func (w worker) fail(log *zap.Logger, res Result, stage Stage, err error) Result {
	res.Status = StatusFailed
	res.Stage = stage
	res.Err = err
	log.Debug("failed", zap.Stringer("stage", stage), zap.Error(err))
	return res
}
