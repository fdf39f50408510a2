package processor

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shrink/pkg/imgutil"
)

func TestRunMixedDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")

	writeImage(t, filepath.Join(in, "a.png"), solid(1200, 900, 0xff), imgutil.FormatPNG)
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "c.jpg"), []byte("definitely not a jpeg payload"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(in, "sub.png"), 0o755))

	summary, results, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Skipped)
	assert.True(t, filepath.IsAbs(summary.OutputDir))
	require.Len(t, results, 3)

	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, StatusProcessed, byName["a.png"].Status)
	assert.Equal(t, "Processed: a.png -> a.png", byName["a.png"].Line())
	assert.Equal(t, StatusUnsupported, byName["b.txt"].Status)
	assert.Equal(t, "Skipped b.txt: Unsupported file format", byName["b.txt"].Line())
	assert.Equal(t, StatusFailed, byName["c.jpg"].Status)
	assert.Equal(t, StageDecode, byName["c.jpg"].Stage)
	assert.Contains(t, byName["c.jpg"].Line(), "Error processing c.jpg: ")

	cfg, kind := readConfig(t, filepath.Join(out, "a.png"))
	assert.Equal(t, imgutil.KindPNG, kind)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.png", entries[0].Name())
}

func TestRunAlphaToJPEG(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "d.png"), halfTransparent(64, 32), imgutil.FormatPNG)

	opts := testOptions(in, out)
	opts.Format = imgutil.FormatJPEG
	summary, _, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	img := readImage(t, filepath.Join(out, "d.jpeg"), imgutil.FormatJPEG)
	_, isYCbCr := img.(*image.YCbCr)
	assert.True(t, isYCbCr, "expected 3-channel YCbCr jpeg, got %T", img)
	assert.False(t, hasTransparency(img))
}

func TestRunAlphaToWEBP(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "d.png"), halfTransparent(64, 32), imgutil.FormatPNG)

	opts := testOptions(in, out)
	opts.Format = imgutil.FormatWEBP
	summary, results, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, "Processed: d.png -> d.webp", results[0].Line())

	img := readImage(t, filepath.Join(out, "d.webp"), imgutil.FormatWEBP)
	assert.True(t, hasTransparency(img))
}

func TestRunKeepsOriginalFormat(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "x.gif"), solid(40, 20, 0x80), imgutil.FormatGIF)
	writeImage(t, filepath.Join(in, "y.BMP"), solid(40, 20, 0x80), imgutil.FormatBMP)
	// the extension lies: content decides the encoder
	writeImage(t, filepath.Join(in, "z.jpg"), solid(40, 20, 0x80), imgutil.FormatPNG)

	summary, _, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)

	_, kind := readConfig(t, filepath.Join(out, "x.gif"))
	assert.Equal(t, imgutil.KindGIF, kind)
	_, kind = readConfig(t, filepath.Join(out, "y.bmp"))
	assert.Equal(t, imgutil.KindBMP, kind)
	_, kind = readConfig(t, filepath.Join(out, "z.jpg"))
	assert.Equal(t, imgutil.KindPNG, kind)
}

func TestRunNeverEnlarges(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "small.png"), solid(120, 45, 0x20), imgutil.FormatPNG)

	_, results, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, image.Pt(120, 45), results[0].From)
	assert.Equal(t, image.Pt(120, 45), results[0].To)

	cfg, _ := readConfig(t, filepath.Join(out, "small.png"))
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 45, cfg.Height)
}

func TestRunPixelLimit(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "bomb.png"), solid(20, 20, 0x10), imgutil.FormatPNG)

	opts := testOptions(in, out)
	opts.MaxPixels = 100
	summary, results, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.ErrorIs(t, results[0].Err, ErrPixelLimit)

	_, statErr := os.Stat(filepath.Join(out, "bomb.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRepeatable(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "a.png"), solid(300, 300, 0x40), imgutil.FormatPNG)
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.md"), []byte("#"), 0o644))

	first, _, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)
	second, _, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunUpdates(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "a.png"), solid(10, 10, 0x40), imgutil.FormatPNG)
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.txt"), nil, 0o644))

	updates := make(chan ProgressUpdate, 16)
	_, _, err := Run(context.Background(), testOptions(in, out), updates)
	require.NoError(t, err)
	close(updates)

	var got []ProgressUpdate
	for u := range updates {
		got = append(got, u)
	}
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].TotalDelta)
	assert.Equal(t, ProgressUpdate{ProcessedDelta: 1, Line: "Processed: a.png -> a.png"}, got[1])
	assert.Equal(t, ProgressUpdate{SkippedDelta: 1, Line: "Skipped b.txt: Unsupported file format"}, got[2])
}

func TestRunFatalErrors(t *testing.T) {
	out := t.TempDir()

	_, _, err := Run(context.Background(), testOptions(filepath.Join(out, "missing"), out), nil)
	assert.Error(t, err)

	opts := testOptions(t.TempDir(), out)
	opts.Size = Size{Width: 0, Height: 600}
	_, _, err = Run(context.Background(), opts, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)

	opts = testOptions(t.TempDir(), out)
	opts.Filter = "sinc"
	_, _, err = Run(context.Background(), opts, nil)
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "a.png"), solid(10, 10, 0x40), imgutil.FormatPNG)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, _, err := Run(ctx, testOptions(in, out), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Processed)
}

func TestRunSaveFailure(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "a.png"), solid(120, 90, 0x80), imgutil.FormatPNG)
	require.NoError(t, os.MkdirAll(filepath.Join(out, "a.png"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.png", "keep"), []byte("x"), 0o644))

	summary, results, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StageEncode, results[0].Stage)
	assert.True(t, strings.HasPrefix(results[0].Line(), "Error processing a.png: "), results[0].Line())
	assertNoTempFiles(t, out)
}

func TestRunKeepsEmptyDirAtDestination(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, "a.png"), solid(120, 90, 0x80), imgutil.FormatPNG)
	require.NoError(t, os.Mkdir(filepath.Join(out, "a.png"), 0o755))

	summary, results, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, results, 1)
	assert.Equal(t, StageEncode, results[0].Stage)

	info, err := os.Stat(filepath.Join(out, "a.png"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assertNoTempFiles(t, out)
}

func TestRunSkipsBareExtensionName(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, filepath.Join(in, ".png"), solid(20, 20, 0x40), imgutil.FormatPNG)

	summary, results, err := Run(context.Background(), testOptions(in, out), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, results, 1)
	assert.Equal(t, "Skipped .png: Unsupported file format", results[0].Line())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "photo.jpeg", outputName("photo.png", imgutil.FormatJPEG))
	assert.Equal(t, "photo.webp", outputName("photo.PNG", imgutil.FormatWEBP))
	assert.Equal(t, "photo.jpg", outputName("photo.JPG", imgutil.FormatUnknown))
	assert.Equal(t, "archive.tar.gif", outputName("archive.tar.gif", imgutil.FormatUnknown))
	assert.Equal(t, ".png.jpeg", outputName(".png", imgutil.FormatJPEG))
	assert.Equal(t, ".hidden.png", outputName(".hidden.PNG", imgutil.FormatUnknown))
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "a.png", "a.webp", "a.bmp", "a.Gif"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.tiff", "a.txt", "jpg", "a", ".png", "..jpg"} {
		assert.False(t, Supported(name), name)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, ".shrink-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func testOptions(in, out string) Options {
	return Options{
		InputDir:  in,
		OutputDir: out,
		Size:      Size{Width: 800, Height: 600},
		MaxPixels: DefaultMaxPixels,
	}
}

func solid(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v/2, 0xff-v, 0xff
	}
	return img
}

// halfTransparent is opaque red on the right half and fully transparent
// on the left.
func halfTransparent(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= w/2 {
				img.SetNRGBA(x, y, color.NRGBA{R: 0xff, A: 0xff})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{G: 0xff, A: 0})
			}
		}
	}
	return img
}

func hasTransparency(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0x8000 {
				return true
			}
		}
	}
	return false
}

func writeImage(t *testing.T, path string, img image.Image, f imgutil.Format) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, imgutil.Encode(file, img, f, imgutil.EncodeOptions{}))
}

func readConfig(t *testing.T, path string) (image.Config, imgutil.Kind) {
	t.Helper()

	kind, err := imgutil.SniffFile(path)
	require.NoError(t, err)
	codec, err := imgutil.Lookup(kind.Format())
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	cfg, err := codec.DecodeConfig(file)
	require.NoError(t, err)
	return cfg, kind
}

func readImage(t *testing.T, path string, f imgutil.Format) image.Image {
	t.Helper()

	codec, err := imgutil.Lookup(f)
	require.NoError(t, err)
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := codec.Decode(file)
	require.NoError(t, err)
	return img
}
