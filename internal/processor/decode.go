package processor

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"shrink/pkg/imgutil"
)

// DefaultMaxPixels matches the decompression bomb threshold of common
// imaging libraries: twice 89478485 pixels.
const DefaultMaxPixels = 2 * 89478485

var ErrPixelLimit = errors.New("image exceeds max pixels limit, could be decompression bomb DOS attack")

// openImage decodes the file at path after checking its header-declared
// dimensions against maxPixels. The file is closed before returning.
func openImage(path string, maxPixels int) (image.Image, imgutil.Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, imgutil.FormatUnknown, err
	}
	defer file.Close()

	kind, err := imgutil.SniffReader(file)
	if err != nil {
		return nil, imgutil.FormatUnknown, fmt.Errorf("cannot identify image file: %w", err)
	}
	format := kind.Format()
	codec, err := imgutil.Lookup(format)
	if err != nil {
		return nil, imgutil.FormatUnknown, fmt.Errorf("cannot identify image file: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, format, err
	}
	cfg, err := codec.DecodeConfig(bufio.NewReader(file))
	if err != nil {
		return nil, format, err
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, format, fmt.Errorf("%w: %d pixels > %d", ErrPixelLimit, cfg.Width*cfg.Height, maxPixels)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, format, err
	}
	img, err := codec.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, format, err
	}

	return img, format, nil
}
