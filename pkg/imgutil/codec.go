package imgutil

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"
)

// EncodeOptions tunes lossy encoders. A zero Quality selects the
// format's default.
type EncodeOptions struct {
	Quality int
}

var defaultQuality = map[Format]int{
	FormatJPEG: 75,
	FormatWEBP: 80,
}

// QualityFor returns the effective quality for f.
func (o EncodeOptions) QualityFor(f Format) int {
	if o.Quality > 0 {
		return o.Quality
	}
	return defaultQuality[f]
}

// Codec is the decode/encode capability registered for a Format.
type Codec struct {
	Decode       func(r io.Reader) (image.Image, error)
	DecodeConfig func(r io.Reader) (image.Config, error)
	Encode       func(w io.Writer, m image.Image, opts EncodeOptions) error
}

var codecs = map[Format]Codec{
	FormatJPEG: {
		Decode:       jpeg.Decode,
		DecodeConfig: jpeg.DecodeConfig,
		Encode: func(w io.Writer, m image.Image, opts EncodeOptions) error {
			return imaging.Encode(w, m, imaging.JPEG, imaging.JPEGQuality(opts.QualityFor(FormatJPEG)))
		},
	},
	FormatPNG: {
		Decode:       png.Decode,
		DecodeConfig: png.DecodeConfig,
		Encode:       imagingEncoder(imaging.PNG),
	},
	FormatGIF: {
		Decode:       gif.Decode,
		DecodeConfig: gif.DecodeConfig,
		Encode:       imagingEncoder(imaging.GIF),
	},
	FormatBMP: {
		Decode:       bmp.Decode,
		DecodeConfig: bmp.DecodeConfig,
		Encode:       imagingEncoder(imaging.BMP),
	},
	FormatTIFF: {
		Decode:       tiff.Decode,
		DecodeConfig: tiff.DecodeConfig,
		Encode:       imagingEncoder(imaging.TIFF),
	},
	FormatWEBP: {
		Decode:       xwebp.Decode,
		DecodeConfig: xwebp.DecodeConfig,
		Encode: func(w io.Writer, m image.Image, opts EncodeOptions) error {
			return webp.Encode(w, m, &webp.Options{Quality: float32(opts.QualityFor(FormatWEBP))})
		},
	},
}

func imagingEncoder(f imaging.Format) func(io.Writer, image.Image, EncodeOptions) error {
	return func(w io.Writer, m image.Image, _ EncodeOptions) error {
		return imaging.Encode(w, m, f)
	}
}

// Lookup returns the codec for f.
func Lookup(f Format) (Codec, error) {
	c, ok := codecs[f]
	if !ok {
		return Codec{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return c, nil
}

// Encode writes m to w in format f.
func Encode(w io.Writer, m image.Image, f Format, opts EncodeOptions) error {
	c, err := Lookup(f)
	if err != nil {
		return err
	}
	return c.Encode(w, m, opts)
}
