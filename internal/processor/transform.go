package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"shrink/pkg/imgutil"
)

// Fit shrinks img to fit inside size, keeping its aspect ratio. Images that
// already fit are returned as is.
func Fit(img image.Image, size Size, filter imaging.ResampleFilter) image.Image {
	b := img.Bounds()
	if b.Dx() <= size.Width && b.Dy() <= size.Height {
		return img
	}
	w, h := fitSize(b.Dx(), b.Dy(), size)
	return imaging.Resize(img, w, h, filter)
}

// fitSize scales w x h by the largest factor that keeps both sides inside
// the box, rounding to the nearest pixel.
func fitSize(w, h int, box Size) (int, int) {
	scale := math.Min(float64(box.Width)/float64(w), float64(box.Height)/float64(h))
	return clamp(int(math.Round(float64(w)*scale)), box.Width), clamp(int(math.Round(float64(h)*scale)), box.Height)
}

func clamp(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}

// Convert prepares img for the target format. JPEG cannot carry alpha, so
// the image is flattened to opaque RGB; every other target is left to its
// encoder.
func Convert(img image.Image, target imgutil.Format) image.Image {
	if !target.JPEGFamily() {
		return img
	}
	return toRGB(img)
}

// toRGB drops the alpha channel without compositing: colors keep their
// straight (non-premultiplied) values and become fully opaque.
func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
