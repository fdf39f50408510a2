package imgutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Format is one of the fixed set of formats the batch can read or write.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatBMP
	FormatWEBP
	FormatTIFF
)

// ErrUnsupportedFormat is returned for identifiers outside the Format set.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var formatNames = map[Format]string{
	FormatJPEG: "JPEG",
	FormatPNG:  "PNG",
	FormatGIF:  "GIF",
	FormatBMP:  "BMP",
	FormatWEBP: "WEBP",
	FormatTIFF: "TIFF",
}

// aliases maps uppercase identifiers onto formats. JPG is the only alias.
var aliases = map[string]Format{
	"JPG":  FormatJPEG,
	"JPEG": FormatJPEG,
	"PNG":  FormatPNG,
	"GIF":  FormatGIF,
	"BMP":  FormatBMP,
	"WEBP": FormatWEBP,
	"TIFF": FormatTIFF,
	"TIF":  FormatTIFF,
}

// ParseFormat normalizes a user supplied format name. Matching is
// case-insensitive and "jpg" resolves to FormatJPEG.
func ParseFormat(name string) (Format, error) {
	f, ok := aliases[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return FormatUnknown, fmt.Errorf("%w %q (want one of %s)", ErrUnsupportedFormat, name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names lists the lowercase names of every writable format.
func Names() []string {
	formats := []Format{FormatJPEG, FormatPNG, FormatGIF, FormatBMP, FormatWEBP, FormatTIFF}
	return lo.Map(formats, func(f Format, _ int) string {
		return strings.ToLower(f.String())
	})
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// Ext is the output extension for the format: a dot followed by the
// lowercased format name, so FormatJPEG yields ".jpeg".
func (f Format) Ext() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + strings.ToLower(f.String())
}

// JPEGFamily reports whether the format is stored without an alpha channel.
func (f Format) JPEGFamily() bool {
	return f == FormatJPEG
}
