package processor

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"shrink/pkg/imgutil"
)

var ErrInvalidSize = errors.New("size must be two positive integers")

// Size is the bounding box every image is shrunk to fit.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

type Options struct {
	InputDir  string
	OutputDir string
	Size      Size
	// Format is the output format; FormatUnknown keeps each file's own.
	Format    imgutil.Format
	Filter    string
	Quality   int
	MaxPixels int
	Logger    *zap.Logger
}

type Job struct {
	Path string
	Name string
}

type Status int

const (
	StatusProcessed Status = iota
	StatusUnsupported
	StatusFailed
)

// Stage records where a failed file stopped.
type Stage int

const (
	StageNone Stage = iota
	StageDecode
	StageEncode
)

func (s Stage) String() string {
	switch s {
	case StageDecode:
		return "decode"
	case StageEncode:
		return "encode"
	default:
		return "none"
	}
}

type Result struct {
	Name   string
	Output string
	Status Status
	Stage  Stage
	Err    error
	Format imgutil.Format
	From   image.Point
	To     image.Point
}

// Line is the report line printed for the file.
func (r Result) Line() string {
	switch r.Status {
	case StatusUnsupported:
		return fmt.Sprintf("Skipped %s: Unsupported file format", r.Name)
	case StatusFailed:
		return fmt.Sprintf("Error processing %s: %v", r.Name, r.Err)
	default:
		return fmt.Sprintf("Processed: %s -> %s", r.Name, r.Output)
	}
}

type Summary struct {
	Processed int
	Skipped   int
	OutputDir string
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	SkippedDelta   int
	Line           string
}
