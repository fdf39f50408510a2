package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"shrink/internal/processor"
)

const envPrefix = "shrink"

// envDefaults are read from SHRINK_* variables and apply to flags the
// user did not set explicitly.
type envDefaults struct {
	Quality   int    `envconfig:"QUALITY"`
	MaxPixels int    `envconfig:"MAX_PIXELS" default:"178956970"`
	Filter    string `envconfig:"FILTER" default:"lanczos"`
}

func (s *settings) applyEnv(flags *pflag.FlagSet) error {
	var env envDefaults
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}
	if !flags.Changed("quality") {
		s.quality = env.Quality
	}
	if !flags.Changed("max-pixels") {
		s.maxPixels = env.MaxPixels
	}
	if !flags.Changed("filter") {
		s.filter = env.Filter
	}
	return nil
}

// sizeValue is the --size flag. It accepts "800x600", "800,600", or a lone
// width whose height follows as the next positional argument, so that
// "-s 800 600" works.
type sizeValue struct {
	size       processor.Size
	needHeight bool
}

func (v *sizeValue) String() string {
	return v.size.String()
}

func (v *sizeValue) Type() string {
	return "WIDTH HEIGHT"
}

func (v *sizeValue) Set(s string) error {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == 'x' || r == 'X' || r == ','
	})
	switch len(parts) {
	case 1:
		w, err := parseDimension(parts[0])
		if err != nil {
			return err
		}
		v.size.Width = w
		v.needHeight = true
	case 2:
		w, err := parseDimension(parts[0])
		if err != nil {
			return err
		}
		h, err := parseDimension(parts[1])
		if err != nil {
			return err
		}
		v.size = processor.Size{Width: w, Height: h}
		v.needHeight = false
	default:
		return fmt.Errorf("%w: %q", processor.ErrInvalidSize, s)
	}
	return nil
}

func (v *sizeValue) takeHeight(args []string) error {
	if !v.needHeight {
		if len(args) > 0 {
			return fmt.Errorf("unexpected argument %q", args[0])
		}
		return nil
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: --size needs WIDTH HEIGHT", processor.ErrInvalidSize)
	}
	h, err := parseDimension(args[0])
	if err != nil {
		return err
	}
	v.size.Height = h
	v.needHeight = false
	return nil
}

func parseDimension(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", processor.ErrInvalidSize, s)
	}
	return n, nil
}
