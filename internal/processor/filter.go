package processor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"
)

const DefaultFilter = "lanczos"

// Magic Kernel Sharp 2013
// http://johncostella.com/magic/
var mks2013Filter = imaging.ResampleFilter{
	Support: 2.5,
	Kernel: func(x float64) float64 {
		x = math.Abs(x)
		if x >= 2.5 {
			return 0.0
		}
		if x >= 1.5 {
			return -0.125 * (x - 2.5) * (x - 2.5)
		}
		if x >= 0.5 {
			return 0.25 * (4*x*x - 11*x + 7)
		}
		return 1.0625 - 1.75*x*x
	},
}

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
	"mks2013":    mks2013Filter,
}

// FilterNames lists the accepted --filter values in sorted order.
func FilterNames() []string {
	names := lo.Keys(filters)
	sort.Strings(names)
	return names
}

// ParseFilter resolves a filter name. The empty name selects Lanczos.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		name = DefaultFilter
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown filter %q (want one of %s)", name, strings.Join(FilterNames(), ", "))
	}
	return f, nil
}
