package timeline

import (
	"sort"
	"strings"

	"github.com/tanema/gween/ease"
)

var easings = map[string]ease.TweenFunc{
	"linear":         ease.Linear,
	"in-quad":        ease.InQuad,
	"out-quad":       ease.OutQuad,
	"in-out-quad":    ease.InOutQuad,
	"in-cubic":       ease.InCubic,
	"out-cubic":      ease.OutCubic,
	"in-out-cubic":   ease.InOutCubic,
	"in-sine":        ease.InSine,
	"out-sine":       ease.OutSine,
	"in-out-sine":    ease.InOutSine,
	"in-expo":        ease.InExpo,
	"out-expo":       ease.OutExpo,
	"in-out-expo":    ease.InOutExpo,
	"in-back":        ease.InBack,
	"out-back":       ease.OutBack,
	"in-out-back":    ease.InOutBack,
	"out-bounce":     ease.OutBounce,
	"out-elastic":    ease.OutElastic,
	"in-out-elastic": ease.InOutElastic,
}

// ValidEasing reports whether name is a known easing curve. Empty means linear.
func ValidEasing(name string) bool {
	if name == "" {
		return true
	}
	_, ok := easings[strings.ToLower(name)]
	return ok
}

// EasingNames lists the supported curves.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ease maps phase progress through the named curve. Unknown names, empty
// names and "linear" return p unchanged, so the default timing is exact.
func Ease(name string, p float64) float64 {
	if name == "" || strings.EqualFold(name, "linear") {
		return p
	}
	fn, ok := easings[strings.ToLower(name)]
	if !ok {
		return p
	}
	return float64(fn(float32(p), 0, 1, 1))
}
