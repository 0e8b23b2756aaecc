package dial

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidColor reports whether s is a #rrggbb colour.
func ValidColor(s string) bool {
	return colorRe.MatchString(s)
}

type darkenKey struct {
	hex    string
	factor float64
}

var (
	darkenMu    sync.Mutex
	darkenCache = make(map[darkenKey]string)
)

// Darken scales each channel of a #rrggbb colour by factor and floors it.
// Results are cached; the renderer asks for the same few shades every frame.
// hex must be well formed.
func Darken(hex string, factor float64) string {
	key := darkenKey{hex, factor}

	darkenMu.Lock()
	defer darkenMu.Unlock()
	if v, ok := darkenCache[key]; ok {
		return v
	}

	out := "#"
	for i := 1; i <= 5; i += 2 {
		c, _ := strconv.ParseUint(hex[i:i+2], 16, 8)
		out += fmt.Sprintf("%02x", int(math.Floor(float64(c)*factor)))
	}
	darkenCache[key] = out
	return out
}
