package renderer

import (
	"fmt"
	"strings"
)

// Flags toggles optional renderer behavior.
type Flags uint32

const (
	// FlagFXAA runs FXAA as the last post-processing stage.
	FlagFXAA Flags = 1 << iota
	// FlagBlitLinear filters the final blit linearly instead of nearest.
	FlagBlitLinear
	// FlagAspectKeep letterboxes the final blit and derives the camera
	// aspect from the internal resolution.
	FlagAspectKeep
	// FlagStencilTest restricts the screen-space lighting passes to pixels
	// covered by deferred geometry.
	FlagStencilTest
	// FlagDepthPrepass renders forward geometry depth-only before shading it.
	FlagDepthPrepass
)

var flagNames = map[string]Flags{
	"fxaa":          FlagFXAA,
	"blit_linear":   FlagBlitLinear,
	"aspect_keep":   FlagAspectKeep,
	"stencil_test":  FlagStencilTest,
	"depth_prepass": FlagDepthPrepass,
}

// ParseFlags converts configuration flag names into Flags.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, n := range names {
		flag, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown render flag %q", n)
		}
		f |= flag
	}
	return f, nil
}

func (f Flags) String() string {
	var parts []string
	for _, name := range []string{"fxaa", "blit_linear", "aspect_keep", "stencil_test", "depth_prepass"} {
		if f&flagNames[name] != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
