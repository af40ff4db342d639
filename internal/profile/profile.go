package profile

import (
	"sort"

	"github.com/AnyUserName/webpkit/webp"
)

// Profile is a named set of WebP encode parameters for a batch build.
type Profile struct {
	Name     string
	Lossless bool
	Quality  float32     // lossy quality 0-100, ignored when Lossless
	Layout   webp.Layout // promoted to RGBA for sources with alpha
	MaxWidth int         // downscale wider sources, 0 = keep size
}

// DefaultName is used when no profile is configured.
const DefaultName = "photo"

// Built-in profiles.
var profiles = map[string]Profile{
	"photo": {
		Name:     "photo",
		Quality:  82,
		Layout:   webp.RGB,
		MaxWidth: 2560,
	},
	"photo-hq": {
		Name:    "photo-hq",
		Quality: 90,
		Layout:  webp.RGB,
	},
	"graphics": {
		Name:     "graphics",
		Lossless: true,
		Layout:   webp.RGBA,
		MaxWidth: 2048,
	},
	"archive": {
		Name:     "archive",
		Lossless: true,
		Layout:   webp.RGBA,
	},
}

// Get returns a profile by name. Falls back to photo if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[DefaultName]
	p.Name = name // preserve requested name
	return p
}

// Names lists the built-in profiles.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LayoutFor returns the layout to encode a source with.
func (p Profile) LayoutFor(hasAlpha bool) webp.Layout {
	if hasAlpha {
		return webp.RGBA
	}
	return p.Layout
}

// TargetSize returns the output size for a width x height source, keeping
// the aspect ratio. Sources are never upscaled.
func (p Profile) TargetSize(width, height int) (int, int) {
	if p.MaxWidth <= 0 || width <= p.MaxWidth {
		return width, height
	}
	h := int(float64(height) * float64(p.MaxWidth) / float64(width))
	if h < 1 {
		h = 1
	}
	return p.MaxWidth, h
}

// Mode names the encode path for reports and the manifest.
func (p Profile) Mode() string {
	if p.Lossless {
		return "lossless"
	}
	return "lossy"
}
