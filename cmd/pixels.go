package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/webpkit/webp"
)

// rawExt marks headerless pixel dumps. Everything else goes through imaging.
const rawExt = ".raw"

func isRaw(path string) bool {
	return strings.EqualFold(filepath.Ext(path), rawExt)
}

// rawGeometry describes a headerless pixel file.
type rawGeometry struct {
	width, height, stride int
	layout                webp.Layout
}

// readRaw loads a pixel dump. A zero stride means packed rows.
func readRaw(path string, g rawGeometry) (webp.PixelBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return webp.PixelBuffer{}, err
	}
	stride := g.stride
	if stride == 0 {
		stride = g.width * g.layout.Channels()
	}
	p := webp.PixelBuffer{
		Pix:    data,
		Width:  g.width,
		Height: g.height,
		Stride: stride,
		Layout: g.layout,
	}
	if err := p.Validate(); err != nil {
		return webp.PixelBuffer{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// readImage decodes any format imaging understands into layout. A zero
// layout picks RGBA for images with transparency and RGB otherwise.
func readImage(path string, layout webp.Layout) (webp.PixelBuffer, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return webp.PixelBuffer{}, err
	}
	nrgba := imaging.Clone(img)
	if layout == 0 {
		layout = webp.RGB
		if !nrgba.Opaque() {
			layout = webp.RGBA
		}
	}
	return webp.FromImage(nrgba, layout)
}

// writePixels stores p as a raw dump or, for any other extension, in the
// format imaging picks from the file name.
func writePixels(path string, p webp.PixelBuffer) error {
	if isRaw(path) {
		return os.WriteFile(path, p.Pix[:p.Stride*p.Height], 0o644)
	}
	img, err := p.Image()
	if err != nil {
		return err
	}
	return imaging.Save(img, path)
}

// parseLayoutFlag accepts "" or "auto" as the zero layout.
func parseLayoutFlag(s string) (webp.Layout, error) {
	if s == "" || strings.EqualFold(s, "auto") {
		return 0, nil
	}
	return webp.ParseLayout(s)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
