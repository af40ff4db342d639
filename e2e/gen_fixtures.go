//go:build ignore

// gen_fixtures creates small inputs for a webpkit smoke run:
// source images for `webpkit build`, raw pixel dumps for `webpkit encode`
// and reference WebP files for `webpkit probe` / `decode`.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/webpkit/webp"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	for _, sub := range []string{"src/cards", "raw", "webp"} {
		must(os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}

	// Build sources.
	must(imaging.Save(gradient(400, 225), filepath.Join(dir, "src", "banner.jpg"), imaging.JPEGQuality(85)))
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		must(imaging.Save(solidWithBorder(200, 150, uint8(i*60)), filepath.Join(dir, "src", "cards", name)))
	}
	must(imaging.Save(alphaGradient(100, 100), filepath.Join(dir, "src", "logo.png")))
	must(imaging.Save(gradient(64, 64), filepath.Join(dir, "src", "tile.bmp")))

	// Raw dumps: <name>.<w>x<h>.<layout>.raw, packed rows.
	for _, layout := range []webp.Layout{webp.Gray, webp.RGB, webp.RGBA} {
		p, err := webp.FromImage(alphaGradient(33, 17), layout)
		must(err)
		name := fmt.Sprintf("grad.%dx%d.%s.raw", p.Width, p.Height, layout)
		must(os.WriteFile(filepath.Join(dir, "raw", name), p.Pix, 0o644))
	}

	// Reference streams.
	writeWebP(filepath.Join(dir, "webp", "lossy.webp"), gradient(120, 80), &webp.Options{Quality: 75})
	writeWebP(filepath.Join(dir, "webp", "lossless-alpha.webp"), alphaGradient(50, 50), &webp.Options{Lossless: true})

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created fixtures in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func writeWebP(path string, img image.Image, o *webp.Options) {
	f, err := os.Create(path)
	must(err)
	defer f.Close()
	must(webp.EncodeImage(f, img, o))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
