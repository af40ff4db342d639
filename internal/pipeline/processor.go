package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/webpkit/internal/hasher"
	"github.com/AnyUserName/webpkit/internal/manifest"
	"github.com/AnyUserName/webpkit/webp"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// processResult holds the result of processing a single source image.
type processResult struct {
	key     string
	asset   manifest.Asset
	err     error
	skipped bool // output was not smaller than the source
}

// processImage handles a single source image: decode, resize, encode, verify, write.
func processImage(src Source, cfg Config) processResult {
	result := processResult{key: src.Key}

	img, err := imaging.Open(src.AbsPath, imaging.AutoOrientation(true))
	if err != nil {
		result.err = fmt.Errorf("decode %s: %w", src.RelPath, err)
		return result
	}
	origW, origH := img.Bounds().Dx(), img.Bounds().Dy()

	w, h := cfg.Profile.TargetSize(origW, origH)
	if w != origW || h != origH {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	nrgba := imaging.Clone(img)
	hasAlpha := !nrgba.Opaque()
	layout := cfg.Profile.LayoutFor(hasAlpha)

	pix, err := webp.FromImage(nrgba, layout)
	if err != nil {
		result.err = fmt.Errorf("convert %s: %w", src.RelPath, err)
		return result
	}
	avg := computeAvgColor(pix)

	result.asset = manifest.Asset{
		Original: manifest.OriginalInfo{
			Width:    origW,
			Height:   origH,
			Format:   src.Format,
			Size:     src.Size,
			HasAlpha: hasAlpha,
		},
		AspectRatio: float64(origW) / float64(origH),
		AvgColor:    &avg,
	}

	var out *webp.Buffer
	if cfg.Profile.Lossless {
		out, err = cfg.Codec.EncodeLossless(pix)
	} else {
		out, err = cfg.Codec.EncodeLossy(pix, cfg.Profile.Quality)
	}
	if err != nil {
		result.err = fmt.Errorf("encode %s: %w", src.RelPath, err)
		return result
	}
	defer out.Release()
	data := out.Bytes()

	if cfg.Verify {
		if err := verify(cfg, data, pix); err != nil {
			result.err = fmt.Errorf("verify %s: %w", src.RelPath, err)
			return result
		}
	}

	// Skip output if encoded size >= original (--no-regress-size).
	if cfg.NoRegressSize && int64(len(data)) >= src.Size {
		log.Debug().
			Str("key", src.Key).
			Int("encoded", len(data)).
			Int64("original", src.Size).
			Msg("skip: not smaller than source")
		result.skipped = true
		return result
	}

	// Content hash for filename: key.hash8.webp
	contentHash := hasher.ContentHash(data, 0)
	keyDir := filepath.Dir(src.Key)
	fileName := fmt.Sprintf("%s.%s.webp", filepath.Base(src.Key), contentHash[:hasher.NameLen])
	relPath := filepath.ToSlash(filepath.Join(keyDir, fileName))

	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.err = fmt.Errorf("create dir for %s: %w", relPath, err)
		return result
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		result.err = fmt.Errorf("write %s: %w", relPath, err)
		return result
	}

	result.asset.Output = manifest.Output{
		Mode:   cfg.Profile.Mode(),
		Layout: layout.String(),
		Width:  w,
		Height: h,
		Size:   int64(len(data)),
		Hash:   contentHash,
		Path:   relPath,
	}
	if !cfg.Profile.Lossless {
		result.asset.Output.Quality = cfg.Profile.Quality
	}
	return result
}

// verify checks that data probes to the expected geometry and, for lossless
// output, decodes back to exactly pix.
func verify(cfg Config, data []byte, pix webp.PixelBuffer) error {
	info, err := cfg.Codec.Probe(data)
	if err != nil {
		return err
	}
	if info.Width != pix.Width || info.Height != pix.Height {
		return fmt.Errorf("probed %dx%d, encoded %dx%d", info.Width, info.Height, pix.Width, pix.Height)
	}
	if !cfg.Profile.Lossless {
		return nil
	}
	return cfg.Codec.DecodeFunc(data, pix.Layout, func(got webp.PixelBuffer) error {
		if !bytes.Equal(got.Pix, pix.Pix) {
			return fmt.Errorf("lossless round trip differs")
		}
		return nil
	})
}

// computeAvgColor calculates the average RGB color of a packed buffer.
func computeAvgColor(p webp.PixelBuffer) [3]uint8 {
	count := uint64(p.Width * p.Height)
	if count == 0 {
		return [3]uint8{0, 0, 0}
	}
	ch := p.Layout.Channels()
	var rSum, gSum, bSum uint64
	for y := 0; y < p.Height; y++ {
		row := p.Row(y)
		for i := 0; i < len(row); i += ch {
			if ch == 1 {
				rSum += uint64(row[i])
				gSum += uint64(row[i])
				bSum += uint64(row[i])
				continue
			}
			rSum += uint64(row[i])
			gSum += uint64(row[i+1])
			bSum += uint64(row[i+2])
		}
	}
	return [3]uint8{
		uint8(rSum / count),
		uint8(gSum / count),
		uint8(bSum / count),
	}
}
