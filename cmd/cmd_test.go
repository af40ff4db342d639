package cmd

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/webpkit/internal/manifest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEncodeDecodeRaw(t *testing.T) {
	dir := t.TempDir()
	raw := []byte{
		10, 20, 30, 40, 50, 60, 70, 80, 90, 0xEE, // padded to stride 10
		1, 2, 3, 4, 5, 6, 7, 8, 9, 0xEE,
	}
	in := filepath.Join(dir, "in.raw")
	require.NoError(t, os.WriteFile(in, raw, 0o644))

	webpPath := filepath.Join(dir, "out.webp")
	_, err := execute(t, "encode", in, "-o", webpPath, "--lossless",
		"--layout", "rgb", "--width", "3", "--height", "2", "--stride", "10")
	require.NoError(t, err)

	out, err := execute(t, "probe", webpPath)
	require.NoError(t, err)
	assert.Contains(t, out, "3x2")

	back := filepath.Join(dir, "back.raw")
	_, err = execute(t, "decode", webpPath, "-o", back, "--layout", "rgb")
	require.NoError(t, err)

	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60, 70, 80, 90, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestEncodeRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "short.raw")
	require.NoError(t, os.WriteFile(in, make([]byte, 5), 0o644))

	_, err := execute(t, "encode", in, "--layout", "rgba", "--width", "2", "--height", "2", "--stride", "0")
	assert.ErrorContains(t, err, "invalid input")

	_, err = execute(t, "encode", in, "--layout", "auto")
	assert.ErrorContains(t, err, "needs --layout")

	_, err = execute(t, "probe", in)
	assert.Error(t, err)
}

func TestEnginesCommand(t *testing.T) {
	out, err := execute(t, "engines")
	require.NoError(t, err)
	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "native")
}

func TestBuildValidateStats(t *testing.T) {
	in, outDir := t.TempDir(), t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: 200, A: 255})
		}
	}
	require.NoError(t, imaging.Save(img, filepath.Join(in, "banner.png")))
	require.NoError(t, os.MkdirAll(filepath.Join(in, "nested"), 0o755))
	require.NoError(t, imaging.Save(img, filepath.Join(in, "nested", "tile.bmp")))

	_, err := execute(t, "build", in, "-o", outDir, "--profile", "archive", "--no-regress-size=false", "--verify")
	require.NoError(t, err)

	manifestPath := filepath.Join(outDir, manifest.FileName)
	m, err := manifest.ReadJSON(manifestPath)
	require.NoError(t, err)
	require.Len(t, m.Assets, 2)
	assert.Empty(t, validateManifest(m, outDir))

	out, err := execute(t, "validate", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "manifest is valid")

	out, err = execute(t, "stats", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "lossless/rgba")
	assert.Contains(t, out, "bmp")

	// Corrupt one output and expect a hash mismatch.
	banner := m.Assets["banner"].Output
	p := filepath.Join(outDir, filepath.FromSlash(banner.Path))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(p, data, 0o644))

	errs := validateManifest(m, outDir)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "hash mismatch")

	_, err = execute(t, "validate", manifestPath)
	assert.ErrorContains(t, err, "validation failed")
}

func TestValidateManifestFields(t *testing.T) {
	m := manifest.New("photo", "wasm")
	m.Assets["a"] = manifest.Asset{
		Original: manifest.OriginalInfo{Width: 0, Height: 1},
		Output:   manifest.Output{Mode: "weird", Layout: "cmyk", Path: "a.webp"},
	}
	m.Assets["b"] = manifest.Asset{
		Original:    manifest.OriginalInfo{Width: 1, Height: 1},
		AspectRatio: 1,
		Output:      manifest.Output{Mode: "lossy", Layout: "rgb", Hash: "x", Path: "a.webp"},
	}

	s := strings.Join(validateManifest(m, t.TempDir()), "\n")
	assert.Contains(t, s, "invalid original dimensions")
	assert.Contains(t, s, "invalid aspect ratio")
	assert.Contains(t, s, `unknown mode "weird"`)
	assert.Contains(t, s, `unknown layout "cmyk"`)
	assert.Contains(t, s, "missing hash")
	assert.Contains(t, s, "already used by")
	assert.Contains(t, s, "file not found")
	assert.Contains(t, s, "stats.total_assets mismatch")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "...cdef", truncKey("abcdef"+"cdef", 7))
}
