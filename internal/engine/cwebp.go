package engine

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// CwebpEngine shells out to the libwebp command line tools. Pixels travel
// through temporary PNG files, which carry straight RGBA losslessly.
// Install: brew install webp / apt install webp
type CwebpEngine struct {
	once      sync.Once
	available bool
	cwebpPath string
	dwebpPath string
}

func (e *CwebpEngine) Name() string { return "cwebp" }

func (e *CwebpEngine) Available() bool {
	e.once.Do(func() {
		cwebp, err := exec.LookPath("cwebp")
		if err != nil {
			return
		}
		dwebp, err := exec.LookPath("dwebp")
		if err != nil {
			return
		}
		e.available = true
		e.cwebpPath = cwebp
		e.dwebpPath = dwebp
		log.Debug().Str("cwebp", cwebp).Str("dwebp", dwebp).Msg("binaries found")
	})
	return e.available
}

func (e *CwebpEngine) Decode(data []byte) (*image.NRGBA, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%w: dwebp not found in PATH", ErrUnsupported)
	}
	srcPath, err := tempPath(".webp")
	if err != nil {
		return nil, err
	}
	dstPath, err := tempPath(".png")
	if err != nil {
		return nil, err
	}
	defer removeTemp(srcPath)
	defer removeTemp(dstPath)

	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp: %w", err)
	}

	cmd := exec.Command(e.dwebpPath, "-quiet", srcPath, "-o", dstPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("dwebp: %w: %s", err, string(out))
	}

	img, err := imaging.Open(dstPath)
	if err != nil {
		return nil, fmt.Errorf("read decoded png: %w", err)
	}
	return toNRGBA(img), nil
}

func (e *CwebpEngine) EncodeLossy(img *image.NRGBA, quality float32) ([]byte, error) {
	return e.encode(img,
		"-q", strconv.FormatFloat(float64(quality), 'f', 2, 32),
		"-m", "4",
	)
}

func (e *CwebpEngine) EncodeLossless(img *image.NRGBA) ([]byte, error) {
	return e.encode(img, "-lossless", "-exact", "-m", "4")
}

func (e *CwebpEngine) encode(img *image.NRGBA, args ...string) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%w: cwebp not found in PATH; install with: brew install webp", ErrUnsupported)
	}

	// Write source as PNG to temp file (cwebp reads files).
	srcPath, err := tempPath(".png")
	if err != nil {
		return nil, err
	}
	dstPath, err := tempPath(".webp")
	if err != nil {
		return nil, err
	}
	defer removeTemp(srcPath)
	defer removeTemp(dstPath)

	if err := imaging.Save(img, srcPath); err != nil {
		return nil, fmt.Errorf("encode temp png: %w", err)
	}

	args = append(args, "-quiet", srcPath, "-o", dstPath)
	cmd := exec.Command(e.cwebpPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cwebp: %w: %s", err, string(out))
	}

	return os.ReadFile(dstPath)
}

// tempPath returns a unique path in the temp dir; names are uuids so that
// concurrent calls never collide.
func tempPath(extension string) (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("temp name: %w", err)
	}
	return filepath.Join(os.TempDir(), "webpkit-"+id.String()+extension), nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("path", path).Err(err).Msg("could not clean up temp file")
	}
}
