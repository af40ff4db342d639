package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/webpkit/internal/hasher"
	"github.com/AnyUserName/webpkit/internal/manifest"
	"github.com/AnyUserName/webpkit/webp"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a webpkit manifest against the files it references",
	Long: `Checks the manifest schema, then for every asset verifies that the
output file exists, matches the recorded size and hash, and carries a WebP
header with the recorded dimensions.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	if info, err := os.Stat(manifestPath); err == nil && info.IsDir() {
		manifestPath = filepath.Join(manifestPath, manifest.FileName)
	}

	m, err := manifest.ReadJSON(manifestPath)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	errs := validateManifest(m, filepath.Dir(manifestPath))
	if len(errs) == 0 {
		fmt.Fprintln(w, "  ok  manifest is valid")
		fmt.Fprintf(w, "  ok  %d assets, all outputs present and matching\n", m.Stats.TotalAssets)
		return nil
	}

	fmt.Fprintf(w, "  manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "    - %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string

	keys := make([]string, 0, len(m.Assets))
	for k := range m.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seenPaths := map[string]string{}
	for _, key := range keys {
		asset := m.Assets[key]
		if asset.Original.Width <= 0 || asset.Original.Height <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid original dimensions %dx%d",
				key, asset.Original.Width, asset.Original.Height))
		}
		if asset.AspectRatio <= 0 {
			errs = append(errs, fmt.Sprintf("asset %q: invalid aspect ratio %.4f", key, asset.AspectRatio))
		}

		out := asset.Output
		if out.Mode != "lossy" && out.Mode != "lossless" {
			errs = append(errs, fmt.Sprintf("asset %q: unknown mode %q", key, out.Mode))
		}
		if _, err := webp.ParseLayout(out.Layout); err != nil {
			errs = append(errs, fmt.Sprintf("asset %q: unknown layout %q", key, out.Layout))
		}
		if out.Hash == "" {
			errs = append(errs, fmt.Sprintf("asset %q: missing hash", key))
		}
		if out.Path == "" {
			errs = append(errs, fmt.Sprintf("asset %q: missing path", key))
			continue
		}
		if other, dup := seenPaths[out.Path]; dup {
			errs = append(errs, fmt.Sprintf("asset %q: path %q already used by %q", key, out.Path, other))
		}
		seenPaths[out.Path] = key

		if err := checkOutputFile(filepath.Join(baseDir, filepath.FromSlash(out.Path)), out); err != nil {
			errs = append(errs, fmt.Sprintf("asset %q: %s: %v", key, out.Path, err))
		}
	}

	// Verify stats consistency.
	if m.Stats.TotalAssets != len(m.Assets) {
		errs = append(errs, fmt.Sprintf("stats.total_assets mismatch: %d != %d", m.Stats.TotalAssets, len(m.Assets)))
	}
	return errs
}

// checkOutputFile compares a file on disk with its manifest entry.
func checkOutputFile(path string, out manifest.Output) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file not found")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() != out.Size {
		return fmt.Errorf("size mismatch: manifest=%d, disk=%d", out.Size, info.Size())
	}

	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		return err
	}
	if cfg.Width != out.Width || cfg.Height != out.Height {
		return fmt.Errorf("dimensions mismatch: manifest=%dx%d, header=%dx%d",
			out.Width, out.Height, cfg.Width, cfg.Height)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	sum, err := hasher.ContentHashReader(f, len(out.Hash))
	if err != nil {
		return err
	}
	if sum != out.Hash {
		return fmt.Errorf("hash mismatch: manifest=%s, disk=%s", out.Hash, sum)
	}
	return nil
}
