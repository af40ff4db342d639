package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AnyUserName/webpkit/internal/manifest"
	"github.com/AnyUserName/webpkit/internal/pipeline"
	"github.com/AnyUserName/webpkit/internal/profile"
)

var buildOutDir string

var buildCmd = &cobra.Command{
	Use:   "build <input_dir>",
	Short: "Convert a directory of images to WebP and write a manifest",
	Long: `Scans input directory for images (png, jpg, jpeg, gif, bmp, tiff, webp),
encodes each one with the selected profile and writes a manifest file.

Profiles: ` + strings.Join(profile.Names(), ", ") + `

Output filenames are content-addressed: <key>.<hash>.webp`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildOutDir, "out", "o", "./webpkit_out", "output directory")
	f.StringP("profile", "p", profile.DefaultName, "encode profile")
	f.IntP("workers", "w", 0, "parallel workers (0 = NumCPU)")
	f.Float32P("quality", "q", 0, "override profile lossy quality (0 = profile default)")
	f.Bool("no-regress-size", true, "skip outputs not smaller than the source file")
	f.Bool("verify", false, "probe every output and round-trip lossless ones")

	bindFlag("build.profile", f.Lookup("profile"))
	bindFlag("build.workers", f.Lookup("workers"))
	bindFlag("build.quality", f.Lookup("quality"))
	bindFlag("build.no_regress_size", f.Lookup("no-regress-size"))
	bindFlag("build.verify", f.Lookup("verify"))
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()

	// Resolve absolute paths.
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(buildOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	// Load profile.
	prof := profile.Get(viper.GetString("build.profile"))
	if q := float32(viper.GetFloat64("build.quality")); q > 0 {
		prof.Quality = q
	}

	log.Debug().
		Str("input", absInput).
		Str("output", absOutput).
		Str("profile", prof.Name).
		Str("mode", prof.Mode()).
		Float32("quality", prof.Quality).
		Msg("build")

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	codec, err := newCodec()
	if err != nil {
		return err
	}

	m, err := pipeline.New(pipeline.Config{
		InputDir:      absInput,
		OutputDir:     absOutput,
		Profile:       prof,
		Codec:         codec,
		Workers:       viper.GetInt("build.workers"),
		NoRegressSize: viper.GetBool("build.no_regress_size"),
		Verify:        viper.GetBool("build.verify"),
	}).Run()
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBuildReport(cmd.OutOrStdout(), m, time.Since(start))
	return nil
}

func printBuildReport(w io.Writer, m *manifest.Manifest, elapsed time.Duration) {
	stats := m.Stats
	ratio := float64(0)
	if stats.TotalInputBytes > 0 {
		ratio = float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  webpkit build complete (%s, %s)\n\n", m.Profile, m.Engine)
	fmt.Fprintf(w, "  Assets:      %d\n", stats.TotalAssets)
	fmt.Fprintf(w, "  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Fprintf(w, "  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Fprintf(w, "  Ratio:       %.1f%% of original\n", ratio)
	if stats.SkippedRegress > 0 {
		fmt.Fprintf(w, "  Skipped:     %d (not smaller than original)\n", stats.SkippedRegress)
	}
	if stats.Failed > 0 {
		fmt.Fprintf(w, "  Failed:      %d\n", stats.Failed)
	}
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		fmt.Fprintf(w, "  Workers:     %d (verify=%t)\n", m.BuildInfo.Workers, m.BuildInfo.Verified)
	}
	fmt.Fprintln(w)

	// Top 10 heaviest assets.
	if len(m.Assets) > 0 {
		type assetSize struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []assetSize
		for key, a := range m.Assets {
			items = append(items, assetSize{key, a.Original.Size, a.Output.Size})
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].inputSize != items[j].inputSize {
				return items[i].inputSize > items[j].inputSize
			}
			return items[i].key < items[j].key
		})
		n := min(len(items), 10)
		fmt.Fprintf(w, "  Top %d heaviest (original -> webp):\n", n)
		for _, it := range items[:n] {
			saved := float64(0)
			if it.inputSize > 0 {
				saved = (1 - float64(it.outputSize)/float64(it.inputSize)) * 100
			}
			fmt.Fprintf(w, "    %-40s %8s -> %8s  (%+.0f%%)\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
				-saved,
			)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  Manifest:    %s\n\n", manifest.FileName)
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
