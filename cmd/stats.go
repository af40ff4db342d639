package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/webpkit/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a built output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for manifest inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), m)
	return nil
}

type bucket struct {
	count int
	bytes int64
}

func printStats(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Manifest version: %d\n", m.Version)
	fmt.Fprintf(w, "  Generated:        %s\n", m.GeneratedAt)
	fmt.Fprintf(w, "  Profile:          %s\n", m.Profile)
	fmt.Fprintf(w, "  Engine:           %s\n", m.Engine)
	if m.BuildInfo != nil {
		fmt.Fprintf(w, "  Workers:          %d\n", m.BuildInfo.Workers)
		fmt.Fprintf(w, "  Verified:         %t\n", m.BuildInfo.Verified)
	}
	fmt.Fprintln(w)

	s := m.Stats
	fmt.Fprintf(w, "  Total assets:     %d\n", s.TotalAssets)
	fmt.Fprintf(w, "  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(w, "  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Fprintf(w, "  Compression:      %.1f%% of original\n", ratio)
	}
	if s.SkippedRegress > 0 || s.Failed > 0 {
		fmt.Fprintf(w, "  Skipped/failed:   %d / %d\n", s.SkippedRegress, s.Failed)
	}
	fmt.Fprintln(w)

	// Per-mode and per-source-format breakdown.
	modes := map[string]bucket{}
	sources := map[string]bucket{}
	var alpha int
	for _, a := range m.Assets {
		key := a.Output.Mode + "/" + a.Output.Layout
		b := modes[key]
		b.count++
		b.bytes += a.Output.Size
		modes[key] = b

		b = sources[a.Original.Format]
		b.count++
		b.bytes += a.Original.Size
		sources[a.Original.Format] = b

		if a.Original.HasAlpha {
			alpha++
		}
	}

	fmt.Fprintln(w, "  Output breakdown:")
	printBuckets(w, modes)
	fmt.Fprintln(w, "  Source formats:")
	printBuckets(w, sources)
	fmt.Fprintf(w, "  With alpha:       %d / %d assets\n\n", alpha, len(m.Assets))
}

func printBuckets(w io.Writer, m map[string]bucket) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "    %-16s %4d files  %s\n", k, m[k].count, formatBytes(m[k].bytes))
	}
	fmt.Fprintln(w)
}
