package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/webpkit/webp"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file.webp>...",
	Short: "Print WebP dimensions and features without decoding",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	var failed int
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err == nil {
			err = printProbe(cmd.OutOrStdout(), path, data)
		}
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("probe failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be probed", failed, len(args))
	}
	return nil
}

func printProbe(w io.Writer, path string, data []byte) error {
	info, err := webp.Probe(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %dx%d %s alpha=%t animated=%t (%s)\n",
		path, info.Width, info.Height, info.Format, info.HasAlpha, info.Animated,
		formatBytes(int64(len(data))))
	return err
}
