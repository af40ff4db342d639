package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/webpkit/webp"
)

var (
	decodeOut    string
	decodeLayout string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <in.webp>",
	Short: "Decode a WebP file to a raw pixel dump or another image format",
	Long: `Decodes a WebP file. With -o ending in .raw the packed pixels are
written as-is in the chosen layout; any other extension (png, jpg, bmp,
tiff, gif) is written through the matching image encoder.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOut, "out", "o", "", "output file (default <in>.png)")
	decodeCmd.Flags().StringVar(&decodeLayout, "layout", "rgba", "pixel layout: gray, rgb, rgba")
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(_ *cobra.Command, args []string) error {
	in := args[0]
	out := decodeOut
	if out == "" {
		out = strings.TrimSuffix(in, ".webp") + ".png"
	}
	layout, err := webp.ParseLayout(decodeLayout)
	if err != nil {
		return err
	}

	codec, err := newCodec()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	err = codec.DecodeFunc(data, layout, func(p webp.PixelBuffer) error {
		log.Info().
			Str("in", in).
			Str("out", out).
			Int("width", p.Width).
			Int("height", p.Height).
			Stringer("layout", p.Layout).
			Msg("decoded")
		return writePixels(out, p)
	})
	if err != nil {
		return fmt.Errorf("decode %s: %w", in, err)
	}
	return nil
}
