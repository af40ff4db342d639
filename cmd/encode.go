package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AnyUserName/webpkit/webp"
)

var (
	encodeOut    string
	encodeWidth  int
	encodeHeight int
	encodeStride int
)

var encodeCmd = &cobra.Command{
	Use:   "encode <in>",
	Short: "Encode an image or raw pixel dump as WebP",
	Long: `Encodes any image format webpkit can read, or a headerless .raw pixel
dump described by --width, --height, --layout and optionally --stride.

Lossy quality runs from 0 to 100; values outside that range are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	f := encodeCmd.Flags()
	f.StringVarP(&encodeOut, "out", "o", "", "output file (default <in>.webp)")
	f.Float32P("quality", "q", webp.DefaultQuality, "lossy quality 0-100")
	f.Bool("lossless", false, "encode losslessly")
	f.String("layout", "auto", "pixel layout: auto, gray, rgb, rgba (raw input needs an explicit one)")
	f.IntVar(&encodeWidth, "width", 0, "raw input width")
	f.IntVar(&encodeHeight, "height", 0, "raw input height")
	f.IntVar(&encodeStride, "stride", 0, "raw input row stride in bytes (0 = packed)")

	bindFlag("encode.quality", f.Lookup("quality"))
	bindFlag("encode.lossless", f.Lookup("lossless"))
	bindFlag("encode.layout", f.Lookup("layout"))
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(_ *cobra.Command, args []string) error {
	in := args[0]
	out := encodeOut
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".webp"
	}

	layout, err := parseLayoutFlag(viper.GetString("encode.layout"))
	if err != nil {
		return err
	}

	var pix webp.PixelBuffer
	if isRaw(in) {
		if layout == 0 {
			return fmt.Errorf("raw input needs --layout")
		}
		pix, err = readRaw(in, rawGeometry{
			width:  encodeWidth,
			height: encodeHeight,
			stride: encodeStride,
			layout: layout,
		})
	} else {
		pix, err = readImage(in, layout)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}

	codec, err := newCodec()
	if err != nil {
		return err
	}

	lossless := viper.GetBool("encode.lossless")
	quality := float32(viper.GetFloat64("encode.quality"))
	var buf *webp.Buffer
	if lossless {
		buf, err = codec.EncodeLossless(pix)
	} else {
		buf, err = codec.EncodeLossy(pix, quality)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", in, err)
	}
	defer buf.Release()

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	ev := log.Info().
		Str("in", in).
		Str("out", out).
		Str("engine", codec.Engine()).
		Stringer("layout", pix.Layout).
		Str("size", formatBytes(int64(buf.Len())))
	if lossless {
		ev.Msg("encoded lossless")
	} else {
		ev.Float32("quality", quality).Msg("encoded lossy")
	}
	return nil
}
