package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AnyUserName/webpkit/webp"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "webpkit",
	Short: "Probe, decode and encode WebP images",
	Long: `webpkit converts between WebP and raw pixel buffers or common image
formats, and batch-builds directories of images into content-addressed
WebP files with a JSON manifest.

Configuration is read from webpkit.toml (./ or ~/.config/webpkit/) and
WEBPKIT_* environment variables; flags take precedence.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return initConfig() },
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default webpkit.toml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.String("engine", "auto", "webp engine: auto, libwebp, wasm, cwebp, native")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.Int("max-pixels", webp.DefaultMaxPixels, "refuse images with more pixels than this")

	bindFlag("engine", pf.Lookup("engine"))
	bindFlag("log_level", pf.Lookup("log-level"))
	bindFlag("max_pixels", pf.Lookup("max-pixels"))

	viper.SetEnvPrefix("WEBPKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"webpkit %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// bindFlag ties a config key to a flag so that an explicit flag overrides
// the config file and environment.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("webpkit")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "webpkit"))
		}
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (cfgFile != "" || !errors.As(err, &notFound)) {
		return fmt.Errorf("read config: %w", err)
	}

	level := zerolog.InfoLevel
	switch viper.GetString("log_level") {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if f := viper.ConfigFileUsed(); f != "" {
		log.Debug().Str("file", f).Msg("loaded config")
	}
	return nil
}

// newCodec builds a codec from the engine and max_pixels settings.
func newCodec() (*webp.Codec, error) {
	c, err := webp.New(
		webp.WithEngine(viper.GetString("engine")),
		webp.WithMaxPixels(viper.GetInt("max_pixels")),
	)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("engine", c.Engine()).Msg("codec ready")
	return c, nil
}
