package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/webpkit/internal/manifest"
	"github.com/AnyUserName/webpkit/internal/profile"
	"github.com/AnyUserName/webpkit/webp"
)

// Config holds all parameters for a build pipeline run.
type Config struct {
	InputDir      string
	OutputDir     string
	Profile       profile.Profile
	Codec         *webp.Codec
	Workers       int
	NoRegressSize bool // skip outputs not smaller than the source file
	Verify        bool // probe every output and round-trip lossless ones
}

// Pipeline converts a directory of images to WebP.
type Pipeline struct {
	cfg Config
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{cfg: cfg}
}

// Run executes the full build pipeline and returns the manifest. Individual
// failures are logged and counted; Run fails only when nothing succeeded.
func (p *Pipeline) Run() (*manifest.Manifest, error) {
	if p.cfg.Codec == nil {
		return nil, fmt.Errorf("pipeline: no codec configured")
	}
	log.Debug().Str("engine", p.cfg.Codec.Engine()).Strs("available", webp.Engines()).Msg("webp engines")

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	log.Debug().Int("count", len(sources)).Msg("found images")

	// Step 2: Process images in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			log.Debug().Str("key", s.Key).Msg("processing")
			results[idx] = processImage(s, p.cfg)

			if r := results[idx]; r.err == nil && !r.skipped {
				log.Debug().
					Str("key", s.Key).
					Int64("in", s.Size).
					Int64("out", r.asset.Output.Size).
					Msg("done")
			}
		}(i, src)
	}
	wg.Wait()

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Profile.Name, p.cfg.Codec.Engine())

	var failed int
	for i, r := range results {
		if r.err == nil {
			if _, dup := m.Assets[r.key]; dup {
				r.err = fmt.Errorf("%s: duplicate asset key %q", sources[i].RelPath, r.key)
			}
		}
		switch {
		case r.err != nil:
			log.Error().Err(r.err).Str("source", sources[i].RelPath).Msg("failed")
			failed++
		case r.skipped:
			m.Stats.SkippedRegress++
		default:
			m.Assets[r.key] = r.asset
		}
	}

	// Report errors but don't fail the entire build for partial failures.
	if failed == len(sources) {
		return nil, fmt.Errorf("all %d images failed to process", failed)
	}
	if failed > 0 {
		log.Warn().Msgf("%d of %d images had errors", failed, len(sources))
	}

	m.BuildInfo = &manifest.BuildInfo{
		Workers:  p.cfg.Workers,
		Verified: p.cfg.Verify,
	}
	m.Stats.Failed = failed
	m.ComputeStats()
	return m, nil
}
