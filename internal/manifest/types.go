package manifest

// Manifest is the top-level output of a webpkit build.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	Engine      string           `json:"engine"`
	BasePath    string           `json:"base_path"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Assets      map[string]Asset `json:"assets"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures build-time parameters for diagnostics.
type BuildInfo struct {
	Workers  int  `json:"workers"`
	Verified bool `json:"verified"`
}

// Asset describes a single source image and its WebP output.
type Asset struct {
	Original    OriginalInfo `json:"original"`
	AspectRatio float64      `json:"aspect_ratio"`        // width / height
	AvgColor    *[3]uint8    `json:"avg_color,omitempty"` // [R,G,B] 0-255
	Output      Output       `json:"output"`
}

// OriginalInfo holds metadata about the source image.
type OriginalInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// Output is the encoded WebP file of an asset.
type Output struct {
	Mode    string  `json:"mode"`   // "lossy" or "lossless"
	Layout  string  `json:"layout"` // "gray", "rgb" or "rgba"
	Quality float32 `json:"quality,omitempty"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Size    int64   `json:"size"` // bytes on disk
	Hash    string  `json:"hash"` // 16 hex chars of xxhash64
	Path    string  `json:"path"` // relative to base_path
}

// Stats aggregates build metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalAssets      int   `json:"total_assets"`
	SkippedRegress   int   `json:"skipped_regress,omitempty"` // outputs not smaller than the source
	Failed           int   `json:"failed,omitempty"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// FileName is the manifest written next to the build outputs.
const FileName = "webpkit.manifest.json"
