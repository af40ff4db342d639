package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManifestRoundtrip(t *testing.T) {
	m := New("test-profile", "wasm")
	m.BuildInfo = &BuildInfo{Workers: 4, Verified: true}
	m.Assets["test/image"] = Asset{
		Original: OriginalInfo{
			Width: 800, Height: 600,
			Format: "jpeg", Size: 100000, HasAlpha: false,
		},
		AspectRatio: 1.3333,
		AvgColor:    &[3]uint8{10, 20, 30},
		Output: Output{
			Mode: "lossy", Layout: "rgb", Quality: 82,
			Width: 800, Height: 600, Size: 5000,
			Hash: "abcd1234abcd1234", Path: "test/image.abcd1234.webp",
		},
	}
	m.Stats.SkippedRegress = 2

	// Write to temp file.
	path := filepath.Join(t.TempDir(), FileName)
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	m2, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if m2.Profile != "test-profile" {
		t.Errorf("profile: got %q", m2.Profile)
	}
	if m2.Engine != "wasm" {
		t.Errorf("engine: got %q", m2.Engine)
	}
	if m2.BuildInfo == nil {
		t.Fatal("build_info missing")
	}
	if m2.BuildInfo.Workers != 4 || !m2.BuildInfo.Verified {
		t.Errorf("build_info: got %+v", *m2.BuildInfo)
	}

	a, ok := m2.Assets["test/image"]
	if !ok {
		t.Fatal("asset test/image missing")
	}
	if a.Output.Mode != "lossy" || a.Output.Quality != 82 {
		t.Errorf("output: got %+v", a.Output)
	}
	if a.AvgColor == nil || *a.AvgColor != [3]uint8{10, 20, 30} {
		t.Errorf("avg_color: got %v", a.AvgColor)
	}

	// Stats.
	if m2.Stats.TotalAssets != 1 {
		t.Errorf("total_assets: got %d", m2.Stats.TotalAssets)
	}
	if m2.Stats.TotalInputBytes != 100000 || m2.Stats.TotalOutputBytes != 5000 {
		t.Errorf("bytes: got %d -> %d", m2.Stats.TotalInputBytes, m2.Stats.TotalOutputBytes)
	}
	if m2.Stats.SkippedRegress != 2 {
		t.Errorf("skipped_regress: got %d", m2.Stats.SkippedRegress)
	}
}

func TestManifestVersion(t *testing.T) {
	m := New("v-test", "native")
	if m.Version != SupportedManifestVersion {
		t.Errorf("new manifest version: got %d, want %d", m.Version, SupportedManifestVersion)
	}

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(`{"version": 99, "assets": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(path); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestManifestIgnoresUnknownFields(t *testing.T) {
	// Simulate a future manifest with extra fields.
	raw := `{
		"version": 1,
		"generated_at": "2025-01-01T00:00:00Z",
		"profile": "test",
		"engine": "libwebp",
		"base_path": "./",
		"future_field": "should be ignored",
		"build_info": { "workers": 8, "verified": false, "new_flag": true },
		"assets": {},
		"stats": { "total_input_bytes": 0, "total_output_bytes": 0, "total_assets": 0, "new_stat": 42 }
	}`

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read with unknown fields: %v", err)
	}
	if m.BuildInfo == nil || m.BuildInfo.Workers != 8 {
		t.Error("build_info not parsed correctly")
	}
}

func TestReadJSONErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadJSON(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(bad); err == nil {
		t.Error("expected error for malformed json")
	}
}
