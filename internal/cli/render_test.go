package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"empty output strips input ext", "", "scan.json", "scan"},
		{"output with format ext", "map.svg", "scan.json", "map"},
		{"output with png ext", "out/map.png", "scan.json", "out/map"},
		{"output without format ext", "map", "scan.json", "map"},
		{"output with unrelated ext", "map.backup", "scan.json", "map.backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestValidFormats(t *testing.T) {
	for _, f := range []string{"svg", "png", "dot", "json"} {
		if !validFormats[f] {
			t.Errorf("validFormats[%q] should be true", f)
		}
	}
	if validFormats["pdf"] {
		t.Error("validFormats[pdf] should be false")
	}
}

func TestWriteArtifactsSingleExplicitPath(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "map.svg")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": []byte("<svg/>")},
		formats:   []string{"svg"},
		input:     "scan.json",
		output:    out,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("output content = %q, want %q", data, "<svg/>")
	}
}

func TestWriteArtifactsMultipleDerivedPaths(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "scan.json")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			"svg": []byte("<svg/>"),
			"dot": []byte("digraph topology {}"),
		},
		formats: []string{"svg", "dot"},
		input:   input,
	})
	if err != nil {
		t.Fatalf("writeArtifacts() error: %v", err)
	}

	for _, ext := range []string{"svg", "dot"} {
		path := filepath.Join(dir, "scan."+ext)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}
