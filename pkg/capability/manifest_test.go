package capability

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseManifest(t *testing.T) {
	t.Parallel()
	data := []byte(`
capabilities:
  - name: docker
    min_version: "20.10"
  - name: postgres
`)
	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	want := []Requirement{{Name: "docker", MinVersion: "20.10"}, {Name: "postgres"}}
	if len(m.Capabilities) != len(want) {
		t.Fatalf("got %d requirements", len(m.Capabilities))
	}
	for i := range want {
		if m.Capabilities[i] != want[i] {
			t.Fatalf("requirement %d = %+v, want %+v", i, m.Capabilities[i], want[i])
		}
	}
}

func TestParseManifestErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"unknown field": "capabilities:\n  - name: git\n    minimum: 2\n",
		"missing name":  "capabilities:\n  - min_version: \"1\"\n",
		"not yaml":      "capabilities: [",
	}
	for name, doc := range tests {
		if _, err := ParseManifest([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "capabilities.yaml")
	if err := os.WriteFile(path, []byte("capabilities:\n  - name: redis\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(m.Capabilities) != 1 || m.Capabilities[0].Name != "redis" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if m, err := ParseManifest(nil); err != nil || len(m.Capabilities) != 0 {
		t.Fatalf("empty manifest: %+v, %v", m, err)
	}
}

func TestParseRequirement(t *testing.T) {
	t.Parallel()
	tests := map[string]Requirement{
		"git":          {Name: "git"},
		"docker@20.10": {Name: "docker", MinVersion: "20.10"},
		" redis@7 ":    {Name: "redis", MinVersion: "7"},
	}
	for in, want := range tests {
		got, err := ParseRequirement(in)
		if err != nil || got != want {
			t.Errorf("ParseRequirement(%q) = %+v, %v", in, got, err)
		}
		if got.String() != want.String() {
			t.Errorf("String() = %q", got.String())
		}
	}
	if _, err := ParseRequirement("@1.0"); err == nil {
		t.Fatal("expected error for missing name")
	}
}
