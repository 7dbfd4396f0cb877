package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != filepath.Base(dir) {
		t.Fatalf("Name = %q, want %q", m.Name, filepath.Base(dir))
	}
	if m.Output != Executable {
		t.Fatalf("Output = %q, want Executable", m.Output)
	}
	if m.TargetTriple == "" || m.OptLevel == "" {
		t.Fatalf("expected defaulted TargetTriple/OptLevel, got %+v", m)
	}
}

func TestLoadParsesWrittenManifest(t *testing.T) {
	dir := t.TempDir()
	const body = `{
		"name": "mylib",
		"version": "1.2.3",
		"output": "static_library",
		"link": ["libm"],
		"dependencies": {"other": "1.0.0"}
	}`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "mylib" || m.Version != "1.2.3" || m.Output != StaticLibrary {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if len(m.Link) != 1 || m.Link[0] != "libm" {
		t.Fatalf("Link = %v, want [libm]", m.Link)
	}
	if m.Dependencies["other"] != "1.0.0" {
		t.Fatalf("Dependencies = %v", m.Dependencies)
	}
}

func TestLoadRejectsUnknownOutputKind(t *testing.T) {
	dir := t.TempDir()
	body := `{"name": "bad", "output": "not_a_real_kind"}`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected an error for an unknown output kind")
	}
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Name: "roundtrip", Version: "0.1.0", Output: DynamicLibrary, TargetTriple: "x86_64-linux", OptLevel: "release"}
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != m.Name || loaded.Output != m.Output {
		t.Fatalf("round trip mismatch: got %+v, want %+v", loaded, m)
	}
}
