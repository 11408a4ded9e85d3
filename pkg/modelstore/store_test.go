package modelstore

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "models.yaml", `
models:
  - name: en-us
    path: /usr/share/vosk/en-us
    language: en
    default: true
  - name: fr
    path: /usr/share/vosk/fr
    language: fr
`)
	writeManifest(t, dir, "notes.txt", "ignored")

	s := NewStore(dir)
	loaded, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d models, want 2", len(loaded))
	}

	m, ok := s.Get("fr")
	if !ok || m.Path != "/usr/share/vosk/fr" {
		t.Fatalf("Get(fr) = %+v, %v", m, ok)
	}

	d, ok := s.Default()
	if !ok || d.Name != "en-us" {
		t.Fatalf("Default() = %+v, %v", d, ok)
	}

	if got := len(s.All()); got != 2 {
		t.Fatalf("All() has %d entries, want 2", got)
	}
}

func TestLoadAllRejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "models.yaml", `
models:
  - name: en-us
`)

	if _, err := NewStore(dir).LoadAll(); err == nil {
		t.Fatal("LoadAll accepted a model without a path")
	}
}

func TestDefaultAbsent(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "models.yaml", `
models:
  - name: en-us
    path: /usr/share/vosk/en-us
`)

	s := NewStore(dir)
	if _, err := s.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, ok := s.Default(); ok {
		t.Fatal("Default() found an entry, want none")
	}
}

func TestOnReloadCallback(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "models.yaml", `
models:
  - name: en-us
    path: /usr/share/vosk/en-us
`)

	s := NewStore(dir)
	var got int
	s.OnReload(func(entries []Entry) { got = len(entries) })
	if _, err := s.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if got != 1 {
		t.Fatalf("callback saw %d entries, want 1", got)
	}
}
