// Package modelstore loads speech-model manifests from YAML files and
// optionally hot-reloads them when the manifest directory changes. A
// manifest maps a short model name to its on-disk path so streams can be
// switched between languages without restarting the service.
package modelstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Entry describes one installed speech model.
type Entry struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Language string `yaml:"language"`
	Default  bool   `yaml:"default"`
}

// Store loads and optionally hot-reloads model manifests from YAML files.
type Store struct {
	dir string

	mu     sync.RWMutex
	models map[string]Entry
	deflt  string
	onLoad func([]Entry)
}

// NewStore creates a model store for the given manifest directory.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		models: make(map[string]Entry),
	}
}

// OnReload registers a callback invoked after every successful LoadAll,
// including reloads triggered by the watcher. Must be set before
// WatchAndReload starts.
func (s *Store) OnReload(fn func([]Entry)) {
	s.mu.Lock()
	s.onLoad = fn
	s.mu.Unlock()
}

// LoadAll loads all .yaml and .yml manifests from the configured directory.
func (s *Store) LoadAll() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read manifest dir %q: %w", s.dir, err)
	}

	result := make(map[string]Entry)
	deflt := ""
	var loaded []Entry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		models, err := s.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", path, err)
		}
		for _, m := range models {
			result[m.Name] = m
			if m.Default {
				deflt = m.Name
			}
			loaded = append(loaded, m)
		}
	}

	s.mu.Lock()
	s.models = result
	s.deflt = deflt
	onLoad := s.onLoad
	s.mu.Unlock()

	if onLoad != nil {
		onLoad(loaded)
	}
	return loaded, nil
}

// Get returns a model entry by name.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	return m, ok
}

// Default returns the entry marked default in the manifests, or false when
// no manifest declares one.
func (s *Store) Default() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deflt == "" {
		return Entry{}, false
	}
	m, ok := s.models[s.deflt]
	return m, ok
}

// All returns all loaded model entries keyed by name.
func (s *Store) All() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]Entry, len(s.models))
	for k, v := range s.models {
		result[k] = v
	}
	return result
}

func (s *Store) loadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest struct {
		Models []Entry `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	for i, m := range manifest.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("model #%d has no name", i)
		}
		if m.Path == "" {
			return nil, fmt.Errorf("model %q has no path", m.Name)
		}
	}
	return manifest.Models, nil
}

// WatchAndReload starts watching the manifest directory for changes and
// reloads. This blocks until the done channel is closed.
func (s *Store) WatchAndReload(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", s.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				ext := filepath.Ext(event.Name)
				if ext == ".yaml" || ext == ".yml" {
					s.LoadAll()
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
