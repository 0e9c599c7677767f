package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Binding maps a schedule-facing callback name to a callback that is
// already registered under a different name. This is the closest Go
// equivalent to hot-swapping a Python module's top-level function: rather
// than dynamically importing source, an operator drops a manifest file
// naming which already-registered callback should answer to which name.
type Binding struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

type manifest struct {
	Bindings []Binding `yaml:"bindings"`
}

// LoadManifest parses a single YAML manifest file.
func LoadManifest(path string) ([]Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read manifest %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("registry: parse manifest %s: %w", path, err)
	}
	return m.Bindings, nil
}

// UpdateFromDirectory scans dir for *.yml/*.yaml manifests and applies every
// binding found, in filename order. A binding naming a target that is not
// (yet) registered is logged and skipped rather than aborting the whole
// scan, so one bad manifest file doesn't block the rest.
func (r *Registry) UpdateFromDirectory(dir string) (applied int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("registry: read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, path := range files {
		bindings, err := LoadManifest(path)
		if err != nil {
			r.logger.Error("skipping unreadable manifest", "path", path, "error", err)
			continue
		}
		for _, b := range bindings {
			if err := r.Bind(b.Name, b.Target); err != nil {
				r.logger.Warn("skipping binding with unknown target", "path", path, "name", b.Name, "target", b.Target, "error", err)
				continue
			}
			applied++
		}
	}
	return applied, nil
}

// WithLogger swaps the registry's logger, mirroring the constructor default.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
	return r
}
