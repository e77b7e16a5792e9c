package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tokstream/pkg/types"
)

const modelExt = ".gguf"

// LoadDir scans a directory for *.gguf files. The ID is the file name
// without its extension; Path is the absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), modelExt) {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		models = append(models, types.Model{ID: id, Name: name, Path: filepath.Join(abs, name)})
	}
	return models, nil
}

// Merge combines configured and scanned models. Configured entries win on
// ID collisions. The result is sorted by ID.
func Merge(configured, scanned []types.Model) []types.Model {
	byID := make(map[string]types.Model, len(configured)+len(scanned))
	for _, m := range scanned {
		byID[m.ID] = m
	}
	for _, m := range configured {
		if m.Path != "" {
			if p, err := expandHome(m.Path); err == nil {
				m.Path = p
			}
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		byID[m.ID] = m
	}
	out := make([]types.Model, 0, len(byID))
	for _, m := range byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
