package persona

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/longkey1/llmchat/internal/config"
)

const fileExt = ".toml"

// Find returns the path of the named persona.
// Later directories take precedence over earlier ones.
func Find(name string, dirs []string) (string, error) {
	file := name
	if !strings.HasSuffix(file, fileExt) {
		file += fileExt
	}

	var found string
	for _, dir := range dirs {
		candidate := filepath.Join(dir, file)
		if _, err := os.Stat(candidate); err == nil {
			found = candidate
		}
	}

	if found == "" {
		return "", fmt.Errorf("persona file '%s' not found in any of the persona directories: %v", file, dirs)
	}
	return found, nil
}

// Resolve applies the persona named in cfg.Persona.Name, if any, and
// validates the result.
func Resolve(cfg *config.Config) (*config.Config, error) {
	if cfg.Persona.Name == "" {
		return cfg, nil
	}

	path, err := Find(cfg.Persona.Name, cfg.PersonaDirs)
	if err != nil {
		return nil, err
	}

	p, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading persona %s: %w", cfg.Persona.Name, err)
	}

	merged := p.ApplyTo(*cfg)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("persona %s: %w", cfg.Persona.Name, err)
	}
	return &merged, nil
}

// Entry is a persona discovered on disk
type Entry struct {
	Name string
	Dir  string
}

// List walks every directory and returns the personas found, sorted by name.
// A name present in several directories is reported once, from the
// directory that wins in Find.
func List(dirs []string) ([]Entry, error) {
	byName := make(map[string]string)

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			name := filepath.ToSlash(strings.TrimSuffix(rel, fileExt))
			byName[name] = dir
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking persona directory %s: %w", dir, err)
		}
	}

	entries := make([]Entry, 0, len(byName))
	for name, dir := range byName {
		entries = append(entries, Entry{Name: name, Dir: dir})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
