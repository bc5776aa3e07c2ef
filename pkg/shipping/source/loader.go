package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"parcelhq/meridian/pkg/shipping"
	"parcelhq/meridian/pkg/storage"
)

// profileFile is the on-disk document shape.
type profileFile struct {
	Profiles []shipping.Profile `yaml:"profiles"`
}

// LoadFile parses one YAML profile file.
func LoadFile(path string) ([]shipping.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	var doc profileFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse profile file %q: %w", path, err)
	}

	for i := range doc.Profiles {
		if doc.Profiles[i].Name == "" {
			return nil, fmt.Errorf("profile %d in %q has no name", i, path)
		}
	}

	return doc.Profiles, nil
}

// LoadDir parses every .yaml/.yml file in dir, in lexical order.
// Files that fail to parse are skipped with a warning so one bad file
// cannot take down the whole set.
func LoadDir(dir string, logger *slog.Logger) ([]shipping.Profile, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read profile directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var profiles []shipping.Profile
	for _, name := range names {
		path := filepath.Join(dir, name)
		loaded, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping invalid profile file",
				"path", path,
				"error", err,
			)
			continue
		}
		profiles = append(profiles, loaded...)
	}

	return profiles, nil
}

// Source syncs profile files into the store.
type Source struct {
	path   string
	store  storage.Store
	logger *slog.Logger
}

// New creates a profile source for a file or directory path.
func New(path string, store storage.Store, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		path:   path,
		store:  store,
		logger: logger.With("component", "profile.source"),
	}
}

// Sync loads the configured path and upserts every profile into the
// store. Profiles are keyed by name: if a stored profile with the same
// name exists, it is updated in place instead of duplicated.
func (s *Source) Sync(ctx context.Context) (int, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("stat profile path: %w", err)
	}

	var profiles []shipping.Profile
	if info.IsDir() {
		profiles, err = LoadDir(s.path, s.logger)
	} else {
		profiles, err = LoadFile(s.path)
	}
	if err != nil {
		return 0, err
	}

	existing, err := s.store.ListProfiles(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[p.Name] = p.ID
	}

	synced := 0
	for i := range profiles {
		p := profiles[i]
		if p.ID == "" {
			p.ID = byName[p.Name]
		}
		if _, err := s.store.UpsertProfile(ctx, &p); err != nil {
			s.logger.Warn("profile sync failed",
				"profile", p.Name,
				"error", err,
			)
			continue
		}
		synced++
	}

	s.logger.Info("profiles synced",
		"path", s.path,
		"loaded", len(profiles),
		"synced", synced,
	)

	return synced, nil
}
