package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ytdb/internal/contentid"
)

// Cleanup restores the item directory of id to the state described by
// manifest. Without an existing manifest the whole directory is removed;
// otherwise every entry the manifest does not reference is removed and a
// missing manifest.json is rewritten from manifest.
func (s *Store) Cleanup(id contentid.ID, manifest *Manifest) error {
	dir, err := s.ItemDir(id)
	if err != nil {
		return err
	}
	if !manifest.Exists() {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove item directory: %w", err)
		}
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("list item directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == ManifestName || manifest.References(name) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	if _, err := os.Lstat(filepath.Join(dir, ManifestName)); errors.Is(err, fs.ErrNotExist) {
		if err := writeManifest(dir, manifest); err != nil {
			return fmt.Errorf("restore manifest: %w", err)
		}
	}
	return nil
}

// Reconcile discards leftovers of an interrupted run for id. It returns the
// manifest that remains authoritative.
func (s *Store) Reconcile(id contentid.ID) (*Manifest, error) {
	dir, err := s.ItemDir(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("stat item directory: %w", err)
	}
	manifest, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	if err := s.Cleanup(id, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}
