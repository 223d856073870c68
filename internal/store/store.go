package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ytdb/internal/contentid"
)

// Store is rooted at the output directory of a run. It is not safe for use
// by concurrent processes on the same root.
type Store struct {
	root string
}

// Open returns a Store rooted at root, which must be an existing directory.
func Open(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("store: output directory is empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("store: output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store: output directory %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

// Root returns the store root.
func (s *Store) Root() string {
	return s.root
}

// ItemDir returns the sharded directory of id.
func (s *Store) ItemDir(id contentid.ID) (string, error) {
	return ShardPath(s.root, id)
}

// Load reads the manifest of id. A missing manifest yields an empty manifest
// whose Exists method reports false. When only a staged manifest survives an
// interrupted commit and it parses, it is promoted into place.
func (s *Store) Load(id contentid.ID) (*Manifest, error) {
	dir, err := s.ItemDir(id)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err == nil {
		m, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return s.promoteStaged(dir)
}

func (s *Store) promoteStaged(dir string) (*Manifest, error) {
	tmpPath := filepath.Join(dir, ManifestTempName)
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("read staged manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return NewManifest(), nil
	}
	for _, name := range m.FileNames() {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return NewManifest(), nil
		}
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, ManifestName)); err != nil {
		return nil, fmt.Errorf("promote staged manifest: %w", err)
	}
	return m, nil
}
