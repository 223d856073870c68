package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ytdb/internal/contentid"
	"ytdb/internal/fileutil"
)

// Commit moves a freshly fetched media file and its sidecar into the item
// directory of id and records them in manifest. manifest is updated in place
// only once the new manifest is on disk.
//
// Files are moved before the manifest is rewritten. The manifest is staged as
// manifest.json.tmp and fsynced, the old manifest is removed, then the staged
// file is renamed into place.
func (s *Store) Commit(id contentid.ID, target TargetType, mediaTemp, sidecarTemp string, manifest *Manifest) error {
	if manifest == nil {
		return errors.New("store: commit requires a manifest")
	}
	dir, err := s.ItemDir(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create item directory: %w", err)
	}

	if err := removeTargetFiles(dir, target); err != nil {
		return err
	}

	mediaName := string(target) + filepath.Ext(mediaTemp)
	if err := fileutil.MoveFile(mediaTemp, filepath.Join(dir, mediaName)); err != nil {
		return fmt.Errorf("move media file: %w", err)
	}
	if err := fileutil.MoveFile(sidecarTemp, filepath.Join(dir, target.SidecarName())); err != nil {
		return fmt.Errorf("move sidecar file: %w", err)
	}

	next := manifest.clone()
	next.set(target, mediaName)
	if err := writeManifest(dir, next); err != nil {
		return err
	}
	next.exists = true
	*manifest = *next
	return nil
}

func removeTargetFiles(dir string, target TargetType) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list item directory: %w", err)
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), string(target)) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("remove stale %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func writeManifest(dir string, manifest *Manifest) error {
	data, err := encodeManifest(manifest)
	if err != nil {
		return err
	}
	tmpPath := filepath.Join(dir, ManifestTempName)
	finalPath := filepath.Join(dir, ManifestName)
	if err := fileutil.WriteFileSync(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write staged manifest: %w", err)
	}
	if err := os.Remove(finalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove old manifest: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
