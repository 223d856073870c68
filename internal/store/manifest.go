package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

const (
	// ManifestName is the manifest file inside each item directory.
	ManifestName = "manifest.json"
	// ManifestTempName is the manifest staged during a commit.
	ManifestTempName = ManifestName + ".tmp"
)

// Manifest records the committed files of one item keyed by target type and
// sidecar key, for example {"audio": "audio.webm", "audio_info": "audio_info.json"}.
type Manifest struct {
	Files map[string]string `json:"files"`

	exists bool
}

// NewManifest returns an empty manifest that does not exist on disk.
func NewManifest() *Manifest {
	return &Manifest{Files: make(map[string]string)}
}

// Exists reports whether the manifest was loaded from or written to disk.
func (m *Manifest) Exists() bool {
	return m != nil && m.exists
}

// Has reports whether target has been committed.
func (m *Manifest) Has(target TargetType) bool {
	if m == nil {
		return false
	}
	_, ok := m.Files[string(target)]
	return ok
}

// FileNames returns the referenced file names in sorted order.
func (m *Manifest) FileNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Files))
	for _, name := range m.Files {
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// References reports whether name is one of the manifest's files.
func (m *Manifest) References(name string) bool {
	if m == nil {
		return false
	}
	for _, file := range m.Files {
		if file == name {
			return true
		}
	}
	return false
}

// Targets returns the committed target keys in sorted order.
func (m *Manifest) Targets() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.Files))
}

func (m *Manifest) clone() *Manifest {
	return &Manifest{Files: maps.Clone(m.Files), exists: m.exists}
}

func (m *Manifest) set(target TargetType, mediaName string) {
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	m.Files[string(target)] = mediaName
	m.Files[target.SidecarKey()] = target.SidecarName()
}

// ParseManifest decodes manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Files == nil {
		return nil, fmt.Errorf("parse manifest: missing files object")
	}
	m.exists = true
	return &m, nil
}

func encodeManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}
