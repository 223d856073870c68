package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ytdb/internal/contentid"
)

// ShardDepth is the number of single-character directory levels above each
// item directory.
const ShardDepth = 3

// ErrShortID is returned when an id is too short to be sharded.
var ErrShortID = errors.New("content id too short to shard")

// ErrUnsafeID is returned when an id cannot be used as a path element.
var ErrUnsafeID = errors.New("content id is not a safe path element")

// ShardPath returns root/id[0]/id[1]/id[2]/id. Ids with separators or with a
// dot among the shard characters are rejected so the result stays under root.
func ShardPath(root string, id contentid.ID) (string, error) {
	if len(id) < ShardDepth {
		return "", fmt.Errorf("%w: %q", ErrShortID, id)
	}
	if strings.ContainsAny(string(id), "/\\\x00") || strings.Contains(string(id[:ShardDepth]), ".") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeID, id)
	}
	parts := make([]string, 0, ShardDepth+2)
	parts = append(parts, root)
	for i := range ShardDepth {
		parts = append(parts, string(id[i]))
	}
	parts = append(parts, string(id))
	path := filepath.Join(parts...)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeID, id)
	}
	return path, nil
}
