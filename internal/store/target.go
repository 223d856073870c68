package store

import (
	"fmt"
	"strings"
)

// TargetType selects which asset is fetched for an item.
type TargetType string

const (
	TargetAudio TargetType = "audio"
	TargetVideo TargetType = "video"
)

// ParseTargetType validates a target type name.
func ParseTargetType(value string) (TargetType, error) {
	switch TargetType(strings.ToLower(strings.TrimSpace(value))) {
	case TargetAudio:
		return TargetAudio, nil
	case TargetVideo:
		return TargetVideo, nil
	default:
		return "", fmt.Errorf("unsupported target type %q (want audio or video)", value)
	}
}

func (t TargetType) String() string { return string(t) }

// SidecarKey is the manifest key of the metadata sidecar for t.
func (t TargetType) SidecarKey() string { return string(t) + "_info" }

// SidecarName is the committed file name of the metadata sidecar for t.
func (t TargetType) SidecarName() string { return t.SidecarKey() + ".json" }
