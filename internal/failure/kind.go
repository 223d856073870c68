package failure

import (
	"fmt"
	"slices"
	"strings"
)

// Kind names a class of fetch failure. Values are persisted in the ledger.
type Kind string

const (
	KindInvalidID   Kind = "invalid_id"
	KindUnavailable Kind = "unavailable"
	KindPrivate     Kind = "private"
	KindRemoved     Kind = "removed"
	KindCopyright   Kind = "copyright"
	KindUnsupported Kind = "unsupported"
	KindOther       Kind = "other"
)

var allKinds = []Kind{
	KindInvalidID,
	KindUnavailable,
	KindPrivate,
	KindRemoved,
	KindCopyright,
	KindUnsupported,
	KindOther,
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return slices.Clone(allKinds)
}

func (k Kind) String() string { return string(k) }

// Known reports whether k is part of the taxonomy.
func (k Kind) Known() bool {
	return slices.Contains(allKinds, k)
}

// ParseKind validates a single kind name.
func ParseKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !kind.Known() {
		return "", fmt.Errorf("unknown failure kind %q", value)
	}
	return kind, nil
}

// KindSet is a set of kinds used to filter ledger entries.
type KindSet map[Kind]struct{}

// NewKindSet builds a set from kinds.
func NewKindSet(kinds ...Kind) KindSet {
	set := make(KindSet, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s KindSet) Contains(kind Kind) bool {
	_, ok := s[kind]
	return ok
}

// Sorted returns the members in taxonomy order.
func (s KindSet) Sorted() []Kind {
	out := make([]Kind, 0, len(s))
	for _, kind := range allKinds {
		if s.Contains(kind) {
			out = append(out, kind)
		}
	}
	return out
}

// String renders the set as a comma separated list.
func (s KindSet) String() string {
	parts := make([]string, 0, len(s))
	for _, kind := range s.Sorted() {
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, ",")
}

// ParseKindSet parses kind lists. Each value may itself be a comma separated
// list, so both ParseKindSet("removed,private") and
// ParseKindSet("removed", "private") are accepted. Empty entries are ignored.
func ParseKindSet(values ...string) (KindSet, error) {
	set := make(KindSet)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			kind, err := ParseKind(part)
			if err != nil {
				return nil, err
			}
			set[kind] = struct{}{}
		}
	}
	return set, nil
}

// DefaultSkipKinds returns the kinds that are not worth retrying.
func DefaultSkipKinds() KindSet {
	return NewKindSet(KindRemoved, KindUnavailable, KindUnsupported)
}
