package contentid

import "strings"

// ID identifies one remote content item.
type ID string

// MinLength is the shortest id the orchestrator will try to fetch.
const MinLength = 4

// idLength is the length of a canonical watch id.
const idLength = 11

func (id ID) String() string { return string(id) }

// Valid reports whether the id is long enough to be fetched and safe to use
// as a single path element.
func (id ID) Valid() bool {
	if len(id) < MinLength || id[0] == '.' {
		return false
	}
	return !strings.ContainsAny(string(id), "/\\\x00")
}

// Normalize converts a raw token into an ID. Watch URLs yield the first eleven
// characters after the last "v=" marker; shorts and youtu.be links yield the
// first eleven characters of the path segment. Anything else is returned as is.
func Normalize(token string) ID {
	token = strings.TrimSpace(token)
	if strings.Contains(token, "youtube.com") {
		if idx := strings.LastIndex(token, "v="); idx >= 0 {
			return ID(truncate(token[idx+2:]))
		}
		if idx := strings.Index(token, "youtube.com/shorts/"); idx >= 0 {
			return ID(truncate(pathSegment(token[idx+len("youtube.com/shorts/"):])))
		}
	}
	if idx := strings.Index(token, "youtu.be/"); idx >= 0 {
		return ID(truncate(pathSegment(token[idx+len("youtu.be/"):])))
	}
	return ID(token)
}

// Dedup removes repeated ids, keeping the first occurrence.
func Dedup(ids []ID) []ID {
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func truncate(value string) string {
	if len(value) > idLength {
		return value[:idLength]
	}
	return value
}

func pathSegment(value string) string {
	if idx := strings.IndexAny(value, "/?#&"); idx >= 0 {
		return value[:idx]
	}
	return value
}
