package dynaexpr

import "strings"

// PathSeparator separates the segments of a nested attribute path.
const PathSeparator = "."

// Placeholder prefixes. Filters and key conditions use different prefixes so that
// a filter on an attribute already constrained by a key condition never replaces
// the key's own placeholder.
const (
	FilterNamePrefix  = "#attr_"
	FilterValuePrefix = ":val_"
	KeyNamePrefix     = "#key_"
	KeyValuePrefix    = ":key_"
)

// Sanitize strips every character outside [A-Za-z0-9_] from segment.
//
// Two different segments that sanitize to the same token resolve to the same
// placeholder; "a-b" and "ab" are indistinguishable once sanitized.
func Sanitize(segment string) string {
	var sb strings.Builder
	sb.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		if c := segment[i]; isPlaceholderChar(c) {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isPlaceholderChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Segments splits path on [PathSeparator].
func Segments(path string) []string {
	return strings.Split(path, PathSeparator)
}

// ResolvePath translates a dotted attribute path into a reference chain and the
// name placeholders it uses. A path without separators yields a single placeholder
// mapped to the path itself; a nested path yields one placeholder per segment,
// joined with the separator:
//
//	ref, names := ResolvePath("user.profile.id", FilterNamePrefix)
//	// ref   == "#attr_user.#attr_profile.#attr_id"
//	// names == {"#attr_user": "user", "#attr_profile": "profile", "#attr_id": "id"}
func ResolvePath(path, namePrefix string) (reference string, names map[string]string) {
	if !strings.Contains(path, PathSeparator) {
		placeholder := namePrefix + Sanitize(path)
		return placeholder, map[string]string{placeholder: path}
	}

	segments := Segments(path)
	names = make(map[string]string, len(segments))
	refs := make([]string, len(segments))
	for i, segment := range segments {
		placeholder := namePrefix + Sanitize(segment)
		names[placeholder] = segment
		refs[i] = placeholder
	}
	return strings.Join(refs, PathSeparator), names
}

// valueKey returns the value placeholder for path: the prefix followed by the
// sanitized concatenation of all segments.
func valueKey(path, valuePrefix string) string {
	return valuePrefix + Sanitize(path)
}
