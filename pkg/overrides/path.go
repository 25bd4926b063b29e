package overrides

import (
	"errors"
	"strings"
)

// ErrInvalidPath reports a dot-path with an empty segment.
var ErrInvalidPath = errors.New("invalid path")

// Path is an ordered, non-empty list of non-empty segment names.
type Path []string

// ParsePath splits a dot-delimited address. Segments are trimmed; an empty
// input or any empty segment ("a..b", ".a", "a.", " . ") is rejected.
func ParsePath(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(trimmed, ".")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, ErrInvalidPath
		}
		parts[i] = part
	}
	return Path(parts), nil
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// PathError carries the user-facing text for a rejected path.
type PathError struct {
	Raw     string
	Message string
}

func (e *PathError) Error() string {
	return e.Message
}

func (e *PathError) Is(target error) bool {
	return target == ErrInvalidPath
}
