package docstore

import (
	"fmt"
	"strings"
)

// Path addresses a (possibly nested) field of a document as an ordered list
// of keys.
type Path []string

// ParsePath parses a dotted path. Empty segments are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(s, ".")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
	}
	return Path(segments), nil
}

// MustParsePath is ParsePath for paths known at compile time.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether two paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// GetPath returns the value at p. The boolean is false when any segment is
// missing or an intermediate value is not an object.
func GetPath(doc map[string]interface{}, p Path) (interface{}, bool) {
	if len(p) == 0 {
		return nil, false
	}

	current := doc
	for i, key := range p {
		value, ok := current[key]
		if !ok {
			return nil, false
		}
		if i == len(p)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// SetPath stores value at p, creating intermediate objects as needed. It
// fails when an intermediate value exists but is not an object.
func SetPath(doc map[string]interface{}, p Path, value interface{}) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	current := doc
	for i, key := range p[:len(p)-1] {
		existing, ok := current[key]
		if !ok || existing == nil {
			next := make(map[string]interface{})
			current[key] = next
			current = next
			continue
		}
		next, ok := existing.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %s is not an object", ErrInvalidPath, p[:i+1].String())
		}
		current = next
	}

	current[p[len(p)-1]] = value
	return nil
}

// DeletePath removes the value at p and reports whether anything was removed.
// Objects left empty by the removal are kept.
func DeletePath(doc map[string]interface{}, p Path) bool {
	if len(p) == 0 {
		return false
	}

	current := doc
	for _, key := range p[:len(p)-1] {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}

	last := p[len(p)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
