package overlay

import (
	"slices"
	"strings"
)

// Style is an inline style whose properties keep their insertion order.
// The zero value is an empty style.
type Style struct {
	keys []string
	vals map[string]string
}

// Set adds or replaces a property. A replaced property keeps its position.
func (s *Style) Set(prop, value string) {
	if s.vals == nil {
		s.vals = make(map[string]string)
	}
	if _, ok := s.vals[prop]; !ok {
		s.keys = append(s.keys, prop)
	}
	s.vals[prop] = value
}

// Get returns a property value.
func (s *Style) Get(prop string) (string, bool) {
	v, ok := s.vals[prop]
	return v, ok
}

// Delete removes a property if present.
func (s *Style) Delete(prop string) {
	if _, ok := s.vals[prop]; !ok {
		return
	}
	delete(s.vals, prop)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == prop })
}

// Len returns the number of properties.
func (s *Style) Len() int { return len(s.keys) }

// String serializes the style as it is written to the style attribute.
func (s *Style) String() string {
	var b strings.Builder
	for _, k := range s.keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(s.vals[k])
		b.WriteByte(';')
	}
	return b.String()
}
