package dom

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ParseStyle parses an inline style attribute into property/value pairs.
// Later declarations of the same property win, as in a browser.
func ParseStyle(s string) (map[string]string, error) {
	decls, err := declarations(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(decls))
	for prop, d := range decls {
		out[prop] = d.Value
	}
	return out, nil
}

// EquivalentStyles reports whether two inline styles declare the same
// properties with the same values and priorities. Styles that fail to parse
// are compared as text.
func EquivalentStyles(a, b string) bool {
	if a == b {
		return true
	}
	da, errA := declarations(a)
	db, errB := declarations(b)
	if errA != nil || errB != nil || len(da) != len(db) {
		return false
	}
	for prop, d := range da {
		other, ok := db[prop]
		if !ok || !d.Equal(other) {
			return false
		}
	}
	return true
}

func declarations(s string) (map[string]*css.Declaration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]*css.Declaration{}, nil
	}
	// The parser is strict about the trailing semicolon.
	if !strings.HasSuffix(s, ";") {
		s += ";"
	}
	decls, err := parser.ParseDeclarations(s)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*css.Declaration, len(decls))
	for _, d := range decls {
		d.Property = strings.ToLower(d.Property)
		out[d.Property] = d
	}
	return out, nil
}

// Style returns the parsed inline style of the node. Unparseable styles
// yield an empty map.
func (n *Node) Style() map[string]string {
	s, _ := n.GetAttribute("style")
	m, err := ParseStyle(s)
	if err != nil {
		return map[string]string{}
	}
	return m
}

// StyleProperty returns one property of the inline style.
func (n *Node) StyleProperty(name string) string {
	return n.Style()[strings.ToLower(name)]
}
