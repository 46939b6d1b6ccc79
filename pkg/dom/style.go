package dom

import (
	"strings"

	"github.com/gorilla/css/scanner"
)

// Style is the inline style declaration of an element. It reads from and
// writes through to the element's "style" attribute.
type Style struct {
	el *Node
}

type declaration struct {
	name  string
	value string
}

// Style returns the inline style of the element.
func (n *Node) Style() *Style {
	return &Style{el: n}
}

// CSSText returns the serialised declarations, e.g. "color: red; top: 0px;".
func (s *Style) CSSText() string {
	return serializeDeclarations(s.decls())
}

// SetCSSText replaces every declaration. An empty string removes the
// style attribute.
func (s *Style) SetCSSText(text string) {
	s.store(parseDeclarations(text))
}

// GetPropertyValue returns the value of a declaration, or "".
func (s *Style) GetPropertyValue(name string) string {
	for _, d := range s.decls() {
		if d.name == name {
			return d.value
		}
	}
	return ""
}

// SetProperty sets a declaration. An empty value removes it.
func (s *Style) SetProperty(name, value string) {
	if value == "" {
		s.RemoveProperty(name)
		return
	}
	decls := s.decls()
	for i := range decls {
		if decls[i].name == name {
			decls[i].value = value
			s.store(decls)
			return
		}
	}
	s.store(append(decls, declaration{name: name, value: value}))
}

// RemoveProperty removes a declaration.
func (s *Style) RemoveProperty(name string) {
	decls := s.decls()
	out := decls[:0]
	for _, d := range decls {
		if d.name != name {
			out = append(out, d)
		}
	}
	s.store(out)
}

// Len returns the number of declarations.
func (s *Style) Len() int {
	return len(s.decls())
}

func (s *Style) decls() []declaration {
	text, _ := s.el.GetAttribute("style")
	return parseDeclarations(text)
}

func (s *Style) store(decls []declaration) {
	if len(decls) == 0 {
		s.el.RemoveAttribute("style")
		return
	}
	s.el.SetAttribute("style", serializeDeclarations(decls))
}

// parseDeclarations splits CSS text into declarations. Semicolons and
// colons only separate declarations at the top level, so strings, url()
// values and function arguments keep theirs.
func parseDeclarations(text string) []declaration {
	var (
		decls       []declaration
		name, value strings.Builder
		inValue     bool
		depth       int
	)
	flush := func() {
		n, v := strings.TrimSpace(name.String()), strings.TrimSpace(value.String())
		if inValue && n != "" && v != "" {
			decls = append(decls, declaration{name: n, value: v})
		}
		name.Reset()
		value.Reset()
		inValue = false
	}

	s := scanner.New(text)
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.TokenEOF, scanner.TokenError:
			flush()
			return decls
		case scanner.TokenComment:
			continue
		case scanner.TokenFunction:
			depth++
		case scanner.TokenChar:
			switch tok.Value {
			case "(":
				depth++
			case ")":
				if depth > 0 {
					depth--
				}
			case ";":
				if depth == 0 {
					flush()
					continue
				}
			case ":":
				if depth == 0 && !inValue {
					inValue = true
					continue
				}
			}
		}
		if inValue {
			value.WriteString(tok.Value)
		} else {
			name.WriteString(tok.Value)
		}
	}
}

func serializeDeclarations(decls []declaration) string {
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.name)
		b.WriteString(": ")
		b.WriteString(d.value)
		b.WriteByte(';')
	}
	return b.String()
}
