package idom

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/idom/pkg/dom"
)

// AttrMutator applies a declared attribute value to an element. A nil value
// means the attribute was removed from the declaration.
type AttrMutator func(el *dom.Node, name string, value any)

// AttributeRegistry maps attribute names to mutators. Names without a
// registered mutator use the default mutator.
type AttributeRegistry struct {
	mu       sync.RWMutex
	byName   map[string]AttrMutator
	fallback AttrMutator
}

// NewAttributeRegistry returns a registry with ApplyAttributeTyped as the
// default mutator and ApplyStyle registered for "style".
func NewAttributeRegistry() *AttributeRegistry {
	return &AttributeRegistry{
		byName:   map[string]AttrMutator{"style": ApplyStyle},
		fallback: ApplyAttributeTyped,
	}
}

// Attributes is the registry used by patchers that were not given one with
// WithAttributes.
var Attributes = NewAttributeRegistry()

// Register sets the mutator for name.
func (r *AttributeRegistry) Register(name string, m AttrMutator) {
	r.mu.Lock()
	r.byName[name] = m
	r.mu.Unlock()
}

// Unregister removes the mutator for name so the default applies again.
func (r *AttributeRegistry) Unregister(name string) {
	r.mu.Lock()
	delete(r.byName, name)
	r.mu.Unlock()
}

// SetDefault replaces the default mutator. A nil mutator restores
// ApplyAttributeTyped.
func (r *AttributeRegistry) SetDefault(m AttrMutator) {
	if m == nil {
		m = ApplyAttributeTyped
	}
	r.mu.Lock()
	r.fallback = m
	r.mu.Unlock()
}

// Apply updates the attribute name of el using the registered mutator.
func (r *AttributeRegistry) Apply(el *dom.Node, name string, value any) {
	r.mu.RLock()
	m, ok := r.byName[name]
	if !ok {
		m = r.fallback
	}
	r.mu.RUnlock()
	m(el, name, value)
}

// ApplyAttributeTyped is the default mutator. Strings, booleans and numbers
// are written as markup attributes; any other non-nil value is stored as a
// node property. A nil value removes both.
func ApplyAttributeTyped(el *dom.Node, name string, value any) {
	if value == nil {
		ApplyAttr(el, name, nil)
		if _, ok := el.Prop(name); ok {
			el.SetProp(name, nil)
		}
		return
	}
	if isPrimitive(value) {
		ApplyAttr(el, name, value)
		return
	}
	ApplyProp(el, name, value)
}

// ApplyAttr writes value as a markup attribute, or removes the attribute if
// value is nil. Names prefixed with "xml:" or "xlink:" are set in their
// namespace.
func ApplyAttr(el *dom.Node, name string, value any) {
	if value == nil {
		el.RemoveAttribute(name)
		return
	}
	s := fmt.Sprint(value)
	if ns := attrNamespace(name); ns != "" {
		el.SetAttributeNS(ns, name, s)
		return
	}
	el.SetAttribute(name, s)
}

// ApplyProp stores value as a node property.
func ApplyProp(el *dom.Node, name string, value any) {
	el.SetProp(name, value)
}

// ApplyStyle sets the inline style of el. A string replaces the whole CSS
// text. A map[string]string or map[string]any clears the style and sets each
// property; camelCase names are converted to their dashed form. Any other
// value, including nil, clears the style.
func ApplyStyle(el *dom.Node, _ string, value any) {
	style := el.Style()
	switch v := value.(type) {
	case string:
		style.SetCSSText(v)
	case map[string]string:
		style.SetCSSText("")
		for _, prop := range sortedKeys(v) {
			setStyleValue(style, prop, v[prop])
		}
	case map[string]any:
		style.SetCSSText("")
		for _, prop := range sortedKeys(v) {
			if v[prop] == nil {
				continue
			}
			setStyleValue(style, prop, fmt.Sprint(v[prop]))
		}
	default:
		style.SetCSSText("")
	}
}

func setStyleValue(style *dom.Style, prop, value string) {
	if strings.Contains(prop, "-") {
		style.SetProperty(prop, value)
		return
	}
	style.SetProperty(dashed(prop), value)
}

// dashed converts a camelCase style property name such as "backgroundColor"
// to "background-color".
func dashed(prop string) string {
	var b strings.Builder
	for _, r := range prop {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func attrNamespace(name string) string {
	switch {
	case strings.HasPrefix(name, "xml:"):
		return dom.XMLNamespace
	case strings.HasPrefix(name, "xlink:"):
		return dom.XLinkNamespace
	default:
		return ""
	}
}

func isPrimitive(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
