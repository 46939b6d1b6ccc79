package idom

import (
	"fmt"

	"github.com/vango-dev/idom/pkg/dom"
)

// Formatter transforms a text value before it is written to a text node.
type Formatter func(value any) any

// ElementOpen declares an element and descends into it. statics are applied
// once, when the element is first patched; attrs are diffed against the
// values applied by the previous patch. It returns the element.
func (c *Cursor) ElementOpen(nameOrCtor NameOrCtor, key Key, statics []Attr, attrs ...Attr) *dom.Node {
	if Debug() {
		c.assertInPatch("elementOpen")
		c.assertNotInAttributes("elementOpen")
		c.assertNotInSkip("elementOpen")
	}

	node := c.Open(nameOrCtor, key)
	data := GetData(node, nil)
	if !data.StaticsApplied {
		c.applyStatics(node, data, statics)
	}
	if len(attrs) == 0 && data.hasEmptyAttrs() {
		return node
	}
	calculateDiff(&c.diff, &data.attrs, attrs, node, c.updateAttribute)
	return node
}

// ElementOpenStart begins an element declaration whose attributes follow
// as Attr calls. ElementOpenEnd completes it.
func (c *Cursor) ElementOpenStart(nameOrCtor NameOrCtor, key Key, statics []Attr) {
	if Debug() {
		c.assertInPatch("elementOpenStart")
		c.assertNotInAttributes("elementOpenStart")
		c.inAttributes = true
	}
	c.pending = pendingElement{nameOrCtor: nameOrCtor, key: key, statics: statics}
	c.pendingAttrs = c.pendingAttrs[:0]
}

// Key sets the key of the element being declared, replacing the one given
// to ElementOpenStart.
func (c *Cursor) Key(key Key) {
	if Debug() {
		c.assertInPatch("key")
		c.assertInAttributes("key")
	}
	c.pending.key = key
}

// Attr declares an attribute of the element being declared.
func (c *Cursor) Attr(name string, value any) {
	if Debug() {
		c.assertInPatch("attr")
		c.assertInAttributes("attr")
	}
	c.pendingAttrs = append(c.pendingAttrs, Attr{Name: name, Value: value})
}

// ElementOpenEnd completes the declaration started by ElementOpenStart and
// descends into the element. It returns the element.
func (c *Cursor) ElementOpenEnd() *dom.Node {
	if Debug() {
		c.assertInPatch("elementOpenEnd")
		c.assertInAttributes("elementOpenEnd")
		c.inAttributes = false
	}
	pending := c.pending
	node := c.ElementOpen(pending.nameOrCtor, pending.key, pending.statics, c.pendingAttrs...)

	c.pending = pendingElement{}
	clear(c.pendingAttrs)
	c.pendingAttrs = c.pendingAttrs[:0]
	return node
}

// ElementClose closes the current element. In debug mode nameOrCtor must
// match the element being closed. It returns the element.
func (c *Cursor) ElementClose(nameOrCtor NameOrCtor) *dom.Node {
	if Debug() {
		c.assertInPatch("elementClose")
		c.assertNotInAttributes("elementClose")
	}
	node := c.Close()
	if Debug() {
		assertCloseMatchesOpenTag(GetData(node, nil).NameOrCtor, nameOrCtor)
	}
	return node
}

// ElementVoid declares an element with no children. It returns the element.
func (c *Cursor) ElementVoid(nameOrCtor NameOrCtor, key Key, statics []Attr, attrs ...Attr) *dom.Node {
	c.ElementOpen(nameOrCtor, key, statics, attrs...)
	return c.ElementClose(nameOrCtor)
}

// Text declares a text node. formatters run only when value differs from
// the value declared by the previous patch, and the node is written only
// when the formatted text differs from its content.
func (c *Cursor) Text(value any, formatters ...Formatter) *dom.Node {
	if Debug() {
		c.assertInPatch("text")
		c.assertNotInAttributes("text")
		c.assertNotInSkip("text")
	}

	node := c.AlignText()
	data := GetData(node, nil)
	if data.textSet && sameValue(data.text, value) {
		return node
	}
	data.text, data.textSet = value, true

	formatted := value
	for _, f := range formatters {
		formatted = f(formatted)
	}
	if s := textValue(formatted); node.Data() != s {
		node.SetData(s)
	}
	return node
}

func textValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (c *Cursor) updateAttribute(el *dom.Node, name string, value any) {
	c.p.registry().Apply(el, name, value)
}

// applyStatics applies statics to a node the first time it is declared. For
// an imported node, statics that already have the declared value are left
// alone, and every static is dropped from the dynamic attribute cache.
func (c *Cursor) applyStatics(node *dom.Node, data *NodeData, statics []Attr) {
	data.StaticsApplied = true
	if len(statics) == 0 {
		return
	}
	if data.hasEmptyAttrs() {
		for _, s := range statics {
			c.updateAttribute(node, s.Name, s.Value)
		}
		return
	}

	if c.staticsIndex == nil {
		c.staticsIndex = make(map[string]int, len(statics))
	}
	index := c.staticsIndex
	for i, s := range statics {
		index[s.Name] = i
	}

	attrs := data.attrs
	j := 0
	for _, a := range attrs {
		if i, ok := index[a.Name]; ok {
			if sameValue(statics[i].Value, a.Value) {
				delete(index, a.Name)
			}
			continue
		}
		attrs[j] = a
		j++
	}
	clear(attrs[j:])
	data.attrs = attrs[:j]

	for _, s := range statics {
		if i, ok := index[s.Name]; ok {
			c.updateAttribute(node, s.Name, statics[i].Value)
			delete(index, s.Name)
		}
	}
}
