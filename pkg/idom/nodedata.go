package idom

import (
	"runtime"
	"sync"
	"weak"

	"github.com/vango-dev/idom/pkg/dom"
)

// NameOrCtor identifies the kind of an element: a tag name string or an
// ElementConstructor. Constructors are compared by identity, so they must be
// comparable values such as pointers.
type NameOrCtor = any

// Key distinguishes siblings that share a NameOrCtor. A nil Key means the
// node is unkeyed.
type Key = any

// textName is the NameOrCtor of text nodes.
const textName = "#text"

// NodeData is the identity record kept for every node the engine has seen.
// It never references the node it describes.
type NodeData struct {
	// NameOrCtor is the tag name or constructor the node was created or
	// imported with.
	NameOrCtor NameOrCtor

	// Key is the key the node was created or imported with.
	Key Key

	// StaticsApplied is set once the node's statics have been merged.
	StaticsApplied bool

	text    any
	textSet bool

	// attrs holds the last applied dynamic attributes in declaration order.
	attrs []Attr
}

// Attrs returns a copy of the cached dynamic attributes.
func (d *NodeData) Attrs() []Attr {
	if len(d.attrs) == 0 {
		return nil
	}
	return append([]Attr(nil), d.attrs...)
}

// Text returns the last raw value written to a text node and whether one has
// been written at all.
func (d *NodeData) Text() (any, bool) {
	return d.text, d.textSet
}

func (d *NodeData) hasEmptyAttrs() bool {
	return len(d.attrs) == 0
}

type cacheEntry struct {
	data    *NodeData
	cleanup runtime.Cleanup
}

// cache associates nodes with their NodeData without keeping the nodes
// alive. Entries are dropped by a runtime cleanup once the node is
// collected, which happens on a separate goroutine, hence the mutex.
var cache = struct {
	sync.Mutex
	m map[weak.Pointer[dom.Node]]cacheEntry
}{m: make(map[weak.Pointer[dom.Node]]cacheEntry)}

func lookupData(node *dom.Node) *NodeData {
	wp := weak.Make(node)
	cache.Lock()
	e, ok := cache.m[wp]
	cache.Unlock()
	if !ok {
		return nil
	}
	return e.data
}

func initData(node *dom.Node, nameOrCtor NameOrCtor, key Key) *NodeData {
	data := &NodeData{NameOrCtor: nameOrCtor, Key: key}
	wp := weak.Make(node)

	cache.Lock()
	defer cache.Unlock()
	if old, ok := cache.m[wp]; ok {
		old.cleanup.Stop()
	}
	cache.m[wp] = cacheEntry{
		data:    data,
		cleanup: runtime.AddCleanup(node, dropData, wp),
	}
	return data
}

func dropData(wp weak.Pointer[dom.Node]) {
	cache.Lock()
	delete(cache.m, wp)
	cache.Unlock()
}

func clearData(node *dom.Node) {
	wp := weak.Make(node)
	cache.Lock()
	if e, ok := cache.m[wp]; ok {
		e.cleanup.Stop()
		delete(cache.m, wp)
	}
	cache.Unlock()
}

// GetData returns the NodeData for node, importing it first if the engine
// has not seen it before. fallbackKey is used as the key of an imported
// element that has no key attribute.
func GetData(node *dom.Node, fallbackKey Key) *NodeData {
	return importSingleNode(node, fallbackKey)
}

// IsDataInitialized reports whether node has a NodeData.
func IsDataInitialized(node *dom.Node) bool {
	return lookupData(node) != nil
}

// GetKey returns the key of node, or nil if the node is unkeyed or has not
// been created or imported by the engine.
func GetKey(node *dom.Node) Key {
	if d := lookupData(node); d != nil {
		return d.Key
	}
	return nil
}

// ImportNode records identity data for node and its whole subtree without
// modifying them. Importing markup before the first patch lets the patch
// reuse it instead of replacing it.
func ImportNode(node *dom.Node) {
	importSingleNode(node, nil)
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ImportNode(child)
	}
}

// ClearCache forgets the identity data of node and its whole subtree.
func ClearCache(node *dom.Node) {
	clearData(node)
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ClearCache(child)
	}
}

func importSingleNode(node *dom.Node, fallbackKey Key) *NodeData {
	if d := lookupData(node); d != nil {
		return d
	}

	if !node.IsElement() {
		return initData(node, node.NodeName(), nil)
	}

	var key Key
	if name := KeyAttributeName(); name != "" {
		if v, ok := node.GetAttribute(name); ok && v != "" {
			key = v
		}
	}
	if key == nil {
		key = fallbackKey
	}

	data := initData(node, node.LocalName(), key)
	recordAttributes(node, data)
	return data
}

// recordAttributes snapshots the element's current attributes so the first
// diff treats them as the previous state.
func recordAttributes(node *dom.Node, data *NodeData) {
	attrs := node.Attributes()
	if len(attrs) == 0 {
		return
	}
	data.attrs = make([]Attr, len(attrs))
	for i, a := range attrs {
		data.attrs[i] = Attr{Name: a.Name, Value: a.Value}
	}
}
