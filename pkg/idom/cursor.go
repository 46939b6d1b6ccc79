package idom

import (
	"context"
	"slices"

	"github.com/vango-dev/idom/pkg/dom"
)

// Cursor is the position of a running patch in the host tree. A Cursor is
// only valid inside the description function it was passed to.
type Cursor struct {
	p    *Patcher
	ctx  context.Context
	doc  *dom.Document
	root *dom.Node

	// currentNode is the last visited sibling. nil means the next node to
	// visit is currentParent's first child.
	currentNode   *dom.Node
	currentParent *dom.Node

	// atStart is set while an outer patch has not visited anything yet; the
	// next node to visit is then root itself.
	atStart bool

	focusPath []*dom.Node
	pc        patchContext

	pending      pendingElement
	pendingAttrs []Attr
	diff         diffScratch
	staticsIndex map[string]int

	inAttributes bool
	inSkip       bool
	done         bool
}

type pendingElement struct {
	nameOrCtor NameOrCtor
	key        Key
	statics    []Attr
}

// Context returns the context of the running patch, which carries its
// trace span.
func (c *Cursor) Context() context.Context {
	return c.ctx
}

// Document returns the document new nodes are created in.
func (c *Cursor) Document() *dom.Document {
	return c.doc
}

// Open aligns the cursor with an element matching nameOrCtor and key,
// creating or moving one if needed, and descends into it. It returns the
// element.
func (c *Cursor) Open(nameOrCtor NameOrCtor, key Key) *dom.Node {
	if Debug() {
		c.assertInPatch("open")
	}
	c.Align(nameOrCtor, key)
	c.enterNode()
	return c.currentParent
}

// Close removes the children of the current element that were not visited
// and ascends to its parent. It returns the element that was closed.
func (c *Cursor) Close() *dom.Node {
	if Debug() {
		c.assertInPatch("close")
		c.inSkip = false
	}
	c.exitNode()
	return c.currentNode
}

// AlignText aligns the cursor with a text node and returns it. The caller
// writes the text; see Text for the usual way to declare text.
func (c *Cursor) AlignText() *dom.Node {
	if Debug() {
		c.assertInPatch("text")
	}
	c.Align(textName, nil)
	return c.currentNode
}

// Skip leaves the remaining children of the current element as they are.
// It must be called before any child is declared.
func (c *Cursor) Skip() {
	if Debug() {
		c.assertInPatch("skip")
		c.assertNoChildrenDeclaredYet("skip")
		c.inSkip = true
	}
	c.currentNode = c.currentParent.LastChild()
	c.atStart = false
}

// SkipNode moves the cursor past the next sibling without touching it.
func (c *Cursor) SkipNode() {
	if Debug() {
		c.assertInPatch("skipNode")
	}
	c.nextNode()
}

// CurrentElement returns the element whose children are being declared.
func (c *Cursor) CurrentElement() *dom.Node {
	if Debug() {
		c.assertInPatch("currentElement")
		c.assertNotInAttributes("currentElement")
	}
	return c.currentParent
}

// CurrentPointer returns the node that will be visited next, or nil if the
// cursor is past the last child.
func (c *Cursor) CurrentPointer() *dom.Node {
	if Debug() {
		c.assertInPatch("currentPointer")
		c.assertNotInAttributes("currentPointer")
	}
	return c.nextSiblingNode()
}

// Align moves the cursor to the next sibling and makes sure it matches
// nameOrCtor and key. A matching node further along is moved into place if
// key is non-nil; otherwise a new node is created and inserted.
func (c *Cursor) Align(nameOrCtor NameOrCtor, key Key) {
	c.nextNode()
	node := c.matchingNode(c.currentNode, nameOrCtor, key)
	if node == nil {
		node = c.createNode(nameOrCtor, key)
	}
	if node == c.currentNode {
		return
	}

	parent := c.currentParent
	if parent == nil {
		panic(hostError("cannot insert %s: the patched node has no parent", describeName(nameOrCtor)))
	}
	// Moving an ancestor of the focused element detaches it and drops
	// focus, so in that case the siblings move instead.
	if slices.Contains(c.focusPath, node) {
		moveBefore(parent, node, c.currentNode)
	} else {
		parent.InsertBefore(node, c.currentNode)
	}
	c.currentNode = node
}

func (c *Cursor) matches(node *dom.Node, nameOrCtor NameOrCtor, key Key) bool {
	data := GetData(node, key)
	return c.p.match(node, nameOrCtor, data.NameOrCtor, key, data.Key)
}

func (c *Cursor) matchingNode(node *dom.Node, nameOrCtor NameOrCtor, key Key) *dom.Node {
	if node == nil {
		return nil
	}
	if c.matches(node, nameOrCtor, key) {
		return node
	}
	if key == nil {
		return nil
	}
	for node = node.NextSibling(); node != nil; node = node.NextSibling() {
		if c.matches(node, nameOrCtor, key) {
			return node
		}
	}
	return nil
}

func (c *Cursor) createNode(nameOrCtor NameOrCtor, key Key) *dom.Node {
	var node *dom.Node
	if nameOrCtor == textName {
		node = createText(c.doc)
	} else {
		node = createElement(c.doc, c.currentParent, nameOrCtor, key)
	}
	c.pc.markCreated(node)
	return node
}

// clearUnvisited removes the children of parent from start up to, but not
// including, end.
func (c *Cursor) clearUnvisited(parent, start, end *dom.Node) {
	for child := start; child != nil && child != end; {
		next := child.NextSibling()
		parent.RemoveChild(child)
		c.pc.markDeleted(child)
		child = next
	}
}

func (c *Cursor) enterNode() {
	c.currentParent = c.currentNode
	c.currentNode = nil
	c.atStart = false
}

func (c *Cursor) nextSiblingNode() *dom.Node {
	switch {
	case c.atStart:
		return c.root
	case c.currentNode != nil:
		return c.currentNode.NextSibling()
	case c.currentParent != nil:
		return c.currentParent.FirstChild()
	default:
		return nil
	}
}

func (c *Cursor) nextNode() {
	c.currentNode = c.nextSiblingNode()
	c.atStart = false
}

func (c *Cursor) exitNode() {
	parent := c.currentParent
	if parent == nil {
		panic(hostError("close called with no open element"))
	}
	c.clearUnvisited(parent, c.nextSiblingNode(), nil)
	c.currentNode = parent
	c.currentParent = parent.ParentNode()
	c.atStart = false
}
