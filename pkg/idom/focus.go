package idom

import "github.com/vango-dev/idom/pkg/dom"

// activeElement returns the focused element of node's document, or nil if
// node is not connected to its document.
func activeElement(node *dom.Node) *dom.Node {
	doc := node.OwnerDocument()
	if doc == nil || !node.IsConnected() {
		return nil
	}
	return doc.ActiveElement()
}

// focusedPath returns the focused element and its ancestors up to, but not
// including, root. The path is empty if nothing inside node has focus.
func focusedPath(node, root *dom.Node) []*dom.Node {
	active := activeElement(node)
	if active == nil || !node.Contains(active) {
		return nil
	}
	var path []*dom.Node
	for cur := active; cur != root && cur != nil; cur = cur.ParentNode() {
		path = append(path, cur)
	}
	return path
}

// moveBefore puts the nodes from ref up to node right after node, which
// leaves node where it is. Used instead of moving node itself when node
// holds focus, since detaching it would drop the focus.
func moveBefore(parent, node, ref *dom.Node) {
	insertRef := node.NextSibling()
	for cur := ref; cur != nil && cur != node; {
		next := cur.NextSibling()
		parent.InsertBefore(cur, insertRef)
		cur = next
	}
}
