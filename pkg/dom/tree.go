package dom

import "fmt"

// InsertBefore inserts node into n's children before ref, or at the end when
// ref is nil. A node that already has a parent is detached first, which
// drops focus if it contains the focused element. Inserting a document
// fragment moves the fragment's children. It returns node.
//
// InsertBefore panics with ErrHierarchy when node is n or an ancestor of n,
// and with ErrNotFound when ref is not a child of n.
func (n *Node) InsertBefore(node, ref *Node) *Node {
	if ref == node {
		ref = node.nextSibling
	}
	if ref != nil && ref.parent != n {
		panic(fmt.Errorf("%w: insertBefore reference %s is not a child of %s", ErrNotFound, ref, n))
	}
	if node.Contains(n) {
		panic(fmt.Errorf("%w: cannot insert %s into its own subtree", ErrHierarchy, node))
	}
	if node.nodeType == DocumentNode {
		panic(fmt.Errorf("%w: cannot insert a document", ErrHierarchy))
	}

	if node.nodeType == DocumentFragmentNode {
		for c := node.firstChild; c != nil; {
			next := c.nextSibling
			n.InsertBefore(c, ref)
			c = next
		}
		return node
	}

	if node.parent != nil {
		node.parent.detach(node)
	}
	n.link(node, ref)
	return node
}

// AppendChild appends node as the last child of n. It returns node.
func (n *Node) AppendChild(node *Node) *Node {
	return n.InsertBefore(node, nil)
}

// RemoveChild removes child from n and returns it. It panics with
// ErrNotFound when child is not a child of n.
func (n *Node) RemoveChild(child *Node) *Node {
	if child.parent != n {
		panic(fmt.Errorf("%w: removeChild %s is not a child of %s", ErrNotFound, child, n))
	}
	n.detach(child)
	return child
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.detach(n)
	}
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// RootNode returns the topmost ancestor of n (n itself when detached).
func (n *Node) RootNode() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// link inserts an orphan node before ref.
func (n *Node) link(node, ref *Node) {
	node.parent = n
	if ref == nil {
		node.prevSibling = n.lastChild
		node.nextSibling = nil
		if n.lastChild != nil {
			n.lastChild.nextSibling = node
		} else {
			n.firstChild = node
		}
		n.lastChild = node
		return
	}

	node.nextSibling = ref
	node.prevSibling = ref.prevSibling
	if ref.prevSibling != nil {
		ref.prevSibling.nextSibling = node
	} else {
		n.firstChild = node
	}
	ref.prevSibling = node
}

// detach unlinks child, dropping focus when it leaves with the child.
func (n *Node) detach(child *Node) {
	if doc := child.owner; doc != nil && doc.active != nil && child.Contains(doc.active) {
		doc.active = nil
	}

	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		n.firstChild = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		n.lastChild = child.prevSibling
	}
	child.parent = nil
	child.prevSibling = nil
	child.nextSibling = nil
}
