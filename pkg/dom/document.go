package dom

import "strings"

// Document is a host document. It creates nodes and tracks focus.
type Document struct {
	node   *Node
	active *Node
}

// NewDocument creates a document containing an empty
// <html><head></head><body></body></html> skeleton.
func NewDocument() *Document {
	d := newBareDocument()
	html := d.CreateElement("html")
	html.AppendChild(d.CreateElement("head"))
	html.AppendChild(d.CreateElement("body"))
	d.node.AppendChild(html)
	return d
}

func newBareDocument() *Document {
	d := &Document{}
	d.node = &Node{nodeType: DocumentNode, owner: d}
	return d
}

// Node returns the document node, the root of the document tree.
func (d *Document) Node() *Node { return d.node }

// DocumentElement returns the first element child of the document node.
func (d *Document) DocumentElement() *Node {
	for c := d.node.firstChild; c != nil; c = c.nextSibling {
		if c.nodeType == ElementNode {
			return c
		}
	}
	return nil
}

// Body returns the <body> element, or nil if there is none.
func (d *Document) Body() *Node {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for c := root.firstChild; c != nil; c = c.nextSibling {
		if c.nodeType == ElementNode && c.localName == "body" {
			return c
		}
	}
	return nil
}

// CreateElement creates an HTML element. The name is lower-cased, as in an
// HTML document.
func (d *Document) CreateElement(name string) *Node {
	return &Node{
		nodeType:  ElementNode,
		localName: strings.ToLower(name),
		namespace: HTMLNamespace,
		owner:     d,
	}
}

// CreateElementNS creates an element in the given namespace. A qualified
// name's prefix is dropped from the local name.
func (d *Document) CreateElementNS(namespace, qualifiedName string) *Node {
	local := qualifiedName
	if i := strings.IndexByte(qualifiedName, ':'); i >= 0 {
		local = qualifiedName[i+1:]
	}
	if namespace == HTMLNamespace {
		local = strings.ToLower(local)
	}
	return &Node{
		nodeType:  ElementNode,
		localName: local,
		namespace: namespace,
		owner:     d,
	}
}

// CreateTextNode creates a text node.
func (d *Document) CreateTextNode(data string) *Node {
	return &Node{nodeType: TextNode, data: data, owner: d}
}

// CreateComment creates a comment node.
func (d *Document) CreateComment(data string) *Node {
	return &Node{nodeType: CommentNode, data: data, owner: d}
}

// CreateDocumentFragment creates an empty document fragment.
func (d *Document) CreateDocumentFragment() *Node {
	return &Node{nodeType: DocumentFragmentNode, owner: d}
}

// ActiveElement returns the focused element, or nil when nothing in the
// document has focus.
func (d *Document) ActiveElement() *Node { return d.active }

// Focus moves focus to n. Only elements connected to their owner document
// can receive focus; for any other node Focus is a no-op.
func (n *Node) Focus() {
	if n.nodeType != ElementNode || n.owner == nil || !n.IsConnected() {
		return
	}
	n.owner.active = n
}

// Blur removes focus from n if it is focused.
func (n *Node) Blur() {
	if n.owner != nil && n.owner.active == n {
		n.owner.active = nil
	}
}

// IsConnected reports whether n is attached to its owner document.
func (n *Node) IsConnected() bool {
	return n.owner != nil && n.RootNode() == n.owner.node
}
