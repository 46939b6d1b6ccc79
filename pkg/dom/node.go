package dom

import (
	"errors"
	"fmt"
	"strings"
)

// NodeType is the node type discriminator. Values match the DOM constants.
type NodeType uint8

const (
	ElementNode          NodeType = 1
	TextNode             NodeType = 3
	CommentNode          NodeType = 8
	DocumentNode         NodeType = 9
	DocumentFragmentNode NodeType = 11
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case DocumentNode:
		return "Document"
	case DocumentFragmentNode:
		return "DocumentFragment"
	default:
		return "Unknown"
	}
}

// Well-known namespace URIs.
const (
	HTMLNamespace   = "http://www.w3.org/1999/xhtml"
	SVGNamespace    = "http://www.w3.org/2000/svg"
	MathMLNamespace = "http://www.w3.org/1998/Math/MathML"
	XMLNamespace    = "http://www.w3.org/XML/1998/namespace"
	XLinkNamespace  = "http://www.w3.org/1999/xlink"
	XMLNSNamespace  = "http://www.w3.org/2000/xmlns/"
)

var (
	// ErrHierarchy is the panic cause for structurally invalid mutations,
	// such as inserting a node into its own subtree.
	ErrHierarchy = errors.New("dom: hierarchy request")

	// ErrNotFound is the panic cause when a reference node is not a child
	// of the node being mutated.
	ErrNotFound = errors.New("dom: node not found")
)

// Node is a node in a host document.
type Node struct {
	nodeType  NodeType
	localName string
	namespace string
	data      string
	attrs     []Attr
	props     map[string]any

	owner *Document

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node
}

// NodeType returns the type of the node.
func (n *Node) NodeType() NodeType { return n.nodeType }

// IsElement reports whether n is an element.
func (n *Node) IsElement() bool { return n.nodeType == ElementNode }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.nodeType == TextNode }

// LocalName returns the element's local name, or "" for non-elements.
func (n *Node) LocalName() string { return n.localName }

// NamespaceURI returns the element's namespace, or "" when it has none.
func (n *Node) NamespaceURI() string { return n.namespace }

// NodeName returns the DOM nodeName: the upper-cased tag for HTML elements,
// the local name for other elements, and "#text", "#comment", "#document"
// or "#document-fragment" otherwise.
func (n *Node) NodeName() string {
	switch n.nodeType {
	case ElementNode:
		if n.namespace == HTMLNamespace {
			return strings.ToUpper(n.localName)
		}
		return n.localName
	case TextNode:
		return "#text"
	case CommentNode:
		return "#comment"
	case DocumentNode:
		return "#document"
	case DocumentFragmentNode:
		return "#document-fragment"
	default:
		return ""
	}
}

// OwnerDocument returns the document that created the node.
func (n *Node) OwnerDocument() *Document { return n.owner }

// ParentNode returns the parent, or nil for a detached node.
func (n *Node) ParentNode() *Node { return n.parent }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node { return n.lastChild }

// NextSibling returns the next sibling, or nil.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// PreviousSibling returns the previous sibling, or nil.
func (n *Node) PreviousSibling() *Node { return n.prevSibling }

// HasChildNodes reports whether n has any children.
func (n *Node) HasChildNodes() bool { return n.firstChild != nil }

// ChildNodes returns a snapshot of n's children.
func (n *Node) ChildNodes() []*Node {
	var children []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		children = append(children, c)
	}
	return children
}

// Data returns the character data of a text or comment node.
func (n *Node) Data() string { return n.data }

// SetData replaces the character data of a text or comment node.
func (n *Node) SetData(data string) { n.data = data }

// TextContent returns the concatenated text of n's descendants, or the
// node's own data for text and comment nodes.
func (n *Node) TextContent() string {
	switch n.nodeType {
	case TextNode, CommentNode:
		return n.data
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(p *Node) {
		for c := p.firstChild; c != nil; c = c.nextSibling {
			switch c.nodeType {
			case TextNode:
				b.WriteString(c.data)
			case ElementNode, DocumentFragmentNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// Prop returns an element property previously set with SetProp.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// SetProp sets an element property. Properties are not reflected in markup.
// Setting a nil value deletes the property.
func (n *Node) SetProp(name string, value any) {
	if value == nil {
		delete(n.props, name)
		return
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
}

// String returns a short description for debugging.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.nodeType {
	case ElementNode:
		return fmt.Sprintf("<%s>", n.localName)
	case TextNode:
		return fmt.Sprintf("#text(%q)", n.data)
	default:
		return n.NodeName()
	}
}
