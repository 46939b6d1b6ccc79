package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses a complete HTML document.
func ParseHTML(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}
	d := newBareDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := d.adopt(c); n != nil {
			d.node.AppendChild(n)
		}
	}
	return d, nil
}

// ParseFragment parses markup as the children of context, returning detached
// nodes owned by context's document.
func ParseFragment(context *Node, r io.Reader) ([]*Node, error) {
	if context == nil || context.owner == nil {
		return nil, fmt.Errorf("dom: parse fragment: context node has no document")
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	if context.nodeType == ElementNode {
		ctx.Data = context.localName
		ctx.DataAtom = atom.Lookup([]byte(context.localName))
		ctx.Namespace = shortNamespace(context.namespace)
	}
	parsed, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	nodes := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		if n := context.owner.adopt(p); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// SetInnerHTML replaces el's children with the parsed markup.
func SetInnerHTML(el *Node, markup string) error {
	nodes, err := ParseFragment(el, strings.NewReader(markup))
	if err != nil {
		return err
	}
	for c := el.firstChild; c != nil; {
		next := c.nextSibling
		el.detach(c)
		c = next
	}
	for _, n := range nodes {
		el.AppendChild(n)
	}
	return nil
}

// adopt converts a parsed html.Node subtree into host nodes.
func (d *Document) adopt(src *html.Node) *Node {
	var n *Node
	switch src.Type {
	case html.ElementNode:
		n = d.CreateElementNS(longNamespace(src.Namespace), src.Data)
		for _, a := range src.Attr {
			ns, name := attrName(a)
			n.SetAttributeNS(ns, name, a.Val)
		}
	case html.TextNode:
		n = d.CreateTextNode(src.Data)
	case html.CommentNode:
		n = d.CreateComment(src.Data)
	default:
		return nil
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if child := d.adopt(c); child != nil {
			n.AppendChild(child)
		}
	}
	return n
}

func longNamespace(short string) string {
	switch short {
	case "":
		return HTMLNamespace
	case "svg":
		return SVGNamespace
	case "math":
		return MathMLNamespace
	default:
		return short
	}
}

func shortNamespace(long string) string {
	switch long {
	case SVGNamespace:
		return "svg"
	case MathMLNamespace:
		return "math"
	default:
		return ""
	}
}

func attrName(a html.Attribute) (namespace, name string) {
	switch a.Namespace {
	case "":
		return "", a.Key
	case "xlink":
		return XLinkNamespace, "xlink:" + a.Key
	case "xml":
		return XMLNamespace, "xml:" + a.Key
	case "xmlns":
		return XMLNSNamespace, "xmlns:" + a.Key
	default:
		return a.Namespace, a.Namespace + ":" + a.Key
	}
}
