package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// RenderOptions configures HTML serialisation.
type RenderOptions struct {
	// Pretty enables indented output with one block element per line.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Render writes the outer HTML of n to w.
func Render(w io.Writer, n *Node, opts RenderOptions) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	r := &renderer{w: w, opts: opts}
	r.node(n, 0)
	return r.err
}

// OuterHTML returns the compact markup of n including n itself.
func OuterHTML(n *Node) string {
	var b strings.Builder
	_ = Render(&b, n, RenderOptions{})
	return b.String()
}

// InnerHTML returns the compact markup of n's children.
func InnerHTML(n *Node) string {
	var b strings.Builder
	for c := n.firstChild; c != nil; c = c.nextSibling {
		_ = Render(&b, c, RenderOptions{})
	}
	return b.String()
}

// renderer accumulates the first write error and stops writing after it.
type renderer struct {
	w    io.Writer
	opts RenderOptions
	err  error
}

func (r *renderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, s)
}

func (r *renderer) indent(depth int) {
	if r.opts.Pretty {
		r.write(strings.Repeat(r.opts.Indent, depth))
	}
}

func (r *renderer) newline() {
	if r.opts.Pretty {
		r.write("\n")
	}
}

// node dispatches rendering based on node type.
func (r *renderer) node(n *Node, depth int) {
	if n == nil {
		return
	}
	switch n.nodeType {
	case ElementNode:
		r.element(n, depth)
	case TextNode:
		r.text(n, depth)
	case CommentNode:
		r.indent(depth)
		r.write("<!--" + n.data + "-->")
		r.newline()
	case DocumentNode:
		r.write("<!DOCTYPE html>")
		r.newline()
		r.children(n, depth)
	case DocumentFragmentNode:
		r.children(n, depth)
	default:
		r.err = fmt.Errorf("dom: unknown node type: %d", n.nodeType)
	}
}

func (r *renderer) children(n *Node, depth int) {
	for c := n.firstChild; c != nil; c = c.nextSibling {
		r.node(c, depth)
	}
}

// element renders an element with its attributes and children.
func (r *renderer) element(n *Node, depth int) {
	tag := n.localName

	r.indent(depth)
	r.write("<" + tag)
	for _, a := range n.attrs {
		if a.Value == "" && booleanAttrs[a.Name] {
			r.write(" " + a.Name)
			continue
		}
		r.write(fmt.Sprintf(` %s="%s"`, a.Name, html.EscapeString(a.Value)))
	}
	r.write(">")

	if isVoidElement(n) {
		r.newline()
		return
	}

	if isRawTextElement(n) {
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if c.nodeType == TextNode {
				r.write(c.data)
			}
		}
		r.write("</" + tag + ">")
		r.newline()
		return
	}

	block := r.opts.Pretty && n.firstChild != nil && !inlineElements[tag] && !onlyText(n)
	if block {
		r.write("\n")
		r.children(n, depth+1)
		r.indent(depth)
	} else {
		inline := r.opts
		inline.Pretty = false
		sub := &renderer{w: r.w, opts: inline}
		sub.children(n, 0)
		if r.err == nil {
			r.err = sub.err
		}
	}
	r.write("</" + tag + ">")
	r.newline()
}

// text renders a text node with HTML escaping.
func (r *renderer) text(n *Node, depth int) {
	if r.opts.Pretty {
		trimmed := strings.TrimSpace(n.data)
		if trimmed == "" {
			return
		}
		r.indent(depth)
		r.write(html.EscapeString(trimmed))
		r.newline()
		return
	}
	r.write(html.EscapeString(n.data))
}

func onlyText(n *Node) bool {
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if c.nodeType != TextNode {
			return false
		}
	}
	return true
}
