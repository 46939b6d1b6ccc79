package idom

import "github.com/vango-dev/idom/pkg/dom"

// ElementConstructor creates elements that are identified by the
// constructor rather than by a tag name. Implementations are compared by
// identity, so a pointer receiver is the usual choice.
type ElementConstructor interface {
	NewElement(doc *dom.Document) *dom.Node
}

// namespaceForTag returns the namespace a new element named tag should be
// created in when its parent is parent. An empty result means the
// document's default namespace.
func namespaceForTag(tag string, parent *dom.Node) string {
	switch tag {
	case "svg":
		return dom.SVGNamespace
	case "math":
		return dom.MathMLNamespace
	}
	if parent == nil {
		return ""
	}
	if GetData(parent, nil).NameOrCtor == "foreignObject" {
		return ""
	}
	if parent.IsElement() {
		return parent.NamespaceURI()
	}
	return ""
}

func createElement(doc *dom.Document, parent *dom.Node, nameOrCtor NameOrCtor, key Key) *dom.Node {
	var el *dom.Node
	switch v := nameOrCtor.(type) {
	case ElementConstructor:
		el = v.NewElement(doc)
	case string:
		if ns := namespaceForTag(v, parent); ns != "" {
			el = doc.CreateElementNS(ns, v)
		} else {
			el = doc.CreateElement(v)
		}
	default:
		panic(hostError("cannot create an element from %T", nameOrCtor))
	}
	initData(el, nameOrCtor, key)
	return el
}

func createText(doc *dom.Document) *dom.Node {
	node := doc.CreateTextNode("")
	initData(node, textName, nil)
	return node
}
