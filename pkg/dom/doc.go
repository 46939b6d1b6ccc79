// Package dom provides the mutable host document that idom patches in place.
//
// A Document owns a tree of Nodes: elements, text, comments, and document
// fragments. The API mirrors the subset of the browser DOM that a patch
// engine needs:
//
//   - creation (CreateElement, CreateElementNS, CreateTextNode)
//   - mutation (InsertBefore, AppendChild, RemoveChild)
//   - traversal (FirstChild, NextSibling, PreviousSibling, ParentNode)
//   - attributes with namespaces, element properties, inline style
//   - focus tracking via Document.ActiveElement
//
// # Focus
//
// As in a browser, detaching a node that contains the focused element drops
// focus. Moving a node with InsertBefore detaches it first, so moving a
// focused element also drops focus. Patch engines that want to preserve focus
// must move the other siblings instead.
//
// # Markup
//
// ParseHTML, ParseFragment, and SetInnerHTML build nodes from HTML markup
// (parsed with golang.org/x/net/html), which is how server-rendered markup is
// adopted. Render and OuterHTML serialise a subtree back to HTML.
//
//	doc := dom.NewDocument()
//	if err := dom.SetInnerHTML(doc.Body(), `<ul><li key="a">A</li></ul>`); err != nil {
//	    return err
//	}
//	fmt.Println(dom.InnerHTML(doc.Body()))
//
// Nodes are not safe for concurrent use.
package dom
