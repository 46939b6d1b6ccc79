package dom

// Attr is a single element attribute. Name is the qualified name as written
// in markup (for example "xlink:href").
type Attr struct {
	Namespace string
	Name      string
	Value     string
}

// Attributes returns a snapshot of the element's attributes in document order.
func (n *Node) Attributes() []Attr {
	if len(n.attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// GetAttribute returns the value of the attribute with the given qualified
// name and whether it is present.
func (n *Node) GetAttribute(name string) (string, bool) {
	if i := n.attrIndex(name); i >= 0 {
		return n.attrs[i].Value, true
	}
	return "", false
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(name string) bool {
	return n.attrIndex(name) >= 0
}

// SetAttribute sets an attribute with no namespace.
func (n *Node) SetAttribute(name, value string) {
	n.SetAttributeNS("", name, value)
}

// SetAttributeNS sets an attribute in a namespace. An existing attribute with
// the same qualified name keeps its position.
func (n *Node) SetAttributeNS(namespace, name, value string) {
	if i := n.attrIndex(name); i >= 0 {
		n.attrs[i].Namespace = namespace
		n.attrs[i].Value = value
		return
	}
	n.attrs = append(n.attrs, Attr{Namespace: namespace, Name: name, Value: value})
}

// RemoveAttribute removes the attribute with the given qualified name.
func (n *Node) RemoveAttribute(name string) {
	if i := n.attrIndex(name); i >= 0 {
		n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
	}
}

func (n *Node) attrIndex(name string) int {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			return i
		}
	}
	return -1
}
