package idom

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/idom/pkg/dom"
)

func withKeyAttribute(t *testing.T, name string) {
	t.Helper()
	prev := KeyAttributeName()
	SetKeyAttributeName(name)
	t.Cleanup(func() { SetKeyAttributeName(prev) })
}

func parseInto(t *testing.T, markup string) *dom.Node {
	t.Helper()
	root := newContainer(t)
	if err := dom.SetInnerHTML(root, markup); err != nil {
		t.Fatalf("SetInnerHTML: %v", err)
	}
	return root
}

func TestImportNodeReadsKeyAttribute(t *testing.T) {
	root := parseInto(t, `<ul><li key="a" class="x">A</li><li>B</li></ul>`)
	ImportNode(root)

	ul := root.FirstChild()
	li := ul.FirstChild()
	if !IsDataInitialized(li) || !IsDataInitialized(li.FirstChild()) {
		t.Fatal("import should cover the whole subtree")
	}
	if got := GetKey(li); got != "a" {
		t.Errorf("GetKey = %v, want a", got)
	}
	if got := GetKey(li.NextSibling()); got != nil {
		t.Errorf("GetKey of unkeyed li = %v, want nil", got)
	}

	data := GetData(li, nil)
	if data.NameOrCtor != "li" {
		t.Errorf("NameOrCtor = %v, want li", data.NameOrCtor)
	}
	want := []Attr{{"key", "a"}, {"class", "x"}}
	if diff := cmp.Diff(want, data.Attrs()); diff != "" {
		t.Errorf("imported attrs (-want +got):\n%s", diff)
	}

	text := GetData(li.FirstChild(), nil)
	if text.NameOrCtor != "#text" || text.Key != nil {
		t.Errorf("text data = %+v", text)
	}
	if _, ok := text.Text(); ok {
		t.Error("imported text should have no declared value")
	}
}

func TestKeyAttributeName(t *testing.T) {
	withKeyAttribute(t, "data-key")
	root := parseInto(t, `<li key="a" data-key="b"></li>`)
	ImportNode(root)
	if got := GetKey(root.FirstChild()); got != "b" {
		t.Errorf("GetKey = %v, want b", got)
	}

	SetKeyAttributeName("")
	other := parseInto(t, `<li key="a" data-key="b"></li>`)
	ImportNode(other)
	if got := GetKey(other.FirstChild()); got != nil {
		t.Errorf("GetKey with key import disabled = %v, want nil", got)
	}
}

func TestGetDataFallbackKey(t *testing.T) {
	root := parseInto(t, `<p></p><p key="attr"></p>`)
	plain, keyed := root.FirstChild(), root.LastChild()

	if got := GetData(plain, "fallback").Key; got != "fallback" {
		t.Errorf("plain key = %v, want fallback", got)
	}
	if got := GetData(keyed, "fallback").Key; got != "attr" {
		t.Errorf("keyed key = %v, want attr", got)
	}
	// Once imported the fallback is ignored.
	if got := GetData(plain, "other").Key; got != "fallback" {
		t.Errorf("second lookup key = %v, want fallback", got)
	}
}

func TestGetKeyUnknownNode(t *testing.T) {
	doc := dom.NewDocument()
	el := doc.CreateElement("div")
	el.SetAttribute("key", "a")
	if IsDataInitialized(el) {
		t.Error("fresh node should have no data")
	}
	if got := GetKey(el); got != nil {
		t.Errorf("GetKey = %v, want nil before import", got)
	}
}

func TestClearCache(t *testing.T) {
	root := parseInto(t, `<ul><li key="a">A</li></ul>`)
	ImportNode(root)
	li := root.FirstChild().FirstChild()

	ClearCache(root)
	if IsDataInitialized(root) || IsDataInitialized(li) || IsDataInitialized(li.FirstChild()) {
		t.Error("ClearCache should forget the whole subtree")
	}
}

func TestImportedMarkupIsAdopted(t *testing.T) {
	root := parseInto(t, `<ul><li key="a">A</li><li key="b">B</li></ul>`)
	ImportNode(root)
	ul := root.FirstChild()
	liA, liB := ul.FirstChild(), ul.LastChild()

	var log ChangeLog
	recordingPatcher(&log).PatchInner(root, describeList("b", "a"))

	if ul != root.FirstChild() || ul.FirstChild() != liB || ul.LastChild() != liA {
		t.Error("imported nodes should be reused and reordered")
	}
	if n := len(log.Created()); n != 0 {
		t.Errorf("created %d nodes, want 0", n)
	}
	// Imported attributes that are not declared again are removed, but the
	// key stays in the node data.
	if got := dom.InnerHTML(root); got != "<ul><li>b</li><li>a</li></ul>" {
		t.Errorf("markup = %q", got)
	}
	if GetKey(liA) != "a" || GetKey(liB) != "b" {
		t.Error("keys should survive the patch")
	}
}

func TestStaticsAppliedOnce(t *testing.T) {
	root := newContainer(t)
	p := NewPatcher()

	p.PatchInner(root, func(c *Cursor) {
		c.ElementVoid("input", nil, Pairs("type", "text"))
	})
	input := root.FirstChild()
	if v, _ := input.GetAttribute("type"); v != "text" {
		t.Fatalf("type = %q, want text", v)
	}

	input.SetAttribute("type", "changed")
	p.PatchInner(root, func(c *Cursor) {
		c.ElementVoid("input", nil, Pairs("type", "number"))
	})
	if v, _ := input.GetAttribute("type"); v != "changed" {
		t.Errorf("statics reapplied: type = %q", v)
	}
	if !GetData(input, nil).StaticsApplied {
		t.Error("StaticsApplied not set")
	}
}

func TestImportedStaticsMerge(t *testing.T) {
	root := parseInto(t, `<div class="box" id="old" title="t"></div>`)
	ImportNode(root)
	div := root.FirstChild()

	var calls []Attr
	r := NewAttributeRegistry()
	r.SetDefault(func(el *dom.Node, name string, value any) {
		calls = append(calls, Attr{name, value})
		ApplyAttributeTyped(el, name, value)
	})

	NewPatcher(WithAttributes(r)).PatchInner(root, func(c *Cursor) {
		c.ElementVoid("div", nil, Pairs("class", "box", "id", "new"), Attr{"title", "t"})
	})

	if root.FirstChild() != div {
		t.Fatal("imported div should be reused")
	}
	if diff := cmp.Diff([]Attr{{"id", "new"}}, calls); diff != "" {
		t.Errorf("mutator calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Attr{{"title", "t"}}, GetData(div, nil).Attrs()); diff != "" {
		t.Errorf("dynamic attrs (-want +got):\n%s", diff)
	}
	if got := dom.OuterHTML(div); got != `<div class="box" id="new" title="t"></div>` {
		t.Errorf("markup = %q", got)
	}
}
