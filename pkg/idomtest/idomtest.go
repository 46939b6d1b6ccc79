package idomtest

import (
	"strings"
	"testing"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/dom"
	"github.com/vango-dev/idom/pkg/idom"
)

// FixtureBuilder allows fluent construction of test fixtures.
type FixtureBuilder struct {
	markup  string
	debug   bool
	keyAttr *string
	opts    []idom.Option
}

// NewFixture creates a new fixture builder.
func NewFixture() *FixtureBuilder {
	return &FixtureBuilder{}
}

// WithMarkup parses markup into the root and imports it before the first
// patch.
func (b *FixtureBuilder) WithMarkup(markup string) *FixtureBuilder {
	b.markup = markup
	return b
}

// WithDebug enables debug assertions for the rest of the test.
func (b *FixtureBuilder) WithDebug() *FixtureBuilder {
	b.debug = true
	return b
}

// WithKeyAttribute sets the key attribute name for the rest of the test.
//
// Example:
//
//	f := idomtest.NewFixture().WithKeyAttribute("data-key").Build(t)
func (b *FixtureBuilder) WithKeyAttribute(name string) *FixtureBuilder {
	b.keyAttr = &name
	return b
}

// WithOptions adds patcher options.
func (b *FixtureBuilder) WithOptions(opts ...idom.Option) *FixtureBuilder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build creates the fixture. Global settings changed by the builder are
// restored when the test finishes, so tests using them must not run in
// parallel.
func (b *FixtureBuilder) Build(t testing.TB) *Fixture {
	t.Helper()

	if b.debug {
		prev := idom.Debug()
		idom.SetDebug(true)
		t.Cleanup(func() { idom.SetDebug(prev) })
	}
	if b.keyAttr != nil {
		prev := idom.KeyAttributeName()
		idom.SetKeyAttributeName(*b.keyAttr)
		t.Cleanup(func() { idom.SetKeyAttributeName(prev) })
	}

	doc := dom.NewDocument()
	root := doc.Body().AppendChild(doc.CreateElement("div"))
	if b.markup != "" {
		if err := dom.SetInnerHTML(root, b.markup); err != nil {
			t.Fatalf("idomtest: parse markup: %v", err)
		}
		idom.ImportNode(root)
	}

	f := &Fixture{Doc: doc, Root: root, Log: &idom.ChangeLog{}}
	opts := append([]idom.Option{idom.WithNotifications(f.Log.Notifications())}, b.opts...)
	f.Patcher = idom.NewPatcher(opts...)
	return f
}

// Fixture is a document with a root element and a recording patcher.
type Fixture struct {
	Doc     *dom.Document
	Root    *dom.Node
	Log     *idom.ChangeLog
	Patcher *idom.Patcher
}

// PatchInner clears the change log and patches the root's children.
func (f *Fixture) PatchInner(describe idom.DescribeFunc) *dom.Node {
	f.Log.Reset()
	return f.Patcher.PatchInner(f.Root, describe)
}

// PatchOuter clears the change log and patches node itself.
func (f *Fixture) PatchOuter(node *dom.Node, describe idom.DescribeFunc) *dom.Node {
	f.Log.Reset()
	return f.Patcher.PatchOuter(node, describe)
}

// HTML returns the compact markup of the root's children.
func (f *Fixture) HTML() string {
	return dom.InnerHTML(f.Root)
}

// Snapshot returns indented markup of the root's children, one block
// element per line, for comparing against golden strings.
func (f *Fixture) Snapshot() string {
	return Snapshot(f.Root)
}

// Snapshot returns indented markup of n's children.
func Snapshot(n *dom.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		_ = dom.Render(&b, c, dom.RenderOptions{Pretty: true})
	}
	return b.String()
}

// ExpectHTML asserts that the markup of n's children equals want.
func ExpectHTML(t testing.TB, n *dom.Node, want string) {
	t.Helper()
	if got := dom.InnerHTML(n); got != want {
		t.Errorf("markup mismatch:\n got: %s\nwant: %s", truncate(got, 500), want)
	}
}

// ExpectContains asserts that the markup of n contains expected.
//
// Example:
//
//	idomtest.ExpectContains(t, f.Root, "Welcome Admin")
func ExpectContains(t testing.TB, n *dom.Node, expected string) {
	t.Helper()
	html := dom.InnerHTML(n)
	if !strings.Contains(html, expected) {
		t.Errorf("expected markup to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the markup of n does not contain
// unexpected.
func ExpectNotContains(t testing.TB, n *dom.Node, unexpected string) {
	t.Helper()
	html := dom.InnerHTML(n)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected markup to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that n has a descendant element with the given tag.
func ExpectElement(t testing.TB, n *dom.Node, tag string) {
	t.Helper()
	if !hasElement(n, tag) {
		t.Errorf("expected a <%s> element, got:\n%s", tag, truncate(dom.InnerHTML(n), 500))
	}
}

func hasElement(n *dom.Node, tag string) bool {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.IsElement() && c.LocalName() == tag {
			return true
		}
		if hasElement(c, tag) {
			return true
		}
	}
	return false
}

// ExpectAttribute asserts that el has the attribute name set to value.
//
// Example:
//
//	idomtest.ExpectAttribute(t, button, "class", "btn-primary")
func ExpectAttribute(t testing.TB, el *dom.Node, name, value string) {
	t.Helper()
	got, ok := el.GetAttribute(name)
	if !ok {
		t.Errorf("expected attribute %s=%q not found on %s", name, value, dom.OuterHTML(el))
		return
	}
	if got != value {
		t.Errorf("attribute %s = %q, want %q", name, got, value)
	}
}

// ExpectSameNode asserts that a node was reused rather than recreated.
func ExpectSameNode(t testing.TB, got, want *dom.Node) {
	t.Helper()
	if got != want {
		t.Errorf("expected node %v to be reused, got %v", want, got)
	}
}

// CapturePanic runs fn and returns the value it panicked with, or nil.
func CapturePanic(fn func()) (r any) {
	defer func() {
		r = recover()
	}()
	fn()
	return nil
}

// ExpectPanicCode asserts that fn panics with a coded error and returns
// it.
func ExpectPanicCode(t testing.TB, code string, fn func()) *errors.Error {
	t.Helper()
	r := CapturePanic(fn)
	if r == nil {
		t.Fatalf("expected panic with %s, got none", code)
	}
	err := errors.FromPanic(r, "")
	if err.Code != code {
		t.Fatalf("panic = %v (%T), want %s", r, r, code)
	}
	return err
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
