package dom

import (
	"strings"
	"testing"
)

func TestOuterHTML(t *testing.T) {
	doc := NewDocument()
	ul := doc.CreateElement("ul")
	ul.SetAttribute("class", `a "b"`)
	ul.SetAttribute("title", "it's")
	li := ul.AppendChild(doc.CreateElement("li"))
	li.AppendChild(doc.CreateTextNode("<A&B>"))
	ul.AppendChild(doc.CreateElement("br"))
	in := ul.AppendChild(doc.CreateElement("input"))
	in.SetAttribute("disabled", "")

	want := `<ul class="a &#34;b&#34;" title="it&#39;s"><li>&lt;A&amp;B&gt;</li><br><input disabled></ul>`
	if got := OuterHTML(ul); got != want {
		t.Errorf("OuterHTML = %q, want %q", got, want)
	}
}

func TestRenderRawText(t *testing.T) {
	doc := NewDocument()
	script := doc.CreateElement("script")
	script.AppendChild(doc.CreateTextNode("if (a < b) {}"))

	if got := OuterHTML(script); got != "<script>if (a < b) {}</script>" {
		t.Errorf("OuterHTML = %q", got)
	}
}

func TestRenderForeignRawText(t *testing.T) {
	markups := []string{
		`<svg><style>a&lt;b{}</style></svg>`,
		`<svg><script>if (a &amp;&amp; b) {}</script></svg>`,
		`<math><style>x&gt;y</style></math>`,
	}
	for _, markup := range markups {
		doc := NewDocument()
		body := doc.Body()
		if err := SetInnerHTML(body, markup); err != nil {
			t.Fatal(err)
		}
		first := InnerHTML(body)
		if first != markup {
			t.Errorf("InnerHTML = %q, want %q", first, markup)
		}
		if err := SetInnerHTML(body, first); err != nil {
			t.Fatal(err)
		}
		if again := InnerHTML(body); again != first {
			t.Errorf("round trip changed %q to %q", first, again)
		}
	}
}

func TestRenderPretty(t *testing.T) {
	doc := NewDocument()
	if err := SetInnerHTML(doc.Body(), "<ul><li>A</li><li><b>B</b></li></ul>"); err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	if err := Render(&b, doc.Body().FirstChild(), RenderOptions{Pretty: true}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := "<ul>\n  <li>A</li>\n  <li>\n    <b>B</b>\n  </li>\n</ul>\n"
	if b.String() != want {
		t.Errorf("pretty output = %q, want %q", b.String(), want)
	}
}

func TestRenderDocument(t *testing.T) {
	doc := NewDocument()
	got := OuterHTML(doc.Node())
	want := "<!DOCTYPE html><html><head></head><body></body></html>"
	if got != want {
		t.Errorf("OuterHTML(document) = %q, want %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

var errWrite = &writeError{}

type writeError struct{}

func (*writeError) Error() string { return "write failed" }

func TestRenderReportsWriteError(t *testing.T) {
	doc := NewDocument()
	if err := Render(failingWriter{}, doc.CreateElement("div"), RenderOptions{}); err != errWrite {
		t.Errorf("Render error = %v, want %v", err, errWrite)
	}
}
