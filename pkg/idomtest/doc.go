// Package idomtest provides testing helpers for code that patches trees
// with idom.
//
// # Quick Start
//
//	func TestTodoList(t *testing.T) {
//	    f := idomtest.NewFixture().
//	        WithMarkup(`<ul><li key="a">A</li></ul>`).
//	        WithDebug().
//	        Build(t)
//
//	    f.PatchInner(renderTodos(items))
//	    idomtest.ExpectHTML(t, f.Root, `<ul><li>A</li><li>B</li></ul>`)
//	    if len(f.Log.Created()) != 2 {
//	        t.Error("expected one li and its text to be created")
//	    }
//	}
//
// # Fixtures
//
// A fixture owns a fresh document, an empty <div> root attached to its
// body and a patcher whose notifications are recorded in a ChangeLog.
// Markup given with WithMarkup is parsed into the root and imported, so
// the first patch adopts it instead of replacing it.
//
// # Assertions
//
// Assert on the serialised tree:
//
//	idomtest.ExpectContains(t, f.Root, "Welcome")
//	idomtest.ExpectAttribute(t, f.Root.FirstChild(), "class", "list")
//
// Assert that a declaration sequence breaks the patch rules:
//
//	idomtest.ExpectPanicCode(t, "E107", func() {
//	    f.PatchInner(func(c *idom.Cursor) {
//	        c.ElementOpen("ul", nil, nil)
//	        c.ElementClose("ol")
//	    })
//	})
package idomtest
