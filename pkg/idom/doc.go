// Package idom patches a host tree in place from a sequence of element,
// attribute and text declarations.
//
// A description function receives a *Cursor and declares the desired
// children of the patched root:
//
//	idom.PatchInner(list, func(c *idom.Cursor, items []Item) {
//	    c.ElementOpen("ul", nil, nil)
//	    for _, it := range items {
//	        c.ElementOpen("li", it.ID, nil, idom.Attr{Name: "class", Value: it.Class})
//	        c.Text(it.Label)
//	        c.ElementClose("li")
//	    }
//	    c.ElementClose("ul")
//	}, items)
//
// Existing nodes are reused when their tag and key match the declaration,
// keyed siblings are moved rather than recreated, attributes are diffed
// against the last applied values, and children that were not declared are
// removed. Markup that was rendered elsewhere can be adopted with ImportNode
// so the first patch does not rebuild it.
//
// # Debug mode
//
// SetDebug(true) enables assertions that catch builder misuse (unclosed
// tags, mismatched closes, attributes declared outside ElementOpenStart).
// A failed assertion panics with an *errors.Error that wraps ErrUsage.
// With debug mode off no assertions run.
//
// # Concurrency
//
// A patch is synchronous and runs on the calling goroutine. Patching the
// same tree from several goroutines at once is not supported. A Patcher may
// be used for nested patches from inside a description function, but not
// from several goroutines concurrently; the package-level PatchInner and
// PatchOuter helpers use a fresh Patcher per call.
package idom
