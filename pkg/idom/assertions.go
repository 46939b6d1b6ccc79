package idom

import (
	"fmt"
	"strings"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/dom"
)

func usageError(code, format string, args ...any) *errors.Error {
	return errors.New(code).Wrap(ErrUsage).WithReason(format, args...)
}

func hostError(format string, args ...any) *errors.Error {
	return errors.New("E110").Wrap(ErrHostTree).WithReason(format, args...)
}

func (c *Cursor) assertInPatch(fn string) {
	if c == nil || c.done {
		panic(usageError("E101", "Cannot call %s() unless in patch.", fn))
	}
}

func (c *Cursor) assertNotInAttributes(fn string) {
	if c.inAttributes {
		panic(usageError("E103", "%s() can not be called between elementOpenStart() and elementOpenEnd().", fn))
	}
}

func (c *Cursor) assertNotInSkip(fn string) {
	if c.inSkip {
		panic(usageError("E104", "%s() may not be called inside an element that has called skip().", fn))
	}
}

func (c *Cursor) assertInAttributes(fn string) {
	if !c.inAttributes {
		panic(usageError("E105", "%s() can only be called after calling elementOpenStart().", fn))
	}
}

func (c *Cursor) assertAttributesClosed() {
	if c.inAttributes {
		panic(usageError("E106", "elementOpenEnd() must be called after calling elementOpenStart()."))
	}
}

func assertCloseMatchesOpenTag(open, closing NameOrCtor) {
	if !sameValue(open, closing) {
		panic(usageError("E107", "Received a call to close %q but %q was open.", describeName(closing), describeName(open)))
	}
}

func (c *Cursor) assertNoChildrenDeclaredYet(fn string) {
	if c.currentNode != nil || c.atStart {
		panic(usageError("E108", "%s() must come before any child declarations inside the current element.", fn))
	}
}

// assertNoUnclosedTags checks that the walk returned to root, listing the
// elements left open otherwise.
func assertNoUnclosedTags(open, root *dom.Node) {
	if open == root {
		return
	}
	var tags []string
	for cur := open; cur != nil && cur != root; cur = cur.ParentNode() {
		tags = append(tags, strings.ToLower(cur.NodeName()))
	}
	panic(usageError("E102", "One or more tags were not closed:\n%s", strings.Join(tags, "\n")))
}

// assertPatchElementNoExtras checks that an outer patch updated, replaced or
// removed the root and declared nothing else at the top level.
func (c *Cursor) assertPatchElementNoExtras(root, expectedNext, expectedPrev *dom.Node) {
	if c.atStart {
		return
	}
	cur := c.currentNode
	wasUpdated := cur.NextSibling() == expectedNext && cur.PreviousSibling() == expectedPrev
	wasChanged := cur.NextSibling() == root && cur.PreviousSibling() == expectedPrev
	if !wasUpdated && !wasChanged {
		panic(usageError("E109", "There must be exactly one top level call corresponding to the patched element."))
	}
}

func describeName(nameOrCtor NameOrCtor) string {
	if s, ok := nameOrCtor.(string); ok {
		return s
	}
	return fmt.Sprintf("%T", nameOrCtor)
}
