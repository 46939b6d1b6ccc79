package idom

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/idom/pkg/dom"
)

// DescribeFunc declares the desired content of a patched node.
type DescribeFunc func(c *Cursor)

// Patcher runs patches with a fixed configuration. A Patcher may be reused
// for any number of patches and may be called again from inside a
// description function; it must not be used from several goroutines at
// once.
type Patcher struct {
	match     MatchFunc
	notify    Notifications
	logger    *slog.Logger
	tracer    trace.Tracer
	attrs     *AttributeRegistry
	observers []Observer

	// active is the cursor of the innermost running patch.
	active *Cursor
}

// NewPatcher creates a Patcher.
func NewPatcher(opts ...Option) *Patcher {
	p := &Patcher{
		match:  DefaultMatch,
		tracer: defaultTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Patcher) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

func (p *Patcher) registry() *AttributeRegistry {
	if p.attrs != nil {
		return p.attrs
	}
	return Attributes
}

// PatchInner updates the children of root to match describe and returns
// root.
func (p *Patcher) PatchInner(root *dom.Node, describe DescribeFunc) *dom.Node {
	return p.PatchInnerContext(context.Background(), root, describe)
}

// PatchInnerContext is PatchInner with a context for tracing.
func (p *Patcher) PatchInnerContext(ctx context.Context, root *dom.Node, describe DescribeFunc) *dom.Node {
	return p.run(ctx, ModeInner, root, func(c *Cursor) *dom.Node {
		c.currentNode = root
		c.enterNode()
		describe(c)
		c.exitNode()
		if Debug() {
			assertNoUnclosedTags(c.currentNode, root)
		}
		return root
	})
}

// PatchOuter updates root itself to match describe. describe should declare
// a single top-level element: if it matches root, root is updated in place;
// otherwise the declared element replaces root. If describe declares
// nothing, root is removed. PatchOuter returns the resulting node, or nil if
// root was removed.
func (p *Patcher) PatchOuter(root *dom.Node, describe DescribeFunc) *dom.Node {
	return p.PatchOuterContext(context.Background(), root, describe)
}

// PatchOuterContext is PatchOuter with a context for tracing.
func (p *Patcher) PatchOuterContext(ctx context.Context, root *dom.Node, describe DescribeFunc) *dom.Node {
	return p.run(ctx, ModeOuter, root, func(c *Cursor) *dom.Node {
		var expectedNext, expectedPrev *dom.Node
		if Debug() {
			expectedNext = root.NextSibling()
			expectedPrev = root.PreviousSibling()
		}

		c.atStart = true
		describe(c)

		if Debug() {
			if c.currentParent == nil {
				p.log().WarnContext(c.ctx, "patchOuter requires the node have a parent if there is a key.",
					"code", "W101", "root", root.NodeName())
			}
			c.assertPatchElementNoExtras(root, expectedNext, expectedPrev)
		}
		if c.currentParent != nil {
			c.clearUnvisited(c.currentParent, c.nextSiblingNode(), root.NextSibling())
		}
		if c.atStart {
			return nil
		}
		return c.currentNode
	})
}

// run sets up a cursor for root, makes it the active one for the duration
// of body, and restores the previous cursor afterwards even if body panics.
func (p *Patcher) run(ctx context.Context, mode Mode, root *dom.Node, body func(c *Cursor) *dom.Node) *dom.Node {
	if root == nil {
		panic(hostError("%s patch called with a nil root", mode))
	}
	doc := root.OwnerDocument()
	if doc == nil {
		panic(hostError("%s has no owner document", root.NodeName()))
	}

	ctx, span := p.startSpan(ctx, mode, root)
	c := &Cursor{
		p:    p,
		ctx:  ctx,
		doc:  doc,
		root: root,
		pc:   patchContext{notify: p.notify},
	}
	c.currentParent = root.ParentNode()
	c.focusPath = focusedPath(root, c.currentParent)

	prev := p.active
	p.active = c
	start := time.Now()
	completed := false

	defer func() {
		var recovered any
		if !completed {
			recovered = recover()
		}
		c.done = true
		p.active = prev
		c.pc.notifyChanges()

		p.finish(ctx, span, PatchStats{
			Mode:     mode,
			Created:  c.pc.numCreated,
			Deleted:  c.pc.numDeleted,
			Duration: time.Since(start),
			Panicked: !completed,
		}, recovered)

		// A nil recovered value with completed unset means runtime.Goexit,
		// which must be left to unwind on its own.
		if recovered != nil {
			panic(recovered)
		}
	}()

	result := body(c)
	if Debug() {
		c.assertAttributesClosed()
	}
	completed = true
	return result
}

// CurrentElement returns the element whose children are being declared in
// the innermost running patch. It panics with E101 if no patch is running.
func (p *Patcher) CurrentElement() *dom.Node {
	if p.active == nil {
		panic(usageError("E101", "Cannot call currentElement() unless in patch."))
	}
	return p.active.CurrentElement()
}

// CurrentPointer returns the node the innermost running patch will visit
// next. It panics with E101 if no patch is running.
func (p *Patcher) CurrentPointer() *dom.Node {
	if p.active == nil {
		panic(usageError("E101", "Cannot call currentPointer() unless in patch."))
	}
	return p.active.CurrentPointer()
}

// PatchInner runs a PatchInner with a new Patcher configured by opts,
// passing data to describe.
func PatchInner[T any](root *dom.Node, describe func(c *Cursor, data T), data T, opts ...Option) *dom.Node {
	return NewPatcher(opts...).PatchInner(root, func(c *Cursor) { describe(c, data) })
}

// PatchOuter runs a PatchOuter with a new Patcher configured by opts,
// passing data to describe.
func PatchOuter[T any](root *dom.Node, describe func(c *Cursor, data T), data T, opts ...Option) *dom.Node {
	return NewPatcher(opts...).PatchOuter(root, func(c *Cursor) { describe(c, data) })
}
