package idom

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/idom/pkg/dom"
)

const tracerName = "github.com/vango-dev/idom"

// Mode is the kind of patch.
type Mode string

const (
	ModeInner Mode = "inner"
	ModeOuter Mode = "outer"
)

// PatchStats describes a finished patch.
type PatchStats struct {
	Mode     Mode
	Created  int
	Deleted  int
	Duration time.Duration

	// Panicked is set when the description function or an assertion
	// panicked; the tree may be partially patched.
	Panicked bool
}

// Observer is told about every patch a Patcher finishes, including patches
// that panicked.
type Observer interface {
	ObservePatch(ctx context.Context, stats PatchStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, stats PatchStats)

// ObservePatch calls f.
func (f ObserverFunc) ObservePatch(ctx context.Context, stats PatchStats) {
	f(ctx, stats)
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func (p *Patcher) startSpan(ctx context.Context, mode Mode, root *dom.Node) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "idom.Patch"+spanSuffix(mode),
		trace.WithAttributes(
			attribute.String("idom.mode", string(mode)),
			attribute.String("idom.root", root.NodeName()),
		),
	)
}

func spanSuffix(mode Mode) string {
	if mode == ModeOuter {
		return "Outer"
	}
	return "Inner"
}

// finish ends the span, reports stats to observers and logs the patch.
// recovered is the panic value if the patch panicked.
func (p *Patcher) finish(ctx context.Context, span trace.Span, stats PatchStats, recovered any) {
	span.SetAttributes(
		attribute.Int("idom.nodes_created", stats.Created),
		attribute.Int("idom.nodes_deleted", stats.Deleted),
	)
	if stats.Panicked {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("%v", recovered)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	for _, o := range p.observers {
		o.ObservePatch(ctx, stats)
	}

	log := p.log()
	if stats.Panicked {
		log.DebugContext(ctx, "patch aborted", "mode", stats.Mode, "created", stats.Created, "deleted", stats.Deleted, "panic", recovered)
		return
	}
	log.DebugContext(ctx, "patch complete", "mode", stats.Mode, "created", stats.Created, "deleted", stats.Deleted, "duration", stats.Duration)
}
