package idom

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/idom/pkg/dom"
)

// MatchFunc decides whether an existing node can be reused for a
// declaration. nameOrCtor and key are the declared values; expected values
// come from the node's NodeData.
type MatchFunc func(node *dom.Node, nameOrCtor, expectedNameOrCtor NameOrCtor, key, expectedKey Key) bool

// DefaultMatch reuses a node when both its NameOrCtor and its Key equal the
// declared ones. A nil key only equals a nil key.
func DefaultMatch(_ *dom.Node, nameOrCtor, expectedNameOrCtor NameOrCtor, key, expectedKey Key) bool {
	return sameValue(nameOrCtor, expectedNameOrCtor) && sameValue(key, expectedKey)
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithMatcher replaces DefaultMatch.
func WithMatcher(m MatchFunc) Option {
	return func(p *Patcher) {
		if m != nil {
			p.match = m
		}
	}
}

// WithNotifications sets the callbacks that receive created and deleted
// nodes after each patch.
func WithNotifications(n Notifications) Option {
	return func(p *Patcher) {
		p.notify = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Patcher) {
		p.logger = logger
	}
}

// WithTracer sets the tracer used to create one span per patch. Defaults to
// a tracer from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Patcher) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithAttributes sets the attribute mutator registry. Defaults to the
// package-level Attributes registry.
func WithAttributes(r *AttributeRegistry) Option {
	return func(p *Patcher) {
		p.attrs = r
	}
}

// WithObserver adds an observer that is told about every finished patch.
func WithObserver(o Observer) Option {
	return func(p *Patcher) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}
