package patchmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/idom/pkg/dom"
	"github.com/vango-dev/idom/pkg/idom"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestObservePatch(t *testing.T) {
	c := New(WithRegistry(prometheus.NewRegistry()))

	c.ObservePatch(context.Background(), idom.PatchStats{Mode: idom.ModeInner, Created: 3, Deleted: 1, Duration: time.Millisecond})
	c.ObservePatch(context.Background(), idom.PatchStats{Mode: idom.ModeInner, Created: 1, Panicked: true})
	c.ObservePatch(context.Background(), idom.PatchStats{Mode: idom.ModeOuter, Deleted: 2})

	if got := counterValue(t, c.patchesTotal.WithLabelValues("inner", "success")); got != 1 {
		t.Errorf("patches_total(inner, success) = %v, want 1", got)
	}
	if got := counterValue(t, c.patchesTotal.WithLabelValues("inner", "panic")); got != 1 {
		t.Errorf("patches_total(inner, panic) = %v, want 1", got)
	}
	if got := counterValue(t, c.nodesCreated.WithLabelValues("inner")); got != 4 {
		t.Errorf("nodes_created_total(inner) = %v, want 4", got)
	}
	if got := counterValue(t, c.nodesDeleted.WithLabelValues("outer")); got != 2 {
		t.Errorf("nodes_deleted_total(outer) = %v, want 2", got)
	}
	if got := histogramCount(t, c.patchDuration.WithLabelValues("inner")); got != 2 {
		t.Errorf("patch_duration_seconds(inner) count = %d, want 2", got)
	}
}

func TestCollectorAsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithNamespace("test"), WithConstLabels(prometheus.Labels{"app": "demo"}))

	doc := dom.NewDocument()
	root := doc.Body().AppendChild(doc.CreateElement("div"))
	p := idom.NewPatcher(idom.WithObserver(c))
	p.PatchInner(root, func(cur *idom.Cursor) {
		cur.ElementOpen("p", nil, nil)
		cur.Text("hello")
		cur.ElementClose("p")
	})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"test_patches_total",
		"test_patch_duration_seconds",
		"test_nodes_created_total",
		"test_nodes_deleted_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered, have %v", want, names)
		}
	}
	if got := counterValue(t, c.nodesCreated.WithLabelValues("inner")); got != 2 {
		t.Errorf("nodes_created_total(inner) = %v, want 2", got)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	New(WithRegistry(reg))
}
