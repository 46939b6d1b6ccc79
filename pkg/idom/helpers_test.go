package idom

import (
	"testing"

	"github.com/vango-dev/idom/pkg/dom"
)

// newContainer returns an empty <div> attached to a fresh document body.
func newContainer(t *testing.T) *dom.Node {
	t.Helper()
	doc := dom.NewDocument()
	return doc.Body().AppendChild(doc.CreateElement("div"))
}

// withDebug enables debug assertions for the duration of the test.
func withDebug(t *testing.T, enabled bool) {
	t.Helper()
	prev := Debug()
	SetDebug(enabled)
	t.Cleanup(func() { SetDebug(prev) })
}

// recordingPatcher returns a patcher whose notifications go to log.
func recordingPatcher(log *ChangeLog, opts ...Option) *Patcher {
	return NewPatcher(append([]Option{WithNotifications(log.Notifications())}, opts...)...)
}
