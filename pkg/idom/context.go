package idom

import (
	"sync"

	"github.com/vango-dev/idom/pkg/dom"
)

// Notifications receives the nodes created and deleted by a patch. Each
// callback is invoked at most once per patch, after the patch finishes,
// and only if its list is non-empty. Nil callbacks are skipped.
type Notifications struct {
	NodesCreated func(nodes []*dom.Node)
	NodesDeleted func(nodes []*dom.Node)
}

// patchContext collects the changes made by one patch.
type patchContext struct {
	notify  Notifications
	created []*dom.Node
	deleted []*dom.Node

	numCreated int
	numDeleted int
}

func (pc *patchContext) markCreated(node *dom.Node) {
	pc.numCreated++
	if pc.notify.NodesCreated != nil {
		pc.created = append(pc.created, node)
	}
}

func (pc *patchContext) markDeleted(node *dom.Node) {
	pc.numDeleted++
	if pc.notify.NodesDeleted != nil {
		pc.deleted = append(pc.deleted, node)
	}
}

func (pc *patchContext) notifyChanges() {
	if len(pc.created) > 0 {
		pc.notify.NodesCreated(pc.created)
	}
	if len(pc.deleted) > 0 {
		pc.notify.NodesDeleted(pc.deleted)
	}
	pc.created, pc.deleted = nil, nil
}

// ChangeLog accumulates notifications across patches. It is safe for
// concurrent use.
type ChangeLog struct {
	mu      sync.Mutex
	created []*dom.Node
	deleted []*dom.Node
}

// Notifications returns callbacks that append to the log.
func (l *ChangeLog) Notifications() Notifications {
	return Notifications{
		NodesCreated: func(nodes []*dom.Node) {
			l.mu.Lock()
			l.created = append(l.created, nodes...)
			l.mu.Unlock()
		},
		NodesDeleted: func(nodes []*dom.Node) {
			l.mu.Lock()
			l.deleted = append(l.deleted, nodes...)
			l.mu.Unlock()
		},
	}
}

// Created returns the nodes created since the last Reset.
func (l *ChangeLog) Created() []*dom.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*dom.Node(nil), l.created...)
}

// Deleted returns the nodes deleted since the last Reset.
func (l *ChangeLog) Deleted() []*dom.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*dom.Node(nil), l.deleted...)
}

// Reset clears the log.
func (l *ChangeLog) Reset() {
	l.mu.Lock()
	l.created, l.deleted = nil, nil
	l.mu.Unlock()
}
