package playground

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/dom"
	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/script"
)

// Result is the outcome of one patch.
type Result struct {
	ID      string `json:"id,omitempty"`
	HTML    string `json:"html"`
	Created int    `json:"created"`
	Deleted int    `json:"deleted"`
}

// Session is a host tree patched by a program whenever its data changes.
// All methods are safe for concurrent use; patches of one session are
// serialised.
type Session struct {
	id  string
	log *slog.Logger

	mu       sync.Mutex
	root     *dom.Node
	prog     *script.Program
	patcher  *idom.Patcher
	data     []byte
	stats    idom.PatchStats
	lastUsed time.Time
	watchers map[*watcher]struct{}
}

// newSession parses the program, adopts markup into a fresh document and
// runs the first patch.
func newSession(ctx context.Context, id string, req sessionRequest, opts []idom.Option, log *slog.Logger, now time.Time) (*Session, Result, error) {
	prog, err := script.Parse([]byte(req.Program))
	if err != nil {
		return nil, Result{}, err
	}

	doc := dom.NewDocument()
	root := doc.Body().AppendChild(doc.CreateElement("div"))
	if req.HTML != "" {
		if err := dom.SetInnerHTML(root, req.HTML); err != nil {
			return nil, Result{}, errors.New("E402").Wrap(err).WithReason("html: %v", err)
		}
		idom.ImportNode(root)
	}

	data := []byte(req.Data)
	if len(data) == 0 {
		data = []byte("{}")
	}

	s := &Session{
		id:       id,
		log:      log.With("session", id),
		root:     root,
		prog:     prog,
		data:     data,
		lastUsed: now,
		watchers: make(map[*watcher]struct{}),
	}
	record := idom.ObserverFunc(func(_ context.Context, stats idom.PatchStats) {
		s.stats = stats
	})
	s.patcher = idom.NewPatcher(append(append([]idom.Option(nil), opts...), idom.WithObserver(record), idom.WithLogger(s.log))...)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.render(ctx)
	if err != nil {
		return nil, Result{}, err
	}
	return s, res, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// HTML returns the current markup.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.InnerHTML(s.root)
}

// render replays the program with the current data. Callers hold s.mu.
func (s *Session) render(ctx context.Context) (Result, error) {
	var data any
	if err := json.Unmarshal(s.data, &data); err != nil {
		return Result{}, errors.New("E402").Wrap(err).WithReason("data: %v", err)
	}
	if _, err := script.Patch(ctx, s.patcher, s.root, s.prog, data); err != nil {
		s.log.WarnContext(ctx, "patch failed", "error", err)
		return Result{}, err
	}
	s.log.DebugContext(ctx, "patched", "created", s.stats.Created, "deleted", s.stats.Deleted)
	return Result{
		ID:      s.id,
		HTML:    dom.InnerHTML(s.root),
		Created: s.stats.Created,
		Deleted: s.stats.Deleted,
	}, nil
}

// SetData replaces the data and re-patches.
func (s *Session) SetData(ctx context.Context, data json.RawMessage, now time.Time) (Result, error) {
	if !json.Valid(data) {
		return Result{}, errors.New("E402").WithReason("data is not valid JSON")
	}
	return s.update(ctx, now, func([]byte) ([]byte, error) {
		return data, nil
	})
}

// ApplyPatch applies an RFC 6902 JSON Patch to the data and re-patches.
func (s *Session) ApplyPatch(ctx context.Context, patch json.RawMessage, now time.Time) (Result, error) {
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return Result{}, errors.New("E403").Wrap(err).WithReason("%v", err)
	}
	return s.update(ctx, now, func(doc []byte) ([]byte, error) {
		out, err := ops.Apply(doc)
		if err != nil {
			return nil, errors.New("E403").Wrap(err).WithReason("%v", err)
		}
		return out, nil
	})
}

// update computes new data, re-patches and broadcasts the result. The
// previous data is restored if the patch fails; the tree may then be
// partially patched until the next successful update.
func (s *Session) update(ctx context.Context, now time.Time, next func([]byte) ([]byte, error)) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now

	data, err := next(s.data)
	if err != nil {
		return Result{}, err
	}
	prev := s.data
	s.data = data
	res, err := s.render(ctx)
	if err != nil {
		s.data = prev
		return Result{}, err
	}
	s.broadcast(message{Type: msgResult, Result: &res})
	return res, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// idleFor returns how long the session has gone unused at now. A session
// with connected watchers is never idle.
func (s *Session) idleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.watchers) > 0 {
		return 0
	}
	return now.Sub(s.lastUsed)
}

func (s *Session) addWatcher(w *watcher) {
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()
}

// removeWatcher drops w and restarts the idle clock.
func (s *Session) removeWatcher(w *watcher, now time.Time) {
	s.mu.Lock()
	delete(s.watchers, w)
	s.lastUsed = now
	s.mu.Unlock()
}

// broadcast sends msg to every watcher, dropping those that fail. Callers
// hold s.mu.
func (s *Session) broadcast(msg message) {
	for w := range s.watchers {
		if err := w.send(msg); err != nil {
			s.log.Debug("dropping watcher", "error", err)
			delete(s.watchers, w)
			w.close()
		}
	}
}

// close disconnects all watchers.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers {
		w.close()
		delete(s.watchers, w)
	}
}

const writeWait = 10 * time.Second

// watcher is a WebSocket client of a session. Writes are serialised by mu
// since broadcasts and replies come from different goroutines.
type watcher struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *watcher) send(msg message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(msg)
}

func (w *watcher) close() {
	w.conn.Close()
}
