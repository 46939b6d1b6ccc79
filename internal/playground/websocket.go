package playground

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/idom/internal/errors"
)

// Message types exchanged over the session WebSocket.
const (
	msgData      = "data"
	msgDataPatch = "data-patch"
	msgResult    = "result"
	msgError     = "error"
)

type message struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Patch  json.RawMessage `json:"patch,omitempty"`
	Result *Result         `json:"result,omitempty"`
	Error  *errors.Error   `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	wt := &watcher{conn: conn}
	sess.addWatcher(wt)
	defer func() {
		sess.removeWatcher(wt, s.now())
		wt.close()
	}()

	// Send the current state so the client starts in sync.
	if err := wt.send(message{Type: msgResult, Result: &Result{ID: sess.ID(), HTML: sess.HTML()}}); err != nil {
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", "session", sess.ID(), "error", err)
			}
			return
		}

		// Results are broadcast by the session; only failures are answered here.
		var msg message
		if jerr := json.Unmarshal(raw, &msg); jerr != nil {
			err = errors.New("E405").Wrap(jerr).WithReason("%v", jerr)
		} else {
			err = s.dispatch(r, sess, msg)
		}
		if err != nil {
			if werr := wt.send(message{Type: msgError, Error: errors.FromError(err, "E404")}); werr != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(r *http.Request, sess *Session, msg message) error {
	var err error
	switch msg.Type {
	case msgData:
		_, err = sess.SetData(r.Context(), msg.Data, s.now())
	case msgDataPatch:
		_, err = sess.ApplyPatch(r.Context(), msg.Patch, s.now())
	default:
		err = errors.New("E405").WithReason("unknown message type %q", msg.Type)
	}
	return err
}
