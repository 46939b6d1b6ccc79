package playground

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/idom/pkg/idomtest"
)

const listProgram = `
- open: ul
- each: items
  do:
    - open: li
      keyExpr: item.id
    - textExpr: item.label
    - close: li
- close: ul
`

const listData = `{"items": [{"id": "a", "label": "A"}, {"id": "b", "label": "B"}]}`

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := New(cfg)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func request(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, out
}

func sessionBody(t *testing.T, program, data string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"program": program,
		"data":    json.RawMessage(data),
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func decodeResult(t *testing.T, body []byte) Result {
	t.Helper()
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return res
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return resp.Error.Code
}

func createSession(t *testing.T, ts *httptest.Server) Result {
	t.Helper()
	status, body := request(t, http.MethodPost, ts.URL+"/sessions", sessionBody(t, listProgram, listData))
	if status != http.StatusCreated {
		t.Fatalf("create status = %d: %s", status, body)
	}
	return decodeResult(t, body)
}

func TestOneShotPatch(t *testing.T) {
	srv, ts := newTestServer(t, Config{})

	status, body := request(t, http.MethodPost, ts.URL+"/patch", sessionBody(t, listProgram, listData))
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	res := decodeResult(t, body)
	if res.HTML != "<ul><li>A</li><li>B</li></ul>" {
		t.Errorf("html = %q", res.HTML)
	}
	if res.Created != 5 || res.Deleted != 0 {
		t.Errorf("created = %d, deleted = %d", res.Created, res.Deleted)
	}
	if srv.Len() != 0 {
		t.Errorf("one-shot patch left %d sessions", srv.Len())
	}
}

func TestOneShotPatchAdoptsMarkup(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	b, _ := json.Marshal(map[string]any{
		"html":    `<ul><li key="b">old b</li></ul>`,
		"program": listProgram,
		"data":    json.RawMessage(listData),
	})
	status, body := request(t, http.MethodPost, ts.URL+"/patch", string(b))
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	res := decodeResult(t, body)
	if res.HTML != "<ul><li>A</li><li>B</li></ul>" {
		t.Errorf("html = %q", res.HTML)
	}
	// The imported ul, the keyed li and its text are reused.
	if res.Created != 2 {
		t.Errorf("created = %d, want 2", res.Created)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, ts := newTestServer(t, Config{})

	created := createSession(t, ts)
	if created.ID == "" {
		t.Fatal("session has no id")
	}
	if srv.Len() != 1 {
		t.Fatalf("Len = %d", srv.Len())
	}
	url := ts.URL + "/sessions/" + created.ID

	status, body := request(t, http.MethodGet, url, "")
	if status != http.StatusOK || decodeResult(t, body).HTML != "<ul><li>A</li><li>B</li></ul>" {
		t.Fatalf("get = %d %s", status, body)
	}

	status, body = request(t, http.MethodPatch, url+"/data",
		`[{"op": "replace", "path": "/items/1/label", "value": "Bee"}]`)
	if status != http.StatusOK {
		t.Fatalf("patch status = %d: %s", status, body)
	}
	res := decodeResult(t, body)
	if res.HTML != "<ul><li>A</li><li>Bee</li></ul>" || res.Created != 0 || res.Deleted != 0 {
		t.Errorf("patch result = %+v", res)
	}

	status, body = request(t, http.MethodPatch, url+"/data", `[{"op": "remove", "path": "/items/0"}]`)
	if status != http.StatusOK {
		t.Fatalf("patch status = %d: %s", status, body)
	}
	if res := decodeResult(t, body); res.HTML != "<ul><li>Bee</li></ul>" || res.Deleted != 1 {
		t.Errorf("remove result = %+v", res)
	}
	sess, _ := srv.Session(created.ID)
	idomtest.ExpectHTML(t, sess.root, "<ul><li>Bee</li></ul>")
	idomtest.ExpectElement(t, sess.root, "li")

	status, body = request(t, http.MethodPut, url+"/data", `{"items": []}`)
	if status != http.StatusOK {
		t.Fatalf("put status = %d: %s", status, body)
	}
	if res := decodeResult(t, body); res.HTML != "<ul></ul>" {
		t.Errorf("put result = %+v", res)
	}

	if status, _ := request(t, http.MethodDelete, url, ""); status != http.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}
	status, body = request(t, http.MethodGet, url, "")
	if status != http.StatusNotFound || errorCode(t, body) != "E401" {
		t.Errorf("get after delete = %d %s", status, body)
	}
}

func TestRequestErrors(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	sess := createSession(t, ts)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/sessions", `{`, http.StatusBadRequest, "E402"},
		{"empty instruction", http.MethodPost, "/sessions", sessionBody(t, "- {}", "{}"), http.StatusUnprocessableEntity, "E202"},
		{"bad expression", http.MethodPost, "/patch", sessionBody(t, "- textExpr: '1 +'", "{}"), http.StatusUnprocessableEntity, "E204"},
		{"each over number", http.MethodPut, "/sessions/" + sess.ID + "/data", `{"items": 5}`, http.StatusUnprocessableEntity, "E206"},
		{"unknown op", http.MethodPatch, "/sessions/" + sess.ID + "/data", `[{"op": "bogus", "path": "/x"}]`, http.StatusUnprocessableEntity, "E403"},
		{"failed test op", http.MethodPatch, "/sessions/" + sess.ID + "/data", `[{"op": "test", "path": "/items/0/id", "value": "zzz"}]`, http.StatusUnprocessableEntity, "E403"},
		{"unknown session", http.MethodPut, "/sessions/nope/data", `{}`, http.StatusNotFound, "E401"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := request(t, tt.method, ts.URL+tt.path, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, want %d: %s", status, tt.status, body)
			}
			if code := errorCode(t, body); code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestFailedUpdateKeepsData(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	sess := createSession(t, ts)
	url := ts.URL + "/sessions/" + sess.ID + "/data"

	if status, _ := request(t, http.MethodPut, url, `{"items": "nope"}`); status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", status)
	}
	status, body := request(t, http.MethodPatch, url, `[{"op": "replace", "path": "/items/0/label", "value": "Ay"}]`)
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}
	if res := decodeResult(t, body); res.HTML != "<ul><li>Ay</li><li>B</li></ul>" {
		t.Errorf("html = %q", res.HTML)
	}
}

func TestSessionLimit(t *testing.T) {
	_, ts := newTestServer(t, Config{MaxSessions: 1})
	createSession(t, ts)

	status, body := request(t, http.MethodPost, ts.URL+"/sessions", sessionBody(t, listProgram, listData))
	if status != http.StatusTooManyRequests || errorCode(t, body) != "E406" {
		t.Errorf("second create = %d %s", status, body)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func TestExpire(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	srv := New(Config{
		SessionTTL: time.Minute,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	srv.now = clock.Now
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Close()

	old := createSession(t, ts)
	clock.Set(start.Add(45 * time.Second))
	fresh := createSession(t, ts)

	if n := srv.expire(start.Add(30 * time.Second)); n != 0 {
		t.Errorf("expired %d sessions early", n)
	}
	if n := srv.expire(start.Add(90 * time.Second)); n != 1 {
		t.Errorf("expired %d sessions, want 1", n)
	}
	if _, ok := srv.Session(old.ID); ok {
		t.Error("idle session survived")
	}
	if _, ok := srv.Session(fresh.ID); !ok {
		t.Error("recent session expired")
	}
}

func TestExpireKeepsWatchedSessions(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	srv := New(Config{
		SessionTTL: time.Minute,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	srv.now = clock.Now
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Close()

	created := createSession(t, ts)
	sess, _ := srv.Session(created.ID)
	conn := dial(t, ts, created.ID)
	readMessage(t, conn)

	later := start.Add(time.Hour)
	if n := srv.expire(later); n != 0 {
		t.Fatalf("expired %d watched sessions", n)
	}
	if err := conn.WriteJSON(map[string]any{"type": "data", "data": map[string]any{"items": []any{}}}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Result == nil || msg.Result.HTML != "<ul></ul>" {
		t.Fatalf("socket of a kept session stopped working: %+v", msg)
	}

	// Once the last client leaves the session idles from the time it left.
	clock.Set(later)
	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for sess.idleFor(later.Add(time.Second)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher was not removed after the socket closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if n := srv.expire(later.Add(30 * time.Second)); n != 0 {
		t.Errorf("expired %d sessions right after the client left", n)
	}
	if n := srv.expire(later.Add(2 * time.Minute)); n != 1 {
		t.Errorf("expired %d sessions, want 1", n)
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin", nil, "", true},
		{"same origin", nil, "http://example.test", true},
		{"cross origin", nil, "http://evil.test", false},
		{"listed", []string{"http://app.test"}, "http://APP.test", true},
		{"wildcard", []string{"*"}, "http://evil.test", true},
		{"malformed", nil, "::", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Config{AllowedOrigins: tt.allowed})
			r := httptest.NewRequest(http.MethodGet, "http://example.test/sessions/x/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := srv.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "patches 1\n")
	})
	_, ts := newTestServer(t, Config{MetricsHandler: metrics, MetricsPath: "/stats"})

	status, body := request(t, http.MethodGet, ts.URL+"/stats", "")
	if status != http.StatusOK || !bytes.Contains(body, []byte("patches 1")) {
		t.Errorf("metrics = %d %s", status, body)
	}
}

func dial(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type   string          `json:"type"`
	Result *Result         `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wireMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocket(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	sess := createSession(t, ts)

	a := dial(t, ts, sess.ID)
	b := dial(t, ts, sess.ID)
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != "result" || msg.Result.HTML != "<ul><li>A</li><li>B</li></ul>" {
			t.Fatalf("initial message = %+v", msg)
		}
	}

	err := a.WriteJSON(map[string]any{
		"type":  "data-patch",
		"patch": []map[string]any{{"op": "add", "path": "/items/-", "value": map[string]any{"id": "c", "label": "C"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Type != "result" || msg.Result.HTML != "<ul><li>A</li><li>B</li><li>C</li></ul>" || msg.Result.Created != 2 {
			t.Errorf("broadcast = %+v", msg.Result)
		}
	}

	if err := b.WriteJSON(map[string]any{"type": "data", "data": map[string]any{"items": []any{}}}); err != nil {
		t.Fatal(err)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		if msg := readMessage(t, conn); msg.Result == nil || msg.Result.HTML != "<ul></ul>" {
			t.Errorf("broadcast = %+v", msg)
		}
	}

	for _, raw := range []string{`{"type": "shout"}`, `not json`} {
		if err := a.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatal(err)
		}
		msg := readMessage(t, a)
		if msg.Type != "error" || errorCode(t, []byte(`{"error":`+string(msg.Error)+`}`)) != "E405" {
			t.Errorf("reply to %s = %+v %s", raw, msg, msg.Error)
		}
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial to unknown session succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v", resp)
	}
}
