// Package playground serves patch sessions over HTTP and WebSocket.
//
// A session owns a host tree, a script program and a JSON data value.
// Every data change replays the program against the tree with PatchInner,
// so clients can watch which nodes the engine reuses, creates and removes.
//
// # Endpoints
//
//	POST   /patch                  one-shot: {html, program, data} -> {html, created, deleted}
//	POST   /sessions               create a session from {html, program, data}
//	GET    /sessions/{id}          current markup
//	PUT    /sessions/{id}/data     replace the data and re-patch
//	PATCH  /sessions/{id}/data     apply an RFC 6902 JSON Patch to the data and re-patch
//	DELETE /sessions/{id}          delete the session
//	GET    /sessions/{id}/ws       live updates
//
// WebSocket clients send {"type": "data", "data": ...} or
// {"type": "data-patch", "patch": [...]}. Every successful update is
// broadcast to all clients of the session as {"type": "result", ...};
// failures are sent to the requesting client only as
// {"type": "error", "error": {...}}.
package playground
