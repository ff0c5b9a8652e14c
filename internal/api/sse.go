package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventWriter streams Server-Sent Events to a browser. Every event is a
// `data: <json>` line; the stream always terminates with a done event so
// the client sees a deterministic close, whatever happened upstream.
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEventWriter prepares the response for SSE streaming. Returns an
// error when the underlying writer cannot flush incrementally.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{w: w, flusher: flusher}, nil
}

// SendRaw forwards an already-serialized JSON fragment as one event.
func (e *EventWriter) SendRaw(data string) {
	fmt.Fprintf(e.w, "data: %s\n\n", data)
	e.flusher.Flush()
}

// SendJSON serializes v and sends it as one event.
func (e *EventWriter) SendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	e.SendRaw(string(payload))
}

// SendError sends an error event. The raw error is not exposed to the
// client; callers pass a user-facing message.
func (e *EventWriter) SendError(message string) {
	e.SendJSON(map[string]string{"type": "error", "message": message})
}

// Done terminates the stream with the done sentinel.
func (e *EventWriter) Done() {
	e.SendJSON(map[string]string{"type": "done"})
}
