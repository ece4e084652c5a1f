package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/ats-checker/internal/types"
)

// heartbeatInterval keeps idle event streams from being closed by proxies.
const heartbeatInterval = 15 * time.Second

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteState sends a "state" event carrying the snapshot of st.
func (s *SSEWriter) WriteState(st types.SubmissionState) error {
	return s.WriteEvent("state", types.Snapshot(st))
}

// WriteHeartbeat sends a comment line.
func (s *SSEWriter) WriteHeartbeat() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleEvents streams the current state, then every later state, as "state" events.
// A slow client skips intermediate states and always receives the latest one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	updates := make(chan types.SubmissionState, 1)
	unsubscribe := s.ctrl.Subscribe(func(st types.SubmissionState) {
		offerLatest(updates, st)
	})
	defer unsubscribe()

	if err := sse.WriteState(s.ctrl.State()); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case st := <-updates:
			if err := sse.WriteState(st); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := sse.WriteHeartbeat(); err != nil {
				return
			}
		}
	}
}

// offerLatest puts st on a one-slot channel, replacing any value the reader has not taken yet.
// Subscriber callbacks run one at a time, so there is a single sender.
func offerLatest(ch chan types.SubmissionState, st types.SubmissionState) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
