package ws

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("ws: streaming unsupported")

// SSEClient streams space events as Server-Sent Events.
type SSEClient struct {
	mu      sync.Mutex
	writer  io.Writer
	flusher http.Flusher
	log     *slog.Logger
	seq     int64
	closed  bool
	done    chan struct{}
}

// NewSSEClient prepares w for an event stream and writes the response headers.
func NewSSEClient(w http.ResponseWriter, logger *slog.Logger) (*SSEClient, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSEClient{writer: w, flusher: flusher, log: logger, done: make(chan struct{})}, nil
}

// Send emits one event frame carrying payload.
func (c *SSEClient) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.EOF
	}
	c.seq++
	if _, err := fmt.Fprintf(c.writer, "id: %d\ndata: %s\n\n", c.seq, payload); err != nil {
		c.log.Warn("sse send failed", "error", err)
		c.closeLocked()
		return err
	}
	c.flusher.Flush()
	return nil
}

// Heartbeat emits a comment frame to keep proxies from timing the stream out.
func (c *SSEClient) Heartbeat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.EOF
	}
	if _, err := fmt.Fprint(c.writer, ": ping\n\n"); err != nil {
		c.log.Warn("sse heartbeat failed", "error", err)
		c.closeLocked()
		return err
	}
	c.flusher.Flush()
	return nil
}

// Done is closed once the stream stops accepting events.
func (c *SSEClient) Done() <-chan struct{} {
	return c.done
}

// Close marks the stream as closed.
func (c *SSEClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *SSEClient) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}
