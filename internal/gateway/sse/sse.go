// Package sse implements the downstream SSE writer and the upstream SSE
// reframer. It is a standalone package (rather than living in
// internal/gateway) so internal/dispatch can drive both the reframer and
// the writer without importing the HTTP handler package.
package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Writer writes the downstream event envelope: two lines, `event: <name>`
// and `data: <json>`, followed by a blank line, flushed immediately so the
// caller sees each event as it is produced.
type Writer struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewWriter prepares w for event streaming: sets the SSE headers and
// flushes them immediately so intermediaries don't buffer the response.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disables buffering in nginx-fronted deployments; a plain proxy that
	// does not recognize this header ignores it.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Writer{w: w, f: flusher}, nil
}

// WriteEvent writes one downstream event with the given name and JSON data
// payload.
func (s *Writer) WriteEvent(name string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, encoded); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Reframer consumes the raw upstream byte stream and yields one `data:`
// payload per complete frame, carrying an unterminated remainder across
// reads via a tail buffer.
type Reframer struct {
	scanner *bufio.Scanner
}

// NewReframer wraps an upstream response body for frame-at-a-time reading.
func NewReframer(r io.Reader) *Reframer {
	scanner := bufio.NewScanner(r)
	// Upstream frames are small (one delta each); this generously bounds
	// the rare frame that batches a large tool-call argument fragment.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(splitFrames)
	return &Reframer{scanner: scanner}
}

// splitFrames is a bufio.SplitFunc that splits on the SSE frame boundary
// `\n\n`, leaving any unterminated remainder in the buffer for the next
// read.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Frame is one reframed upstream frame: either a `[DONE]` sentinel or a
// JSON data payload.
type Frame struct {
	Data string
	Done bool
}

// Next reads the next complete frame, extracting its `data:` line(s). It
// returns ok=false once the underlying stream is exhausted. Frames with no
// `data:` line are silently skipped.
func (r *Reframer) Next() (Frame, bool) {
	for r.scanner.Scan() {
		frame := r.scanner.Text()
		line, found := extractData(frame)
		if !found {
			continue
		}
		if line == "[DONE]" {
			return Frame{Done: true}, true
		}
		return Frame{Data: line}, true
	}
	return Frame{}, false
}

// Err returns any non-EOF error the underlying scan encountered.
func (r *Reframer) Err() error {
	return r.scanner.Err()
}

// extractData pulls the `data: ` line(s) out of one SSE frame. SSE allows
// multiple data lines per frame, joined with a newline; upstream chat
// completion frames only ever send one, but this stays correct either way.
func extractData(frame string) (string, bool) {
	var lines []string
	for _, line := range strings.Split(frame, "\n") {
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			lines = append(lines, strings.TrimPrefix(rest, " "))
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
