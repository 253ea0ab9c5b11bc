package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// Writer frames fragments as data lines. When the underlying writer can
// flush (an http.ResponseWriter, for example), every frame is flushed so the
// client sees it immediately.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer that writes frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFragment writes one content frame.
func (w *Writer) WriteFragment(content string) error {
	data, err := json.Marshal(frame{Content: content})
	if err != nil {
		return fmt.Errorf("sse: marshal frame: %w", err)
	}
	return w.emit(data)
}

// WriteDone writes the end-of-stream marker.
func (w *Writer) WriteDone() error {
	return w.emit([]byte(doneMarker))
}

func (w *Writer) emit(payload []byte) error {
	if _, err := fmt.Fprintf(w.w, "%s%s\n\n", dataPrefix, payload); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	if f, ok := w.w.(interface{ Flush() }); ok {
		f.Flush()
	}
	return nil
}
