package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger builds a text slog.Logger from l. Output goes to l.File when
// set and to fallback otherwise; a nil fallback discards. The returned
// close function releases the file and is never nil.
func (l LogConfig) NewLogger(fallback io.Writer) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	closeFn := func() error { return nil }
	if l.File != "" {
		f, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}
	if w == nil {
		w = io.Discard
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closeFn, nil
}
