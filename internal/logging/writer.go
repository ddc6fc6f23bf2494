package logging

import (
	"log/slog"
	"strings"
)

// Writer is an io.Writer implementation that forwards subprocess output to slog.
type Writer struct {
	logger *slog.Logger
	tool   string
}

// NewWriter constructs a Writer that labels forwarded lines with the given tool name.
func NewWriter(logger *slog.Logger, tool string) *Writer {
	return &Writer{logger: logger, tool: tool}
}

// Write logs each non-empty line in p at info level.
// Subprocess pipes may deliver several lines per chunk, so the chunk is split.
func (w *Writer) Write(p []byte) (int, error) {
	if w.logger != nil {
		for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
			if line = strings.TrimRight(line, "\r"); line != "" {
				w.logger.Info("tool output", "tool", w.tool, "line", line)
			}
		}
	}
	return len(p), nil
}
