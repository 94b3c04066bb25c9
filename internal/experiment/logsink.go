package experiment

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// logFileName is created at the output root and inside every task directory.
const logFileName = "output.log"

// openSink builds a logger that writes to dir/output.log as well as the
// orchestrator's console writer. The returned closer flushes the file.
func openSink(console io.Writer, dir string, level slog.Level) (*slog.Logger, func() error, error) {
	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log sink %s: %w", path, err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(console, file), &slog.HandlerOptions{Level: level})
	return slog.New(handler), file.Close, nil
}
