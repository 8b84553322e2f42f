package asmc

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the assembler's verbose-mode logger: a stderr text
// handler, and, when logFile is non-empty, an additional handler fanned
// out via slog-multi writing to that file. Verbose logging never touches
// the stdout success line or the single-line [ASMC ERROR] diagnostic
// (errors.go/the CLI own those); it is purely additional pass-by-pass
// progress noise on stderr.
func NewLogger(verbose bool, logFile string) (*slog.Logger, func() error, error) {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, nil)}
	closeFn := func() error { return nil }

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, nil))
		closeFn = f.Close
	}

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, closeFn, nil
}
