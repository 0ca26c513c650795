package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a charm logger writing to w with centisecond timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs one completed operation together with how long it took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level, e.g. "laid out sample duration=12ms nodes=42".
func (p *progress) done(msg string, keyvals ...any) {
	kv := append([]any{"duration", time.Since(p.start).Round(time.Millisecond)}, keyvals...)
	p.logger.Info(msg, kv...)
}
