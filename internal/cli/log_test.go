package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{log.InfoLevel, func(l *log.Logger) { l.Info("parsed") }, true},
		{log.InfoLevel, func(l *log.Logger) { l.Debug("measured leaves") }, false},
		{log.DebugLevel, func(l *log.Logger) { l.Debug("measured leaves") }, true},
		{log.WarnLevel, func(l *log.Logger) { l.Info("parsed") }, false},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		tt.emit(newLogger(&buf, tt.level))
		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("level %v: wrote output = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("laid out config.yaml", "nodes", 7, "cached", false)

	out := buf.String()
	for _, want := range []string{"laid out config.yaml", "duration=", "nodes=7", "cached=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("done() output = %q, missing %q", out, want)
		}
	}
}
