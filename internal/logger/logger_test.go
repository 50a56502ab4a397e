package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/abhisek/lernapp/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"production", false},
		{"local", true},
	}
	for _, tt := range tests {
		l, err := New(&config.Config{Env: tt.env})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.env, err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
			t.Errorf("env %q: debug enabled = %v, want %v", tt.env, got, tt.wantDebug)
		}
	}
}
