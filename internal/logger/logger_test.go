package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		development bool
		wantLevel   zapcore.Level
	}{
		{name: "Production info", level: "info", wantLevel: zapcore.InfoLevel},
		{name: "Production debug", level: "debug", wantLevel: zapcore.DebugLevel},
		{name: "Development warn", level: "warn", development: true, wantLevel: zapcore.WarnLevel},
		{name: "Unknown level falls back to info", level: "chatty", wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New("tradesense", tt.level, tt.development)
			require.NoError(t, err)

			assert.True(t, log.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}
