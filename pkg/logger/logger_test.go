package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "trading_bot.log")

	l, err := New(Config{Level: "debug", File: path, MaxSize: 1, Console: &console})
	require.NoError(t, err)

	l.Component("position", "BNBUSDT").Info("position open")
	l.Debug("details")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "position open")
	assert.Contains(t, string(data), "component=position")
	assert.Contains(t, string(data), "symbol=BNBUSDT")
	assert.Contains(t, string(data), "details")
	assert.Equal(t, string(data), console.String())
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"chatty", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(Config{Level: tt.level, Console: &bytes.Buffer{}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.GetLevel())
			assert.NoError(t, l.Close())
		})
	}
}

func TestComponentWithoutSymbol(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Config{Console: &console})
	require.NoError(t, err)

	l.Component("config", "").Warn("using defaults")
	assert.Contains(t, console.String(), "component=config")
	assert.NotContains(t, console.String(), "symbol=")
	assert.Contains(t, console.String(), "level=warning")
}
