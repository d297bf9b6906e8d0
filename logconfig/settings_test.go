package logconfig

import (
	"testing"

	myLogger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigLogger(t *testing.T) {
	defer ConfigInfoLogger()

	tests := []struct {
		level string
		want  myLogger.Level
	}{
		{"", myLogger.InfoLevel},
		{"info", myLogger.InfoLevel},
		{"DEBUG", myLogger.DebugLevel},
		{"warn", myLogger.WarnLevel},
		{"error", myLogger.ErrorLevel},
		{"production", myLogger.InfoLevel},
		{"verbose", myLogger.InfoLevel},
	}
	for _, tt := range tests {
		ConfigLogger(tt.level)
		assert.Equal(t, tt.want, myLogger.GetLevel(), tt.level)
	}

	ConfigLogger("production")
	assert.IsType(t, &myLogger.JSONFormatter{}, myLogger.StandardLogger().Formatter)
	ConfigLogger("debug")
	assert.True(t, myLogger.StandardLogger().ReportCaller)
}
