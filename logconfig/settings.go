package logconfig

import (
	"strings"

	myLogger "github.com/sirupsen/logrus"
)

const DefaultLevel = "info"

// This output format is used in the test (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production, one json object per line.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigLogger applies a LOG_LEVEL value.
// "" means info, "production" means ConfigProductionLogger, anything
// logrus cannot parse falls back to info with a warning.
func ConfigLogger(level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "", DefaultLevel:
		ConfigInfoLogger()
		return
	case "debug":
		ConfigDebugLogger()
		return
	case "production", "json":
		ConfigProductionLogger()
		return
	}

	parsed, err := myLogger.ParseLevel(level)
	ConfigInfoLogger()
	if err != nil {
		myLogger.Warnf("invalid LOG_LEVEL %q, using %s", level, DefaultLevel)
		return
	}
	myLogger.SetLevel(parsed)
}
