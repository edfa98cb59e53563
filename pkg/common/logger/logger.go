package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init configures the shared pipeline logger. Every stage binary calls this
// first so a batch run emits one JSON line per event, tagged with the stage.
func Init(stage string) {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	Log.SetLevel(logLevel)

	if stage != "" {
		Log.AddHook(&stageHook{stage: stage})
	}
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

type stageHook struct {
	stage string
}

func (h *stageHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *stageHook) Fire(entry *logrus.Entry) error {
	entry.Data["stage"] = h.stage
	return nil
}
