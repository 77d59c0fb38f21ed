package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func ConsoleLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// FileLogger writes JSON lines to a rotating file at path and text to stderr.
// The returned closer flushes and closes the file.
func FileLogger(level logrus.Level, path string) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
	}
	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(file)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.AddHook(&mirrorHook{
		out:       os.Stderr,
		formatter: &logrus.TextFormatter{FullTimestamp: true},
	})
	return log, file, nil
}

type mirrorHook struct {
	out       io.Writer
	formatter logrus.Formatter
}

func (h *mirrorHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *mirrorHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.out.Write(b)
	return err
}
