// Package logger configures the process-wide logrus logger from the
// loaded configuration.
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/apiarium/apiary/cmd/apiaryd/config"
)

// Init applies the logging configuration: level, output targets, and the
// optional error-duplicating smart log.
func Init() {
	c := config.Get().Logging.Internal
	if lvl, err := log.ParseLevel(c.Level); err == nil {
		log.SetLevel(lvl)
	}
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)
	log.SetOutput(output(c.LoggerConf, "apiary.log"))
	if c.Smart.Enabled {
		if hook, err := newSmartHook(filepath.Join(c.Smart.Dir, "apiary.error.log")); err != nil {
			log.WithError(err).Error("could not open smart log")
		} else {
			log.AddHook(hook)
		}
	}
}

func output(c config.LoggerConf, name string) io.Writer {
	var ws []io.Writer
	if c.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(c.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640,
		)
		if err != nil {
			log.WithError(err).Error("could not open log file, falling back to stderr")
		} else {
			ws = append(ws, f)
		}
	}
	if c.StdErr || len(ws) == 0 {
		ws = append(ws, os.Stderr)
	}
	if len(ws) == 1 {
		return ws[0]
	}
	return io.MultiWriter(ws...)
}

// smartHook duplicates error-and-above entries to a dedicated log file.
type smartHook struct {
	w         io.Writer
	formatter log.Formatter
}

func newSmartHook(path string) (*smartHook, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}
	return &smartHook{
		w: f,
		formatter: &log.TextFormatter{
			FullTimestamp: true,
		},
	}, nil
}

func (h *smartHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

func (h *smartHook) Fire(entry *log.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(b)
	return err
}
