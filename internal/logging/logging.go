// Package logging builds the process logger. Diagnostics always go to
// stderr so stdout stays reserved for reports.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altin/treeherder-cli/internal/model"
)

// New returns a logger writing text records at level to w.
func New(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return log, nil
}

func ParseLevel(level string) (logrus.Level, error) {
	if strings.TrimSpace(level) == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("%w: log level %q", model.ErrInvalidInput, level)
	}
	return lvl, nil
}

// Discard returns a logger that drops everything; used by tests and
// library callers that did not provide one.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func WithComponent(log logrus.FieldLogger, component string) *logrus.Entry {
	return log.WithField("component", component)
}

func WithJob(log logrus.FieldLogger, job model.Job) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.JobTypeName,
		"platform": job.Platform,
	})
}
