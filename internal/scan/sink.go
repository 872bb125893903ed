package scan

import (
	"sync"

	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/rohankatakam/depscan/internal/extract"
	"github.com/sirupsen/logrus"
)

// Sink observes a run. Each run owns its sink; calls come from the run's
// goroutine only.
type Sink interface {
	Progress(done, total int)
	Excluded(sha string)
	FileUnavailable(sha, path string)
	ExtractionSkipped(sha, path string, err *extract.SkipError)
}

// Counts is what a LogSink has seen
type Counts struct {
	Progress    int
	Excluded    int
	Unavailable int
	Skipped     int
}

// LogSink reports events through a logrus logger and counts them
type LogSink struct {
	logger logrus.FieldLogger

	mu     sync.Mutex
	counts Counts
}

// NewLogSink returns a sink writing to logger
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Progress(done, total int) {
	s.mu.Lock()
	s.counts.Progress++
	s.mu.Unlock()
	s.logger.WithFields(logrus.Fields{"done": done, "total": total}).Info("processed commits")
}

func (s *LogSink) Excluded(sha string) {
	s.mu.Lock()
	s.counts.Excluded++
	s.mu.Unlock()
	s.logger.WithField("sha", sha).Debug("commit excluded: unparsable author date")
}

func (s *LogSink) FileUnavailable(sha, path string) {
	s.mu.Lock()
	s.counts.Unavailable++
	s.mu.Unlock()
	s.logger.WithFields(logrus.Fields{"sha": sha, "path": path}).Debug("file content unavailable")
}

func (s *LogSink) ExtractionSkipped(sha, path string, err *extract.SkipError) {
	s.mu.Lock()
	s.counts.Skipped++
	s.mu.Unlock()
	skip := errs.ExtractionError(err, "extraction skipped").
		WithContext("sha", sha).
		WithContext("path", path).
		WithContext("language", string(err.Language))
	s.logger.WithFields(logrus.Fields(skip.Context)).
		WithField("severity", skip.Severity).
		WithError(err).
		Warn(skip.Message)
}

// Counts returns a snapshot of the counters
func (s *LogSink) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// NopSink discards every event
type NopSink struct{}

func (NopSink) Progress(int, int)                                    {}
func (NopSink) Excluded(string)                                      {}
func (NopSink) FileUnavailable(string, string)                       {}
func (NopSink) ExtractionSkipped(string, string, *extract.SkipError) {}
