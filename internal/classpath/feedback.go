package classpath

import (
	"log/slog"
	"sync"
)

// Feedback receives progress and errors while path entries are mapped.
type Feedback interface {
	StartMapping()
	Mapping(msg string)
	ErrorWhileMapping(msg string)
	EndMapping()
}

var (
	feedbackMu     sync.Mutex
	activeFeedback Feedback
)

// SetFeedback installs the process-wide feedback sink. Only one sink may be
// active at a time.
func SetFeedback(f Feedback) error {
	feedbackMu.Lock()
	defer feedbackMu.Unlock()
	if activeFeedback != nil {
		return ErrFeedbackRegistered
	}
	activeFeedback = f
	return nil
}

// ClearFeedback removes the process-wide sink.
func ClearFeedback() {
	feedbackMu.Lock()
	activeFeedback = nil
	feedbackMu.Unlock()
}

func currentFeedback() Feedback {
	feedbackMu.Lock()
	defer feedbackMu.Unlock()
	if activeFeedback != nil {
		return activeFeedback
	}
	return logFeedback{}
}

// logFeedback is the default sink.
type logFeedback struct{}

func (logFeedback) StartMapping()      { slog.Debug("Start classpath mapping") }
func (logFeedback) Mapping(msg string) { slog.Debug("Mapping classpath entry", "entry", msg) }
func (logFeedback) ErrorWhileMapping(msg string) {
	slog.Warn("Error while mapping classpath", "error", msg)
}
func (logFeedback) EndMapping() { slog.Debug("End classpath mapping") }
