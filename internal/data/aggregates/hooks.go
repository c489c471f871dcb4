package aggregates

import (
	"time"

	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

// Hooks captures aggregate-level observability events.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type loggingHooks struct {
	log *logger.Logger
}

// NewLoggingHooks creates aggregate hooks that emit structured log events.
func NewLoggingHooks(log *logger.Logger) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return &loggingHooks{log: log.With("component", "aggregate_hooks")}
}

func (h *loggingHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.log.Debug("aggregate operation", "op", name, "status", status, "duration_ms", dur.Milliseconds())
}

func (h *loggingHooks) IncConflict(name string) {
	h.log.Warn("aggregate conflict", "op", name)
}

func (h *loggingHooks) IncRetry(name string) {
	h.log.Debug("aggregate retryable failure", "op", name)
}
