package api

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
)

type intentMetrics struct {
	logger        *log.Logger
	start         time.Time
	event         string
	applyDuration time.Duration
	ackRequested  bool
	outcome       string
	message       string
}

func newIntentMetrics(logger *log.Logger, event string) *intentMetrics {
	return &intentMetrics{
		logger: logger,
		start:  time.Now(),
		event:  event,
	}
}

func (m *intentMetrics) ObserveApply(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.applyDuration = duration
}

func (m *intentMetrics) SetAckRequested(requested bool) {
	m.ackRequested = requested
}

func (m *intentMetrics) SetResult(res domain.Result) {
	if res.OK {
		m.outcome = "ok"
		return
	}
	m.outcome = "error"
	m.message = res.Message
}

func (m *intentMetrics) Log() {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"event":         m.event,
		"outcome":       m.outcome,
		"total_ms":      durationToMillis(time.Since(m.start)),
		"ack_requested": m.ackRequested,
	}
	if m.applyDuration > 0 {
		fields["apply_ms"] = durationToMillis(m.applyDuration)
	}
	if m.message != "" {
		fields["message"] = m.message
	}

	m.logger.WithFields(fields).Info("intent.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
