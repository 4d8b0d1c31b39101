package api

import (
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/hub"
)

// Attachments travel inline as data URLs, so frames can get large.
const inboundMaxSize = 1024 * 1024 // 1 MiB

type inboundEnvelope struct {
	Event   string                 `json:"event"`
	AckID   string                 `json:"ackId,omitempty"`
	Payload sonic.NoCopyRawMessage `json:"payload,omitempty"`
}

type outboundEnvelope struct {
	Event   string `json:"event"`
	AckID   string `json:"ackId,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type ackPayload struct {
	Status  string       `json:"status"`
	Task    *domain.Task `json:"task,omitempty"`
	Message string       `json:"message,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func encodeSync(tasks []domain.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return sonic.ConfigStd.Marshal(outboundEnvelope{Event: domain.EventSyncTasks, Payload: tasks})
}

func encodeAck(ackID string, res domain.Result) ([]byte, error) {
	p := ackPayload{Status: "error", Message: res.Message}
	if res.OK {
		t := res.Task
		p = ackPayload{Status: "ok", Task: &t}
	}
	return sonic.ConfigStd.Marshal(outboundEnvelope{Event: domain.EventAck, AckID: ackID, Payload: p})
}

func encodeError(message string) ([]byte, error) {
	return sonic.ConfigStd.Marshal(outboundEnvelope{Event: domain.EventError, Payload: errorPayload{Message: message}})
}

// SnapshotBroadcaster adapts the hub to the mutation service: it
// serializes the task list once per mutation and publishes the frame to
// every subscriber.
type SnapshotBroadcaster struct {
	hub    *hub.Hub
	logger *log.Logger
}

func NewSnapshotBroadcaster(h *hub.Hub, logger *log.Logger) *SnapshotBroadcaster {
	return &SnapshotBroadcaster{hub: h, logger: logger}
}

func (b *SnapshotBroadcaster) Broadcast(tasks []domain.Task) {
	data, err := encodeSync(tasks)
	if err != nil {
		b.logger.Errorf("marshal tasks: %v", err)
		return
	}
	b.hub.Publish(data)
}
