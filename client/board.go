// Package client is the reconciliation layer of a board client: it keeps
// a local view of the task list, forwards intents to the server while
// connected, applies them optimistically while offline, and persists the
// view so a restart shows data before the transport reconnects.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
)

// Transport is the bidirectional event channel delivered by the
// connection layer. Emit returns once the intent is on the wire; ack, if
// non-nil, is invoked asynchronously with the server's result.
type Transport interface {
	Connected() bool
	Emit(event string, payload map[string]any, ack func(domain.Result)) error
}

// Notifier surfaces failure messages to the user.
type Notifier interface {
	Notify(message string)
}

type logNotifier struct{}

func (logNotifier) Notify(message string) { log.Warn(message) }

// Board holds the client's local view of the task list. Every server
// snapshot replaces the view wholesale; the board never merges
// field-by-field with server data.
type Board struct {
	mu    sync.Mutex
	tasks []domain.Task

	tr    Transport
	store StateStore
	notif Notifier
}

func NewBoard(tr Transport, store StateStore, notif Notifier) *Board {
	if notif == nil {
		notif = logNotifier{}
	}
	return &Board{tr: tr, store: store, notif: notif, tasks: []domain.Task{}}
}

// Tasks returns a copy of the current local view.
func (b *Board) Tasks() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Hydrate restores the last persisted task list. A parse failure is
// logged and treated as an empty board.
func (b *Board) Hydrate(ctx context.Context) {
	if b.store == nil {
		return
	}
	data, err := b.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			log.Warnf("failed to read persisted tasks: %v", err)
		}
		return
	}
	var tasks []domain.Task
	if err := sonic.ConfigStd.Unmarshal(data, &tasks); err != nil {
		log.Warnf("failed to parse persisted tasks: %v", err)
		return
	}
	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
}

// ApplySnapshot replaces the local view with the server's task list. A
// payload that is not a task list counts as an empty board.
func (b *Board) ApplySnapshot(ctx context.Context, raw []byte) {
	var tasks []domain.Task
	if err := sonic.ConfigStd.Unmarshal(raw, &tasks); err != nil || tasks == nil {
		tasks = []domain.Task{}
	}
	b.mu.Lock()
	b.tasks = tasks
	b.persistLocked(ctx)
	b.mu.Unlock()
}

// Create submits a create intent. While disconnected the task is added
// locally with a local- id so the view can flag it as unsynced.
func (b *Board) Create(ctx context.Context, payload map[string]any) error {
	if b.connected() {
		return b.tr.Emit(domain.EventTaskCreate, payload, func(res domain.Result) {
			if !res.OK {
				b.notif.Notify("Create failed: " + res.Message)
			}
		})
	}

	t := domain.Task{
		ID:          domain.NewLocalID(),
		Status:      domain.StatusTodo,
		Priority:    domain.PriorityMedium,
		Category:    domain.CategoryFeature,
		Attachments: []domain.Attachment{},
	}
	domain.ApplyFields(&t, payload, []string{"title", "description", "priority", "category", "attachments"})

	b.mu.Lock()
	b.tasks = append([]domain.Task{t}, b.tasks...)
	b.persistLocked(ctx)
	b.mu.Unlock()
	return nil
}

// Update submits a partial update for the task with the given id. While
// disconnected the allowed fields are merged into the local copy.
func (b *Board) Update(ctx context.Context, id string, updates map[string]any) error {
	if b.connected() {
		payload := map[string]any{"id": id}
		for k, v := range updates {
			payload[k] = v
		}
		return b.tr.Emit(domain.EventTaskUpdate, payload, func(res domain.Result) {
			if !res.OK {
				b.notif.Notify("Update failed: " + res.Message)
			}
		})
	}

	b.mu.Lock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			domain.ApplyFields(&b.tasks[i], updates, domain.AllowedTaskFields)
			break
		}
	}
	b.persistLocked(ctx)
	b.mu.Unlock()
	return nil
}

// Move changes a task's status. The local view is updated optimistically
// even while connected so drags feel instantaneous; the next snapshot is
// still authoritative.
func (b *Board) Move(ctx context.Context, id, status string) error {
	b.mu.Lock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			b.tasks[i].Status = status
			break
		}
	}
	b.persistLocked(ctx)
	b.mu.Unlock()

	if b.connected() {
		return b.tr.Emit(domain.EventTaskMove, map[string]any{"id": id, "status": status}, func(res domain.Result) {
			if !res.OK {
				b.notif.Notify("Move failed: " + res.Message)
			}
		})
	}
	return nil
}

// Delete removes a task. While disconnected it is filtered from the
// local view only.
func (b *Board) Delete(ctx context.Context, id string) error {
	if b.connected() {
		return b.tr.Emit(domain.EventTaskDelete, map[string]any{"id": id}, func(res domain.Result) {
			if !res.OK {
				b.notif.Notify("Delete failed: " + res.Message)
			}
		})
	}

	b.mu.Lock()
	next := make([]domain.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	b.tasks = next
	b.persistLocked(ctx)
	b.mu.Unlock()
	return nil
}

func (b *Board) connected() bool {
	return b.tr != nil && b.tr.Connected()
}

// persistLocked writes the current view to the state store. Failures are
// logged and otherwise ignored; the in-memory view stays usable.
func (b *Board) persistLocked(ctx context.Context) {
	if b.store == nil {
		return
	}
	data, err := sonic.ConfigStd.Marshal(b.tasks)
	if err != nil {
		log.Warnf("failed to marshal tasks for persistence: %v", err)
		return
	}
	if err := b.store.Save(ctx, data); err != nil {
		log.Warnf("failed to save tasks: %v", err)
	}
}
