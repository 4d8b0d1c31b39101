package domain

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
)

// Store is the authoritative task collection. The service is its only
// writer; implementations need no internal locking.
type Store interface {
	Append(t Task)
	FindIndexByID(id string) int
	MergeFields(idx int, payload map[string]any, allowed []string)
	RemoveAt(idx int) Task
	TaskAt(idx int) Task
	Snapshot() []Task
}

// Broadcaster fans the full task list out to every connected observer.
type Broadcaster interface {
	Broadcast(tasks []Task)
}

// Service validates and applies mutation intents against the store and
// triggers a snapshot broadcast after every successful mutation. A mutex
// serializes intents so the store never observes a torn write.
type Service struct {
	mu    sync.Mutex
	store Store
	bc    Broadcaster
	newID func() string
}

func NewService(store Store, bc Broadcaster) *Service {
	return &Service{store: store, bc: bc, newID: NewID}
}

// Snapshot returns a copy of the current task list.
func (s *Service) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Observe registers a snapshot subscriber and captures the current task
// list in one critical section. No mutation can run between the two, so
// every frame that later arrives on the returned channel postdates the
// returned snapshot.
func (s *Service) Observe(subscribe func() (string, <-chan []byte)) (string, <-chan []byte, []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ch := subscribe()
	return id, ch, s.store.Snapshot()
}

// Create validates the payload, appends a new task with defaulted fields
// and a fresh id, and broadcasts the updated list.
func (s *Service) Create(payload map[string]any) Result {
	return s.run("task:create", func() Result {
		if msg := validateShape(payload, true); msg != "" {
			return Err("task:create validation failed: " + msg)
		}
		t := Task{
			ID:          s.newID(),
			Title:       payload["title"].(string),
			Description: stringOr(payload, "description", ""),
			Status:      enumOr(payload, "status", ValidStatuses, StatusTodo),
			Priority:    enumOr(payload, "priority", ValidPriorities, PriorityMedium),
			Category:    enumOr(payload, "category", ValidCategories, CategoryFeature),
			Attachments: []Attachment{},
		}
		if atts, ok := attachmentsFromAny(payload["attachments"]); ok {
			t.Attachments = atts
		}
		s.store.Append(t)
		s.broadcast()
		return Ok(t)
	})
}

// Update merges the allowed keys present in the payload into the stored
// task. Absent keys are left untouched.
func (s *Service) Update(payload map[string]any) Result {
	return s.run("task:update", func() Result {
		id, ok := payloadID(payload)
		if !ok {
			return Err("task:update requires 'id'")
		}
		if msg := validateShape(payload, false); msg != "" {
			return Err("task:update validation failed: " + msg)
		}
		idx := s.store.FindIndexByID(id)
		if idx < 0 {
			return Errf("task with id %s not found", id)
		}
		s.store.MergeFields(idx, payload, AllowedTaskFields)
		s.broadcast()
		return Ok(s.store.TaskAt(idx))
	})
}

// Move changes only the status of the addressed task.
func (s *Service) Move(payload map[string]any) Result {
	return s.run("task:move", func() Result {
		id, idOK := payloadID(payload)
		status, statusPresent := payload["status"]
		if !idOK || !statusPresent || !truthy(status) {
			return Err("task:move requires 'id' and 'status'")
		}
		st, isStr := status.(string)
		if !isStr || !contains(ValidStatuses, st) {
			return Errf("Invalid status '%v'", status)
		}
		idx := s.store.FindIndexByID(id)
		if idx < 0 {
			return Errf("task with id %s not found", id)
		}
		s.store.MergeFields(idx, map[string]any{"status": st}, []string{"status"})
		s.broadcast()
		return Ok(s.store.TaskAt(idx))
	})
}

// Delete removes the addressed task and returns it.
func (s *Service) Delete(payload map[string]any) Result {
	return s.run("task:delete", func() Result {
		id, ok := payloadID(payload)
		if !ok {
			return Err("task:delete requires 'id'")
		}
		idx := s.store.FindIndexByID(id)
		if idx < 0 {
			return Errf("task with id %s not found", id)
		}
		removed := s.store.RemoveAt(idx)
		s.broadcast()
		return Ok(removed)
	})
}

func (s *Service) broadcast() {
	if s.bc == nil {
		return
	}
	s.bc.Broadcast(s.store.Snapshot())
}

// run serializes intents and converts a panicking handler into a failure
// result instead of letting it tear down the connection.
func (s *Service) run(op string, fn func() Result) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		catcher panics.Catcher
		res     Result
	)
	catcher.Try(func() { res = fn() })
	if r := catcher.Recovered(); r != nil {
		log.WithField("op", op).Errorf("intent handler panicked: %v", r.Value)
		return Errf("%s failed: %v", op, r.Value)
	}
	return res
}

func payloadID(payload map[string]any) (string, bool) {
	id, ok := payload["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
