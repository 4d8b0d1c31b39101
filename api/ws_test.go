package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/hub"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/storage"
)

type testEnvelope struct {
	Event   string          `json:"event"`
	AckID   string          `json:"ackId"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := storage.New()
	h := hub.New()
	svc := domain.NewService(st, NewSnapshotBroadcaster(h, logger))

	e := echo.New()
	Register(e, svc, h, logger)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) testEnvelope {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var env testEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, event, ackID string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"event": event, "ackId": ackID, "payload": payload}); err != nil {
		t.Fatalf("write envelope: %v", err)
	}
}

func TestConnectReceivesInitialSnapshot(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	env := readEnvelope(t, conn)
	if env.Event != domain.EventSyncTasks {
		t.Fatalf("first frame is %q, want %q", env.Event, domain.EventSyncTasks)
	}
	var tasks []domain.Task
	if err := json.Unmarshal(env.Payload, &tasks); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("fresh board must be empty, got %#v", tasks)
	}
}

func TestCreateWithAck(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEnvelope(t, conn) // initial snapshot

	sendEnvelope(t, conn, domain.EventTaskCreate, "ack-1", map[string]any{"title": "X"})

	// Ack and broadcast arrive in either order.
	var gotAck, gotSync bool
	for i := 0; i < 2; i++ {
		env := readEnvelope(t, conn)
		switch env.Event {
		case domain.EventAck:
			gotAck = true
			if env.AckID != "ack-1" {
				t.Fatalf("ack id = %q", env.AckID)
			}
			var ack struct {
				Status string      `json:"status"`
				Task   domain.Task `json:"task"`
			}
			if err := json.Unmarshal(env.Payload, &ack); err != nil {
				t.Fatalf("decode ack: %v", err)
			}
			if ack.Status != "ok" || ack.Task.Title != "X" || ack.Task.Status != domain.StatusTodo {
				t.Fatalf("unexpected ack: %#v", ack)
			}
		case domain.EventSyncTasks:
			gotSync = true
			var tasks []domain.Task
			if err := json.Unmarshal(env.Payload, &tasks); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			if len(tasks) != 1 || tasks[0].Title != "X" {
				t.Fatalf("unexpected snapshot: %#v", tasks)
			}
		default:
			t.Fatalf("unexpected frame %q", env.Event)
		}
	}
	if !gotAck || !gotSync {
		t.Fatalf("missing frame: ack=%v sync=%v", gotAck, gotSync)
	}
}

// connectRacer fires a mutation right after a connection has subscribed
// but before its connect-time snapshot has been written out, the tightest
// window a concurrent client can hit.
type connectRacer struct {
	*domain.Service
	payload map[string]any
	fired   bool
}

func (m *connectRacer) Observe(subscribe func() (string, <-chan []byte)) (string, <-chan []byte, []domain.Task) {
	id, ch, tasks := m.Service.Observe(subscribe)
	if !m.fired {
		m.fired = true
		if res := m.Service.Create(m.payload); !res.OK {
			panic(res.Message)
		}
	}
	return id, ch, tasks
}

func TestMutationDuringConnectArrivesAfterSnapshot(t *testing.T) {
	logger, _ := test.NewNullLogger()
	st := storage.New()
	h := hub.New()
	svc := domain.NewService(st, NewSnapshotBroadcaster(h, logger))
	racer := &connectRacer{Service: svc, payload: map[string]any{"title": "racer"}}

	e := echo.New()
	Register(e, racer, h, logger)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)

	first := readEnvelope(t, conn)
	if first.Event != domain.EventSyncTasks {
		t.Fatalf("first frame is %q, want %q", first.Event, domain.EventSyncTasks)
	}
	var tasks []domain.Task
	if err := json.Unmarshal(first.Payload, &tasks); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("connect snapshot must predate the racing mutation: %#v", tasks)
	}

	second := readEnvelope(t, conn)
	if second.Event != domain.EventSyncTasks {
		t.Fatalf("second frame is %q, want %q", second.Event, domain.EventSyncTasks)
	}
	if err := json.Unmarshal(second.Payload, &tasks); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "racer" {
		t.Fatalf("racing mutation must arrive as the newer frame: %#v", tasks)
	}
}

func TestFailureWithoutAckBecomesErrorEvent(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEnvelope(t, conn)

	sendEnvelope(t, conn, domain.EventTaskCreate, "", map[string]any{"description": "no title"})

	env := readEnvelope(t, conn)
	if env.Event != domain.EventError {
		t.Fatalf("frame is %q, want %q", env.Event, domain.EventError)
	}
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if p.Message != "task:create validation failed: Missing or invalid 'title'" {
		t.Fatalf("unexpected message %q", p.Message)
	}

	// The rejected intent must not reach other observers.
	other := dialWS(t, srv)
	snap := readEnvelope(t, other)
	var tasks []domain.Task
	if err := json.Unmarshal(snap.Payload, &tasks); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("store changed by rejected intent: %#v", tasks)
	}
}

func TestMutationBroadcastsToEveryObserver(t *testing.T) {
	srv := newTestServer(t)
	first := dialWS(t, srv)
	second := dialWS(t, srv)
	readEnvelope(t, first)
	readEnvelope(t, second)

	sendEnvelope(t, first, domain.EventTaskCreate, "", map[string]any{"title": "shared"})

	for _, conn := range []*websocket.Conn{first, second} {
		env := readEnvelope(t, conn)
		if env.Event != domain.EventSyncTasks {
			t.Fatalf("frame is %q, want %q", env.Event, domain.EventSyncTasks)
		}
		var tasks []domain.Task
		if err := json.Unmarshal(env.Payload, &tasks); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if len(tasks) != 1 || tasks[0].Title != "shared" {
			t.Fatalf("unexpected snapshot: %#v", tasks)
		}
	}
}

func TestFailedIntentKeepsConnectionAlive(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)
	readEnvelope(t, conn)

	sendEnvelope(t, conn, domain.EventTaskDelete, "ack-1", map[string]any{"id": "ghost"})
	env := readEnvelope(t, conn)
	if env.Event != domain.EventAck {
		t.Fatalf("frame is %q, want ack", env.Event)
	}

	// The same connection still serves further intents.
	sendEnvelope(t, conn, domain.EventTaskCreate, "ack-2", map[string]any{"title": "alive"})
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[readEnvelope(t, conn).Event] = true
	}
	if !seen[domain.EventAck] || !seen[domain.EventSyncTasks] {
		t.Fatalf("connection dead after failure: %#v", seen)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %#v", body)
	}
}
