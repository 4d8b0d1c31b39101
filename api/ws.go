package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	// Origin policy is the CORS_ORIGIN setting's job; the upgrade itself
	// accepts connections from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const sendBufferSize = 64

// session owns a single board connection. All writes to the underlying
// websocket go through the out channel so there is only ever one writer.
type session struct {
	conn   *websocket.Conn
	out    chan []byte
	done   chan struct{}
	once   sync.Once
	logger *log.Logger
}

func serveWS(svc Mutator, h *hub.Hub, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// Upgrade has already written the error response.
			return nil
		}
		defer conn.Close()
		conn.SetReadLimit(inboundMaxSize)

		sess := &session{
			conn:   conn,
			out:    make(chan []byte, sendBufferSize),
			done:   make(chan struct{}),
			logger: logger,
		}

		// Subscription and the connect-time snapshot happen in one
		// critical section of the mutation service, and the snapshot is
		// queued before the forward loop starts. A mutation racing the
		// connect is therefore always delivered after the state it
		// postdates.
		subID, snapshots, tasks := svc.Observe(func() (string, <-chan []byte) {
			return h.Subscribe(16)
		})
		defer h.Unsubscribe(subID)
		logger.WithField("conn", subID).Debug("socket connected")

		if data, err := encodeSync(tasks); err == nil {
			sess.send(data)
		} else {
			logger.Errorf("marshal initial snapshot: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			sess.writeLoop()
		}()
		go func() {
			defer wg.Done()
			sess.forwardSnapshots(snapshots)
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sess.handle(svc, data)
		}

		sess.close()
		wg.Wait()
		logger.WithField("conn", subID).Debug("socket disconnected")
		return nil
	}
}

// handle decodes one inbound envelope, dispatches the intent and delivers
// the result via ack when the client asked for one, or as an error event
// otherwise. A failed intent never tears down the connection.
func (s *session) handle(svc Mutator, data []byte) {
	var env inboundEnvelope
	if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
		s.logger.Warnf("invalid message: %v", err)
		return
	}

	var payload map[string]any
	if len(env.Payload) > 0 {
		if err := sonic.ConfigStd.Unmarshal(env.Payload, &payload); err != nil {
			payload = nil
		}
	}

	metrics := newIntentMetrics(s.logger, env.Event)
	metrics.SetAckRequested(env.AckID != "")

	var res domain.Result
	applyStart := time.Now()
	switch env.Event {
	case domain.EventTaskCreate:
		res = svc.Create(payload)
	case domain.EventTaskUpdate:
		res = svc.Update(payload)
	case domain.EventTaskMove:
		res = svc.Move(payload)
	case domain.EventTaskDelete:
		res = svc.Delete(payload)
	default:
		s.logger.WithField("event", env.Event).Debug("ignoring unknown event")
		return
	}
	metrics.ObserveApply(time.Since(applyStart))
	metrics.SetResult(res)
	metrics.Log()

	if env.AckID != "" {
		if frame, err := encodeAck(env.AckID, res); err == nil {
			s.send(frame)
		}
		return
	}
	if !res.OK {
		if frame, err := encodeError(res.Message); err == nil {
			s.send(frame)
		}
	}
}

func (s *session) forwardSnapshots(snapshots <-chan []byte) {
	for {
		select {
		case <-s.done:
			return
		case data, ok := <-snapshots:
			if !ok {
				return
			}
			s.send(data)
		}
	}
}

// send queues a frame without ever blocking the caller. If the buffer is
// full the frame is dropped; the next snapshot resynchronizes the client.
func (s *session) send(data []byte) {
	select {
	case <-s.done:
	case s.out <- data:
	default:
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.out:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}
