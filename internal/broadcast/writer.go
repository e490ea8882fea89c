package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	pongDeadline  = 60 * time.Second
)

// Writer pumps a subscriber's updates onto one WebSocket connection.
// Each connection gets its own writer goroutine, so one stalled socket
// never serializes behind another.
type Writer struct {
	connection *websocket.Conn
	clock      clockwork.Clock
	subscriber *Subscriber
	doneCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewWriter(connection *websocket.Conn, subscriber *Subscriber, clock clockwork.Clock) *Writer {
	w := &Writer{
		connection: connection,
		clock:      clock,
		subscriber: subscriber,
		doneCh:     make(chan struct{}),
	}
	w.configurePongHandler()
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *Writer) run() {
	ticker := w.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer w.wg.Done()

	for {
		select {
		case update, ok := <-w.subscriber.Updates():
			if !ok {
				// Unsubscribed or evicted by the hub.
				return
			}
			payload, err := json.Marshal(update)
			if err != nil {
				slog.Error("Failed to marshal update", "error", err)
				continue
			}
			start := w.clock.Now()
			w.updateWriteDeadline()
			if err := w.connection.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			metrics.WebSocketMessageSendDuration.Observe(w.clock.Since(start).Seconds())
		case <-ticker.Chan():
			w.updateWriteDeadline()
			if err := w.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-w.doneCh:
			return
		}
	}
}

// Stop signals the writer goroutine, waits for it to exit, then sends a
// close frame and closes the connection. Waiting first prevents
// concurrent writes to the socket.
func (w *Writer) Stop(reason string) {
	w.stopOnce.Do(func() {
		close(w.doneCh)
		w.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		w.updateWriteDeadline()
		_ = w.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = w.connection.Close()
	})
}

func (w *Writer) configurePongHandler() {
	w.updateReadDeadline()
	w.connection.SetPongHandler(func(string) error {
		w.updateReadDeadline()
		return nil
	})
}

func (w *Writer) updateWriteDeadline() {
	_ = w.connection.SetWriteDeadline(w.clock.Now().Add(writeDeadline))
}

func (w *Writer) updateReadDeadline() {
	_ = w.connection.SetReadDeadline(w.clock.Now().Add(pongDeadline))
}
