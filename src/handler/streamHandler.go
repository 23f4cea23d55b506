package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"ordermonitor/src/monitor"
)

const (
	streamBuffer     = 64
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

type eventSource interface {
	Subscribe(fn func(monitor.Event)) func()
	Snapshot() []monitor.Event
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries no credentials and is served to the operator UI
	// from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler upgrades to a WebSocket and pushes the current views, then
// every view and notice event. A slow client loses events rather than
// blocking the poller; the next event carries the full view again.
func StreamHandler(source eventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}

		send := make(chan []byte, streamBuffer)
		closed := make(chan struct{})

		enqueue := func(ev monitor.Event) {
			b, err := json.Marshal(ev)
			if err != nil {
				logger.WithError(err).WithField("type", ev.Kind).Error("failed to encode stream event")
				return
			}
			select {
			case send <- b:
			case <-closed:
			default:
				logger.WithField("type", ev.Kind).Debug("stream client lagging, event dropped")
			}
		}

		for _, ev := range source.Snapshot() {
			enqueue(ev)
		}
		unsubscribe := source.Subscribe(enqueue)

		go readStream(conn, closed)
		writeStream(conn, send, closed)

		unsubscribe()
		_ = conn.Close()
	}
}

// readStream drains client frames so pongs and close frames are processed.
func readStream(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("stream read error")
			}
			return
		}
	}
}

func writeStream(conn *websocket.Conn, send <-chan []byte, closed <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
