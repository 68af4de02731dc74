package daemon

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"soundlab/internal/logging"
	"soundlab/internal/mixer"
)

const (
	streamWriteWait = 5 * time.Second
	streamPingEvery = 30 * time.Second
)

// transportStream fans mixer transport frames out to websocket clients.
// Each frame carries the playhead position and the current meter levels.
type transportStream struct {
	mixer    *mixer.Mixer
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	closed  bool
	conns   map[*websocket.Conn]struct{}
	release func()
}

func newTransportStream(m *mixer.Mixer, logger *slog.Logger) *transportStream {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &transportStream{
		mixer:  m,
		logger: logging.NewComponentLogger(logger, "transport-stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (t *transportStream) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = false
	if t.release == nil {
		t.release = t.mixer.Subscribe(t.broadcast)
	}
}

func (t *transportStream) stop() {
	t.mu.Lock()
	t.closed = true
	release := t.release
	t.release = nil
	conns := make([]*websocket.Conn, 0, len(t.conns))
	for conn := range t.conns {
		conns = append(conns, conn)
	}
	t.conns = make(map[*websocket.Conn]struct{})
	t.mu.Unlock()

	if release != nil {
		release()
	}
	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (t *transportStream) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conns[conn] = struct{}{}
	t.mu.Unlock()

	t.logger.Info("transport stream client connected", logging.String("remote", conn.RemoteAddr().String()))

	// Send the current levels immediately so a fresh client does not wait
	// for the next transport tick.
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(t.mixer.Levels()); err != nil {
		t.drop(conn)
		return
	}

	go t.keepAlive(conn)
	t.readLoop(conn)
}

// broadcast runs on the mixer transport tick. Slow clients are dropped
// instead of stalling the tick.
func (t *transportStream) broadcast(frame mixer.Frame) {
	t.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(t.conns))
	for conn := range t.conns {
		conns = append(conns, conn)
	}
	t.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(frame); err != nil {
			t.drop(conn)
		}
	}
}

func (t *transportStream) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()
	for range ticker.C {
		t.mu.Lock()
		_, active := t.conns[conn]
		t.mu.Unlock()
		if !active {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			t.drop(conn)
			return
		}
	}
}

// readLoop discards client messages and returns when the peer closes.
func (t *transportStream) readLoop(conn *websocket.Conn) {
	defer t.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (t *transportStream) drop(conn *websocket.Conn) {
	t.mu.Lock()
	_, active := t.conns[conn]
	delete(t.conns, conn)
	t.mu.Unlock()
	if active {
		_ = conn.Close()
	}
}
