package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aretw0/slotbook/pkg/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// eventStream fans store change events out to websocket clients. Each
// connection owns its own watcher, so pattern filtering happens in the store.
type eventStream struct {
	source   core.Watchable
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]context.CancelFunc
	wg      sync.WaitGroup
}

func newEventStream(source core.Watchable, logger *slog.Logger) *eventStream {
	return &eventStream{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]context.CancelFunc),
	}
}

// serve upgrades the request and streams events for collections matching
// ?collections= (a glob, default "*").
func (e *eventStream) serve(w http.ResponseWriter, r *http.Request) {
	// The connection outlives the request, so it gets its own context.
	ctx, cancel := context.WithCancel(context.Background())

	events, err := e.source.Watch(ctx, r.URL.Query().Get("collections"))
	if err != nil {
		cancel()
		writeMessage(e.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		e.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	e.mu.Lock()
	e.clients[conn] = cancel
	e.mu.Unlock()
	e.logger.Info("event subscriber connected", "remote_addr", conn.RemoteAddr().String())

	e.wg.Add(2)
	go e.writePump(ctx, conn, events)
	go e.readPump(conn, cancel)
}

// readPump only exists to answer pings and notice the client going away.
func (e *eventStream) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer e.wg.Done()
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				e.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (e *eventStream) writePump(ctx context.Context, conn *websocket.Conn, events <-chan core.Event) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		e.remove(conn)
		e.wg.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			e.sendClose(conn)
			return
		case evt, ok := <-events:
			if !ok {
				e.sendClose(conn)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				e.logger.Debug("event write failed", "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (e *eventStream) sendClose(conn *websocket.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream closed")
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		e.logger.Debug("failed to send close message", "error", err)
	}
}

// remove cancels the watcher and closes the socket, which also unblocks
// readPump.
func (e *eventStream) remove(conn *websocket.Conn) {
	e.mu.Lock()
	cancel, ok := e.clients[conn]
	delete(e.clients, conn)
	e.mu.Unlock()
	if !ok {
		return
	}
	cancel()
	_ = conn.Close()
	e.logger.Info("event subscriber disconnected", "remote_addr", conn.RemoteAddr().String())
}

// closeAll ends every stream and waits for the pumps to exit.
func (e *eventStream) closeAll() {
	e.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(e.clients))
	for _, cancel := range e.clients {
		cancels = append(cancels, cancel)
	}
	e.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	e.wg.Wait()
}
