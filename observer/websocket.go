package observer

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kestrel-rl/kestrel/core"
)

// event is the wire form of a progress notification.
type event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Websocket broadcasts progress events to subscribed connections. The
// channel is strictly one-way; a client that fails a write is dropped,
// never waited on.
type Websocket struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

var _ core.Observer = &Websocket{}

func NewWebsocket(logger *slog.Logger) *Websocket {
	if logger == nil {
		logger = slog.Default()
	}
	return &Websocket{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades incoming requests and registers the connection for
// broadcasts.
func (w *Websocket) Handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := w.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			w.logger.Warn("websocket upgrade failed", "err", err)
			return
		}
		w.mu.Lock()
		w.conns[conn] = struct{}{}
		w.mu.Unlock()
	})
}

// Close drops every subscriber.
func (w *Websocket) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.conns {
		conn.Close()
	}
	w.conns = make(map[*websocket.Conn]struct{})
}

func (w *Websocket) Progress(ev core.ProgressEvent)   { w.broadcast("progress", ev) }
func (w *Websocket) EpisodeDone(ev core.EpisodeEvent) { w.broadcast("episode", ev) }
func (w *Websocket) Evaluated(ev core.EvalSummary)    { w.broadcast("evaluation", ev) }
func (w *Websocket) Completed(completed bool)         { w.broadcast("completed", completed) }

func (w *Websocket) broadcast(kind string, data interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for conn := range w.conns {
		if err := conn.WriteJSON(event{Type: kind, Data: data}); err != nil {
			conn.Close()
			delete(w.conns, conn)
		}
	}
}
