// Package dashboard implements the optional multi-file status listener:
// a tiny HTTP server exposing a status page, Prometheus metrics, and a
// websocket stream of per-file state transitions. It is pure monitoring
// -- nothing here participates in the sanitization trust boundary -- and
// is only started when --dashboard-addr is set. Grounded on the
// teacher's internal/server/websocket_handlers.go (upgrade, ping loop,
// JSON frame write) and internal/server/types.go's SetupRoutes.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is one status update pushed to every connected websocket client.
type Frame struct {
	File      string `json:"file"`
	Status    string `json:"status"`
	Page      int    `json:"page,omitempty"`
	Pagecount int    `json:"pagecount,omitempty"`
}

// Dashboard is an http.Handler plus a StatusObserver: the supervisor (or
// orchestrator, one per file) reports into it, and it fans each update
// out to every connected websocket client as a Frame.
type Dashboard struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	lastPage map[string]string // originalPath -> last-received page's scratch PNG, for thumbnails
}

var _ orchestrator.StatusObserver = (*Dashboard)(nil)

// New returns an empty Dashboard ready to accept connections and
// observer callbacks.
func New() *Dashboard {
	return &Dashboard{
		conns:    make(map[*websocket.Conn]struct{}),
		lastPage: make(map[string]string),
	}
}

// OnStateChange implements orchestrator.StatusObserver.
func (d *Dashboard) OnStateChange(originalPath string, state orchestrator.State) {
	d.broadcast(Frame{File: originalPath, Status: state.String()})
}

// OnPageComplete implements orchestrator.StatusObserver.
func (d *Dashboard) OnPageComplete(originalPath string, page, pagecount int) {
	d.broadcast(Frame{File: originalPath, Status: "PIPELINE", Page: page, Pagecount: pagecount})
}

// NotePageScratch records the scratch PNG backing a file's most recently
// received page, so a later thumbnail tick has something to read. The
// orchestrator calls this as an optional hook; a nil Dashboard (no
// --dashboard-addr) means callers never reach here.
func (d *Dashboard) NotePageScratch(originalPath, pngPath string) {
	d.mu.Lock()
	d.lastPage[originalPath] = pngPath
	d.mu.Unlock()
}

func (d *Dashboard) broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		slog.Error("marshal dashboard frame", "error", err)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("dashboard client write failed, dropping", "error", err)
			_ = conn.Close()
			delete(d.conns, conn)
		}
	}
}

// thumbnailTick sends a preview JPEG frame for every file with a known
// scratch page, until ctx is cancelled. Intended to run in its own
// goroutine alongside the listener.
func (d *Dashboard) thumbnailTick(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			snapshot := make(map[string]string, len(d.lastPage))
			for k, v := range d.lastPage {
				snapshot[k] = v
			}
			d.mu.Unlock()

			for file, pngPath := range snapshot {
				jpegBytes, err := buildThumbnail(pngPath)
				if err != nil {
					continue
				}
				d.broadcast(Frame{File: file, Status: "THUMBNAIL"})
				d.sendThumbnail(file, jpegBytes)
			}
		}
	}
}

// sendThumbnail pushes the raw JPEG bytes as one binary message; the
// owning file is named only by the THUMBNAIL text frame thumbnailTick
// broadcasts just before it. Kept deliberately simple since this is a
// monitoring side-channel with one consumer (the bundled status page),
// not a protocol other tools need to parse generically.
func (d *Dashboard) sendThumbnail(file string, jpegBytes []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.conns {
		if err := conn.WriteMessage(websocket.BinaryMessage, jpegBytes); err != nil {
			_ = conn.Close()
			delete(d.conns, conn)
		}
	}
}

// wsHandler upgrades a connection and registers it to receive frames
// until the client disconnects.
func (d *Dashboard) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("dashboard websocket upgrade failed", "error", err)
		return
	}

	d.mu.Lock()
	d.conns[conn] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.conns, conn)
		d.mu.Unlock()
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (d *Dashboard) indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html>
<html><head><title>qvm-sanitize status</title></head>
<body>
<h1>qvm-sanitize</h1>
<p>Connect to <code>/ws</code> for a live status stream, or see <a href="/metrics">/metrics</a>.</p>
</body></html>`))
}

// Handler returns the dashboard's http.Handler, ready to be served by
// http.ListenAndServe at --dashboard-addr.
func (d *Dashboard) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.indexHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", d.wsHandler)
	return mux
}

// Serve starts a thumbnail ticker and runs an HTTP server on addr until
// ctx is cancelled.
func (d *Dashboard) Serve(ctx context.Context, addr string) error {
	go d.thumbnailTick(ctx, 5*time.Second)

	srv := &http.Server{Addr: addr, Handler: d.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
