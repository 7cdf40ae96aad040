package dashboard

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/qvm-pdf-sanitize/internal/orchestrator"
)

func TestIndexHandlerServesStatusPage(t *testing.T) {
	d := New()
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestMetricsHandlerExposesPrometheusFormat(t *testing.T) {
	d := New()
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestWebsocketReceivesStateChangeFrame(t *testing.T) {
	d := New()
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server goroutine time to register the connection before
	// the observer callback fires.
	time.Sleep(20 * time.Millisecond)

	d.OnStateChange("doc.pdf", orchestrator.StateUpload)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "doc.pdf", frame.File)
	assert.Equal(t, "UPLOAD", frame.Status)
}

func TestWebsocketReceivesPageCompleteFrame(t *testing.T) {
	d := New()
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	d.OnPageComplete("doc.pdf", 3, 10)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, 3, frame.Page)
	assert.Equal(t, 10, frame.Pagecount)
}

func TestNotePageScratchIsThreadSafe(t *testing.T) {
	d := New()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.NotePageScratch("a.pdf", "/tmp/1.png")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		d.NotePageScratch("b.pdf", "/tmp/2.png")
	}
	<-done
}

func TestDashboardImplementsStatusObserver(t *testing.T) {
	var _ orchestrator.StatusObserver = New()
}
