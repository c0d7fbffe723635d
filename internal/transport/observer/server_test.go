package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/observerproto"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/engine"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/runtime"
)

func testSession(t *testing.T) (*runtime.Session, func()) {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Width = 4
	cfg.Height = 3
	cfg.MinAgents = 2
	cfg.MaxAgents = 2
	s, err := runtime.NewSession(cfg, 100, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = s.Run(ctx); close(done) }()
	return s, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("session did not stop")
		}
	}
}

func testServer(t *testing.T) (*Server, *httptest.Server, func()) {
	t.Helper()
	sess, stop := testSession(t)
	srv := NewServer(sess, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observer/bootstrap", srv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", srv.WSHandler())
	mux.HandleFunc("/admin/v1/control", srv.ControlHandler())
	ts := httptest.NewServer(mux)
	return srv, ts, func() {
		ts.Close()
		stop()
	}
}

func TestBootstrapEndpoint(t *testing.T) {
	_, ts, cleanup := testServer(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/v1/observer/bootstrap")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var boot observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if boot.ProtocolVersion != observerproto.Version {
		t.Fatalf("version = %q", boot.ProtocolVersion)
	}
	if boot.WorldParams.Width != 4 || boot.WorldParams.Height != 3 {
		t.Fatalf("world params: %+v", boot.WorldParams)
	}
}

func TestBootstrapRejectsPost(t *testing.T) {
	_, ts, cleanup := testServer(t)
	defer cleanup()

	resp, err := http.Post(ts.URL+"/v1/observer/bootstrap", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestControlEndpoint(t *testing.T) {
	_, ts, cleanup := testServer(t)
	defer cleanup()

	body, _ := json.Marshal(observerproto.ControlRequest{Command: observerproto.CmdPause})
	resp, err := http.Post(ts.URL+"/admin/v1/control", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var ctrl observerproto.ControlResponse
	if err := json.NewDecoder(resp.Body).Decode(&ctrl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ctrl.OK || !ctrl.Paused {
		t.Fatalf("control response: %+v", ctrl)
	}
}

func TestControlRejectsBadInput(t *testing.T) {
	_, ts, cleanup := testServer(t)
	defer cleanup()

	resp, err := http.Post(ts.URL+"/admin/v1/control", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", resp.StatusCode)
	}

	body, _ := json.Marshal(observerproto.ControlRequest{Command: "explode"})
	resp, err = http.Post(ts.URL+"/admin/v1/control", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unknown command status = %d", resp.StatusCode)
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/observer/ws"
}

func TestObserverStreamAfterSubscribe(t *testing.T) {
	_, ts, cleanup := testServer(t)
	defer cleanup()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub, _ := json.Marshal(observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read tick: %v", err)
	}
	var msg observerproto.TickMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode tick: %v", err)
	}
	if msg.Type != observerproto.TypeTick {
		t.Fatalf("message type = %q", msg.Type)
	}
	if len(msg.Cells) != 12 || len(msg.Agents) != 2 {
		t.Fatalf("snapshot shape: %d cells, %d agents", len(msg.Cells), len(msg.Agents))
	}
}

func TestObserverRejectsBadHandshake(t *testing.T) {
	_, ts, cleanup := testServer(t)
	defer cleanup()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	bad, _ := json.Marshal(observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: "99.0"})
	if err := conn.WriteMessage(websocket.TextMessage, bad); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
