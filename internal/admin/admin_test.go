package admin

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cruciblehq/appdrawer/internal/metrics"
	"github.com/cruciblehq/appdrawer/internal/window"
)

type fakeWindows []window.Info

func (f fakeWindows) Snapshot() []window.Info { return f }

func newTestHandler(t *testing.T) (http.Handler, fakeWindows) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetWindows(2)
	m.Command("PING", metrics.ResultOK)

	windows := fakeWindows{
		{ID: 1, Title: "A", X: 220, Y: 190, Width: 200, Height: 100, BufferName: "/appdrawer-window-1"},
		{ID: 2, Title: "B", Width: 50, Height: 50, Active: true, Polling: true, BufferName: "/appdrawer-window-2"},
	}
	return NewHandler(windows, reg), windows
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Fatalf("body = %q, want ok", rec.Body.String())
	}
}

func TestWindows(t *testing.T) {
	h, windows := newTestHandler(t)

	rec := get(t, h, "/windows")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got []window.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff([]window.Info(windows), got); diff != "" {
		t.Fatalf("windows (-want +got):\n%s", diff)
	}
}

func TestMetrics(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(t, h, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"appdrawer_windows 2",
		`appdrawer_commands_total{command="PING",result="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	if rec := get(t, h, "/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	h, _ := newTestHandler(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- serve(ctx, ln, h) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeBadAddress(t *testing.T) {
	h, _ := newTestHandler(t)

	if err := Serve(context.Background(), "256.0.0.1:bad", h); err == nil {
		t.Fatal("Serve succeeded on an invalid address")
	}
}
