package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *GameManager) {
	t.Helper()

	errs := make(chan error, 64)
	mux, gm := newRouter(testConfig(), testCatalog(), errs)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		gm.reap(time.Now().Add(time.Hour))
		srv.Close()
	})

	return srv, gm
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestStaticRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/healthz", http.StatusOK, "text/plain; charset=utf-8"},
		{"/version", http.StatusOK, "text/plain; charset=utf-8"},
		{"/robots.txt", http.StatusOK, "text/plain; charset=utf-8"},
		{"/", http.StatusOK, "text/html; charset=utf-8"},
		{"/headsup/ABCDEF", http.StatusOK, "text/html; charset=utf-8"},
		{"/assets/headsup/app.js", http.StatusOK, "text/javascript; charset=utf-8"},
		{"/assets/headsup/app.css", http.StatusOK, "text/css; charset=utf-8"},
		{"/assets/headsup/missing.js", http.StatusNotFound, ""},
		{"/favicon.svg", http.StatusOK, "image/svg+xml"},
		{"/favicons/favicon.svg", http.StatusOK, "image/svg+xml"},
		{"/api/categories", http.StatusOK, "application/json"},
	}

	for _, tt := range tests {
		resp := get(t, srv, tt.path)

		if resp.StatusCode != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.path, resp.StatusCode, tt.status)
		}
		if tt.contentType != "" && resp.Header.Get("Content-Type") != tt.contentType {
			t.Errorf("%s: content type = %q, want %q", tt.path, resp.Header.Get("Content-Type"), tt.contentType)
		}
	}
}

func TestSecurityHeadersAllowMotionSensors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv, "/healthz")

	policy := resp.Header.Get("Permissions-Policy")
	if !strings.Contains(policy, "accelerometer=(self)") || !strings.Contains(policy, "gyroscope=(self)") {
		t.Fatalf("Permissions-Policy = %q", policy)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestNewGameRedirect(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv, "/headsup")
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", resp.StatusCode)
	}

	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/headsup/") || len(loc) != len("/headsup/")+6 {
		t.Fatalf("Location = %q", loc)
	}
}

func TestClientCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv, "/headsup/ABCDEF")

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == clientCookieName && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatalf("no %s cookie set", clientCookieName)
	}
}

func TestQRCode(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv, "/headsup/ABCDEF/qr")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d, content type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("body is not a PNG")
	}
}

func TestCategoryList(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv, "/api/categories")

	var got []CategoryInfo
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Name != "Animals" || got[0].Words != 3 || got[1].Color != "#ffffff" {
		t.Fatalf("categories = %+v", got)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}

		if msg["type"] == want || msg["screen"] == want {
			return msg
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/headsup/ABCDEF/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer resp.Body.Close()
	defer conn.Close()

	info := readUntil(t, conn, "session_info")
	if info["gameId"] != "ABCDEF" || info["clientId"] == "" {
		t.Fatalf("session_info = %v", info)
	}

	menu := readUntil(t, conn, "menu")
	if cats, ok := menu["categories"].([]any); !ok || len(cats) != 2 {
		t.Fatalf("menu = %v", menu)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "select_category", Category: "Food"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "setup")

	if err := conn.WriteJSON(ClientMessage{Type: "add_player", Name: "  "}); err != nil {
		t.Fatal(err)
	}
	if e := readUntil(t, conn, "error"); e["message"] == "" {
		t.Fatalf("error message empty: %v", e)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "add_player", Name: "Ada"}); err != nil {
		t.Fatal(err)
	}
	setup := readUntil(t, conn, "setup")
	if players, ok := setup["players"].([]any); !ok || len(players) != 1 {
		t.Fatalf("setup = %v", setup)
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		999:     "999 B",
		1000:    "1.0 kB",
		1500000: "1.5 MB",
	}

	for in, want := range tests {
		if got := humanReadableSize(in); got != want {
			t.Errorf("humanReadableSize(%d) = %q, want %q", in, got, want)
		}
	}
}
