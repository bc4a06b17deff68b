package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// fakeBackend serves the identity, logout and media endpoints.
type fakeBackend struct {
	mu           sync.Mutex
	whoamiStatus int
	whoami       map[string]any
	logoutStatus int
	counts       map[string]int // "" is the latest listing
	release      chan struct{}  // when set, whoami blocks until closed

	whoamiCalls atomic.Int32
	gotCSRF     string
	gotCookies  string
}

func newFakeBackend(t *testing.T, b *fakeBackend) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request) {
		b.whoamiCalls.Add(1)
		b.mu.Lock()
		b.gotCookies = r.Header.Get("Cookie")
		release := b.release
		status, body := b.whoamiStatus, b.whoami
		b.mu.Unlock()
		if release != nil {
			<-release
		}
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/accounts/logout/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.gotCSRF = r.Header.Get("X-CSRFToken")
		status := b.logoutStatus
		b.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
	})
	mux.HandleFunc("/api/v1/media", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		n := b.counts[r.URL.Query().Get("show")]
		b.mu.Unlock()
		items := make([]map[string]any, n)
		for i := range items {
			items[i] = map[string]any{
				"friendly_token": fmt.Sprintf("tok%d", i),
				"title":          fmt.Sprintf("Video %d", i),
				"url":            fmt.Sprintf("/view?m=tok%d", i),
				"views":          1234,
				"author_name":    "alice",
				"author_profile": "/user/alice",
				"duration":       65.0,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"count": n, "results": items})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func aliceWhoAmI() map[string]any {
	return map[string]any{
		"username":     "alice",
		"name":         "Alice",
		"advancedUser": true,
		"url":          "/user/alice",
	}
}

// newTestUI wires a UI against backend b and returns it with its router.
func newTestUI(t *testing.T, b *fakeBackend, mutate func(*config.ServerConfig), opts ...Option) (*UI, http.Handler) {
	t.Helper()
	srv := newFakeBackend(t, b)
	cfg := config.DefaultServerConfig()
	cfg.Backend.URL = srv.URL
	if mutate != nil {
		mutate(&cfg)
	}
	ui := New(setupTestStore(t), cfg, testLogger(), opts...)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(ui.SessionMiddleware)
		ui.RegisterRoutes(r)
	})
	return ui, r
}

func do(t *testing.T, h http.Handler, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func parseDoc(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}
