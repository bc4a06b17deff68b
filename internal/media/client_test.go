package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/me/mediafront/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mediaServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]any, n)
		for i := range items {
			items[i] = map[string]any{
				"friendly_token": "tok" + string(rune('a'+i)),
				"title":          "Video",
				"views":          1200,
				"author_name":    "alice",
				"add_date":       "2026-01-02T03:04:05.123456Z",
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"count": n, "next": nil, "previous": nil, "results": items})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestList(t *testing.T) {
	srv := mediaServer(t, 3)
	c := NewClient(nil, testLogger())

	page, err := c.List(context.Background(), srv.URL+"/api/v1/media", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Count != 3 || page.Len() != 3 {
		t.Fatalf("page = count %d, len %d", page.Count, page.Len())
	}
	item := page.Results[0]
	if item.FriendlyToken != "toka" || item.Views != 1200 || item.AuthorName != "alice" {
		t.Errorf("item = %+v", item)
	}
	if item.AddDate.Year() != 2026 {
		t.Errorf("AddDate = %v", item.AddDate)
	}
}

func TestList_Limit(t *testing.T) {
	srv := mediaServer(t, 5)
	c := NewClient(nil, testLogger())

	page, err := c.List(context.Background(), srv.URL, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Len() != 2 {
		t.Errorf("Len() = %d, want 2", page.Len())
	}
}

func TestList_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(nil, testLogger()).List(context.Background(), srv.URL, 0); err == nil {
		t.Fatal("expected error")
	}
}

type fakeLister struct {
	mu     sync.Mutex
	pages  map[string]int
	fail   map[string]bool
	called []string
}

func (f *fakeLister) List(ctx context.Context, endpoint string, limit int) (*model.MediaPage, error) {
	f.mu.Lock()
	f.called = append(f.called, endpoint)
	f.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	if f.fail[endpoint] {
		return nil, errors.New("backend down")
	}
	return &model.MediaPage{Results: make([]model.MediaItem, f.pages[endpoint])}, nil
}

func TestLoadSections(t *testing.T) {
	f := &fakeLister{
		pages: map[string]int{"featured": 4, "latest": 0},
		fail:  map[string]bool{"recommended": true},
	}
	reqs := []Request{
		{Key: "featured", Endpoint: "featured", Enabled: true},
		{Key: "recommended", Endpoint: "recommended", Enabled: true},
		{Key: "latest", Endpoint: "latest", Enabled: true},
		{Key: "disabled", Endpoint: "disabled", Enabled: false},
	}

	results := LoadSections(context.Background(), f, reqs, testLogger())

	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	want := map[string]int{"featured": 4, "recommended": 0, "latest": 0, "disabled": 0}
	for i, res := range results {
		if res.Key != reqs[i].Key {
			t.Errorf("result %d key = %q, want request order", i, res.Key)
		}
		if res.Len() != want[res.Key] {
			t.Errorf("%s: Len() = %d, want %d", res.Key, res.Len(), want[res.Key])
		}
	}
	if results[1].Err == nil {
		t.Error("failed section should carry its error")
	}
	for _, ep := range f.called {
		if ep == "disabled" {
			t.Error("disabled section must not be fetched")
		}
	}
	if len(f.called) != 3 {
		t.Errorf("fetched %d sections, want 3", len(f.called))
	}
}
