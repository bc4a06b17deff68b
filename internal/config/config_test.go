package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.Backend.WhoAmIPath != "/api/v1/whoami" {
		t.Errorf("WhoAmIPath = %q", cfg.Backend.WhoAmIPath)
	}
	if cfg.Backend.LogoutPath != "/accounts/logout/" {
		t.Errorf("LogoutPath = %q", cfg.Backend.LogoutPath)
	}
	if cfg.Sections.Latest.ViewAllLink {
		t.Error("latest section should not link to view-all by default")
	}
	if !cfg.Sections.Featured.ViewAllLink || !cfg.Sections.Recommended.ViewAllLink {
		t.Error("featured and recommended sections should link to view-all by default")
	}
	if cfg.User.Configured() {
		t.Error("no fallback user should be configured by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "mediafront.yaml", `
addr: ":9090"
site:
  title: YashuFlix
backend:
  url: https://media.example.com
  request_timeout: 3s
sections:
  featured:
    enabled: false
fallback_user:
  name: Static Sam
  username: sam
  is_advanced: true
`)
	t.Setenv("MEDIAFRONT_ADDR", ":7070")
	t.Setenv("MEDIAFRONT_SECTIONS_RECOMMENDED_TITLE", "Picked for you")
	t.Setenv("MEDIAFRONT_USER_IS_ADMIN", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, env should win over file", cfg.Addr)
	}
	if cfg.Site.Title != "YashuFlix" {
		t.Errorf("Site.Title = %q", cfg.Site.Title)
	}
	if cfg.Backend.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %s, want 3s", cfg.Backend.RequestTimeout)
	}
	if cfg.Backend.WhoAmIPath != "/api/v1/whoami" {
		t.Errorf("WhoAmIPath = %q, keys absent from file must keep defaults", cfg.Backend.WhoAmIPath)
	}
	if cfg.Sections.Featured.Enabled {
		t.Error("featured section should be disabled by file")
	}
	if cfg.Sections.Featured.Title != "Featured" {
		t.Errorf("Featured.Title = %q, want default", cfg.Sections.Featured.Title)
	}
	if cfg.Sections.Recommended.Title != "Picked for you" {
		t.Errorf("Recommended.Title = %q", cfg.Sections.Recommended.Title)
	}
	if !cfg.User.Configured() || cfg.User.Username != "sam" || !cfg.User.IsAdvanced || !cfg.User.IsAdmin {
		t.Errorf("User = %+v", cfg.User)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("MEDIAFRONT_SESSION_TTL", "forever")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"relative backend", func(c *ServerConfig) { c.Backend.URL = "/api" }, "must be absolute"},
		{"zero timeout", func(c *ServerConfig) { c.Backend.RequestTimeout = 0 }, "timeout"},
		{"zero ttl", func(c *ServerConfig) { c.SessionTTL = 0 }, "session ttl"},
		{"empty root", func(c *ServerConfig) { c.Site.Root = "" }, "site root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestBackendEndpoint(t *testing.T) {
	b := BackendConfig{URL: "https://media.example.com/"}
	tests := map[string]string{
		"/api/v1/whoami":              "https://media.example.com/api/v1/whoami",
		"/api/v1/media?show=featured": "https://media.example.com/api/v1/media?show=featured",
		"https://cdn.example.com/x":   "https://cdn.example.com/x",
	}
	for in, want := range tests {
		if got := b.Endpoint(in); got != want {
			t.Errorf("Endpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "MEDIAFRONT_TEST_DOTENV=loaded\n")
	t.Setenv("MEDIAFRONT_TEST_DOTENV", "")
	os.Unsetenv("MEDIAFRONT_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("MEDIAFRONT_TEST_DOTENV"); got != "loaded" {
		t.Errorf("MEDIAFRONT_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestUserDefaults_RoleFlagsOnly(t *testing.T) {
	t.Setenv("MEDIAFRONT_USER_IS_ADMIN", "true")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.User.Configured() {
		t.Error("a fallback user given only by role flags should count as configured")
	}
	if !cfg.User.MissingUsername() {
		t.Error("a fallback user without a username should be reported")
	}

	named := UserDefaults{Username: "sam", IsAdmin: true}
	if named.MissingUsername() {
		t.Error("a named fallback user is complete")
	}
	if (UserDefaults{IsAnonymous: true}).MissingUsername() {
		t.Error("an explicitly anonymous fallback user is complete")
	}
	if !(UserDefaults{Thumbnail: "/a.png"}).Configured() {
		t.Error("a thumbnail alone should count as configured")
	}
}
