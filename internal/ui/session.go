package ui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/identity"
	"github.com/me/mediafront/internal/media"
	"github.com/me/mediafront/internal/metrics"
	"github.com/me/mediafront/internal/store"
	"github.com/me/mediafront/pkg/model"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "mediafront_session"
	// SessionDuration is the default session lifetime.
	SessionDuration = 24 * time.Hour
)

// Session is the live state of one browser session: its backend
// credentials and the identity resolver that owns its current profile.
type Session struct {
	ID string

	Resolver *identity.Resolver
	Client   *identity.Client
	Media    *media.Client

	backend *url.URL
	jar     http.CookieJar

	mu      sync.Mutex
	record  model.Session
	cookies map[string]string
}

// Record returns a copy of the stored session record.
func (s *Session) Record() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

func (s *Session) setRecord(rec *model.Session) {
	s.mu.Lock()
	s.record = *rec
	s.mu.Unlock()
}

// expired reports whether the session's record has expired.
func (s *Session) expired() bool {
	rec := s.Record()
	return rec.IsExpired()
}

// SyncCookies copies the browser's backend cookies into the session's jar.
// Cookies the browser no longer sends are expired in the jar. When anything
// changed since the last request the current profile is dropped so the next
// resolution sees the new credentials.
func (s *Session) SyncCookies(r *http.Request) {
	seen := make(map[string]string)
	for _, c := range r.Cookies() {
		if c.Name == SessionCookieName {
			continue
		}
		seen[c.Name] = c.Value
	}

	s.mu.Lock()
	var updates []*http.Cookie
	for name, value := range seen {
		if old, ok := s.cookies[name]; !ok || old != value {
			updates = append(updates, &http.Cookie{Name: name, Value: value, Path: "/"})
		}
	}
	for name := range s.cookies {
		if _, ok := seen[name]; !ok {
			updates = append(updates, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
		}
	}
	s.cookies = seen
	s.mu.Unlock()

	if len(updates) == 0 {
		return
	}
	s.jar.SetCookies(s.backend, updates)
	s.Resolver.Clear()
}

// BackendCookieNames returns the sorted names of the backend cookies last
// synced from the browser.
func (s *Session) BackendCookieNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SessionManager handles session creation, validation, and cleanup, and
// keeps the live state of every session it has seen.
type SessionManager struct {
	store   store.Store
	backend config.BackendConfig
	static  identity.Source
	ttl     time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	live map[string]*Session
}

// NewSessionManager creates a new session manager. static is the configured
// fallback user source and may be nil.
func NewSessionManager(st store.Store, backend config.BackendConfig, static identity.Source, ttl time.Duration, logger *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &SessionManager{
		store:   st,
		backend: backend,
		static:  static,
		ttl:     ttl,
		logger:  logger.With("component", "sessions"),
		live:    make(map[string]*Session),
	}
}

// CreateSession creates and stores a new browser session.
func (sm *SessionManager) CreateSession(ctx context.Context) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now()
	rec := &model.Session{
		ID:         sessionID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(sm.ttl),
	}
	if err := sm.store.CreateSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	sess, err := sm.attach(rec)
	if err != nil {
		return nil, err
	}
	sm.logger.Debug("session created", "session", sessionID)
	return sess, nil
}

// GetSession returns the live state of a stored session, rebuilding it
// after a restart. Returns nil if the session doesn't exist or has expired.
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	rec, err := sm.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if rec == nil {
		sm.forget(sessionID)
		return nil, nil
	}
	if rec.IsExpired() {
		_ = sm.DeleteSession(ctx, sessionID)
		return nil, nil
	}

	now := time.Now()
	rec.LastSeenAt = now
	rec.ExpiresAt = now.Add(sm.ttl)
	if err := sm.store.TouchSession(ctx, sessionID, rec.LastSeenAt, rec.ExpiresAt); err != nil {
		sm.logger.Warn("touch session failed", "session", sessionID, "error", err)
	}

	sm.mu.Lock()
	sess, ok := sm.live[sessionID]
	sm.mu.Unlock()
	if ok {
		sess.setRecord(rec)
		return sess, nil
	}
	return sm.attach(rec)
}

// DeleteSession removes a session from the store and drops its live state.
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	sm.forget(sessionID)
	return sm.store.DeleteSession(ctx, sessionID)
}

// CleanupExpiredSessions removes all expired sessions from the store and
// drops the live state of sessions that no longer exist.
func (sm *SessionManager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := sm.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}

	sm.mu.Lock()
	ids := make([]string, 0, len(sm.live))
	for id, sess := range sm.live {
		if sess.expired() {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(sm.live, id)
	}
	sm.mu.Unlock()

	if count, err := sm.store.CountSessions(ctx); err == nil {
		metrics.SetActiveSessions(count)
	}
	return n, nil
}

// RunCleanup purges expired sessions every interval until ctx is done.
func (sm *SessionManager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sm.CleanupExpiredSessions(ctx)
			if err != nil {
				sm.logger.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				sm.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// GetSessionFromRequest extracts the session from the request cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, nil // No cookie, no session
	}
	return sm.GetSession(r.Context(), cookie.Value)
}

// Live returns the number of sessions with live state.
func (sm *SessionManager) Live() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.live)
}

// attach builds the per-session backend client and resolver.
func (sm *SessionManager) attach(rec *model.Session) (*Session, error) {
	backend, err := url.Parse(sm.backend.URL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	logger := sm.logger.With("session", rec.ID)
	client, err := identity.NewClient(identity.ClientConfig{
		BaseURL:    sm.backend.URL,
		WhoAmIPath: sm.backend.WhoAmIPath,
		LogoutPath: sm.backend.LogoutPath,
		Timeout:    sm.backend.RequestTimeout,
	}, jar, logger)
	if err != nil {
		return nil, fmt.Errorf("identity client: %w", err)
	}

	fallbacks := []identity.Source{identity.DevelopmentSource{}}
	if sm.static != nil {
		fallbacks = append([]identity.Source{sm.static}, fallbacks...)
	}

	sess := &Session{
		ID:       rec.ID,
		record:   *rec,
		Resolver: identity.NewResolver(identity.NewAPISource(client, logger), client, logger, fallbacks...),
		Client:   client,
		Media:    media.NewClient(client.HTTPClient(), logger),
		backend:  backend,
		jar:      jar,
		cookies:  make(map[string]string),
	}

	sm.mu.Lock()
	// Another request may have attached the same session first.
	if existing, ok := sm.live[rec.ID]; ok {
		sm.mu.Unlock()
		return existing, nil
	}
	sm.live[rec.ID] = sess
	n := len(sm.live)
	sm.mu.Unlock()

	metrics.SetActiveSessions(n)
	return sess, nil
}

func (sm *SessionManager) forget(sessionID string) {
	sm.mu.Lock()
	delete(sm.live, sessionID)
	n := len(sm.live)
	sm.mu.Unlock()
	metrics.SetActiveSessions(n)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie expires a browser cookie.
func ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
