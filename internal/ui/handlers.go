package ui

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/identity"
	"github.com/me/mediafront/internal/media"
	"github.com/me/mediafront/internal/store"
	"github.com/me/mediafront/pkg/model"
)

// DefaultResolveWait bounds how long the home page waits for the identity
// lookup before rendering with the placeholder profile.
const DefaultResolveWait = 300 * time.Millisecond

// UI handles the web user interface.
type UI struct {
	sessions    *SessionManager
	cfg         config.ServerConfig
	logger      *slog.Logger
	secure      bool
	resolveWait time.Duration
}

// Option configures optional UI behavior.
type Option func(*UI)

// WithResolveWait sets how long the home page waits for identity resolution.
func WithResolveWait(d time.Duration) Option {
	return func(ui *UI) {
		ui.resolveWait = d
	}
}

// New creates a new UI handler.
func New(st store.Store, cfg config.ServerConfig, logger *slog.Logger, opts ...Option) *UI {
	var static identity.Source
	if cfg.User.Configured() {
		static = identity.NewStaticSource(cfg.User)
	}
	ui := &UI{
		sessions:    NewSessionManager(st, cfg.Backend, static, cfg.SessionTTL, logger),
		cfg:         cfg,
		logger:      logger.With("component", "ui"),
		secure:      cfg.SecureCookies,
		resolveWait: DefaultResolveWait,
	}
	for _, opt := range opts {
		opt(ui)
	}
	return ui
}

// Sessions returns the session manager.
func (ui *UI) Sessions() *SessionManager {
	return ui.sessions
}

// HandleHome renders the home page. Section listings and identity
// resolution run concurrently; if the profile is still unknown when the
// sections are in, the page renders with the placeholder profile and the
// empty state is fetched separately.
func (ui *UI) HandleHome(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var results []media.Result
	var wg conc.WaitGroup
	wg.Go(func() {
		results = media.LoadSections(r.Context(), sess.Media, SectionRequests(ui.cfg), ui.logger)
	})
	wg.Go(func() {
		ctx, cancel := context.WithTimeout(r.Context(), ui.resolveWait)
		defer cancel()
		sess.Resolver.Resolve(ctx)
	})
	wg.Wait()

	profile, known := sess.Resolver.Current()
	if !known {
		profile = sess.Resolver.Placeholder(r.Context())
	}

	view := BuildHome(ui.cfg, profile, !known, results)
	if r.URL.Query().Get("signout") == "failed" {
		view.Notice = MsgSignOutFailed
	}
	ui.render(w, "home", view)
}

// HandleEmptyMedia renders the empty-state fragment once the profile is
// known, joining the lookup the home page started, along with an out-of-band refresh of the user menu.
func (ui *UI) HandleEmptyMedia(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	profile, ok := sess.Resolver.Current()
	if !ok {
		profile = sess.Resolver.Resolve(r.Context())
	}

	view := HomeView{
		Empty: BuildEmptyState(profile, ui.cfg),
		Menu:  BuildMenu(profile, ui.cfg.Links),
	}
	ui.renderFragment(w, "empty-media", view)
}

// HandleSignOut ends the backend session. On success the browser's backend
// cookies are expired and it is sent to the site root; on failure it returns
// home with a notice.
func (ui *UI) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	if !sess.Resolver.SignOut(r.Context()) {
		http.Redirect(w, r, ui.signOutFailedURL(), http.StatusSeeOther)
		return
	}

	for _, name := range sess.BackendCookieNames() {
		ClearCookie(w, name)
	}
	ui.logger.Info("user signed out", "session", sess.ID)
	http.Redirect(w, r, ui.cfg.Site.Root, http.StatusSeeOther)
}

// signOutFailedURL is the site root carrying the sign-out failure notice.
func (ui *UI) signOutFailedURL() string {
	u, err := url.Parse(ui.cfg.Site.Root)
	if err != nil || u.Path == "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("signout", "failed")
	u.RawQuery = q.Encode()
	return u.String()
}

// ResolveProfile resolves the profile of the request's session.
func (ui *UI) ResolveProfile(r *http.Request) (model.UserProfile, bool) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		return model.UserProfile{}, false
	}
	return sess.Resolver.Resolve(r.Context()), true
}

// HandleNotFound renders the not-found page.
func (ui *UI) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	ui.renderNotFound(w, "The page you are looking for does not exist.")
}

type errorView struct {
	HomeView
	Message string
}

func (ui *UI) baseView(title string) HomeView {
	return HomeView{
		Title:     title + " - " + ui.cfg.Site.Title,
		SiteTitle: ui.cfg.Site.Title,
		Links:     ui.cfg.Links,
		Menu:      BuildMenu(identity.AnonymousProfile(), ui.cfg.Links),
	}
}

func (ui *UI) render(w http.ResponseWriter, template string, data any) {
	ui.renderStatus(w, http.StatusOK, template, data)
}

func (ui *UI) renderStatus(w http.ResponseWriter, status int, template string, data any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderFragment(w http.ResponseWriter, template string, data any) {
	var buf bytes.Buffer
	if err := renderFragment(&buf, template, data); err != nil {
		ui.logger.Error("fragment render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (ui *UI) renderNotFound(w http.ResponseWriter, message string) {
	ui.renderStatus(w, http.StatusNotFound, "error", errorView{
		HomeView: ui.baseView("Not Found"),
		Message:  message,
	})
}
