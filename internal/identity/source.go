package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/metrics"
	"github.com/me/mediafront/pkg/model"
)

// Source produces a profile. Lookup never fails loudly: ok=false means the
// resolver should move on to the next source.
type Source interface {
	Name() string
	Lookup(ctx context.Context) (p model.UserProfile, ok bool)
}

// WhoAmIer fetches the raw identity from the backend.
type WhoAmIer interface {
	WhoAmI(ctx context.Context) (model.WhoAmI, error)
}

// APISource asks the backend identity endpoint. A 401/403 answer yields the
// anonymous profile; any other failure is logged and yields ok=false.
type APISource struct {
	client WhoAmIer
	logger *slog.Logger
}

// NewAPISource creates a source backed by client.
func NewAPISource(client WhoAmIer, logger *slog.Logger) *APISource {
	return &APISource{client: client, logger: logger}
}

func (s *APISource) Name() string { return "api" }

func (s *APISource) Lookup(ctx context.Context) (model.UserProfile, bool) {
	start := time.Now()
	raw, err := s.client.WhoAmI(ctx)
	switch {
	case err == nil:
		metrics.RecordWhoAmI("ok", time.Since(start))
		return Normalize(raw), true
	case errors.Is(err, ErrUnauthenticated):
		metrics.RecordWhoAmI("unauthenticated", time.Since(start))
		s.logger.Info("user not authenticated, using anonymous profile")
		return AnonymousProfile(), true
	default:
		metrics.RecordWhoAmI("error", time.Since(start))
		s.logger.Warn("fetch user data failed", "error", err)
		return model.UserProfile{}, false
	}
}

// StaticSource serves the statically configured fallback user.
type StaticSource struct {
	profile    model.UserProfile
	configured bool
}

// NewStaticSource builds the fallback profile from u. The profile goes
// through Normalize, so its capabilities follow the same rules as a backend
// answer; configured page paths replace the derived ones.
func NewStaticSource(u config.UserDefaults) *StaticSource {
	if !u.Configured() {
		return &StaticSource{}
	}
	var p model.UserProfile
	if u.IsAnonymous {
		p = AnonymousProfile()
	} else {
		p = Normalize(model.WhoAmI{
			Username:     u.Username,
			Name:         u.Name,
			ThumbnailURL: u.Thumbnail,
			IsStaff:      u.IsAdmin,
			IsManager:    u.IsManager,
			IsEditor:     u.IsEditor,
			AdvancedUser: u.IsAdvanced,
		})
	}
	if u.Pages.About != "" {
		p.Pages.About = u.Pages.About
	}
	if u.Pages.Media != "" {
		p.Pages.Media = u.Pages.Media
	}
	if u.Pages.Playlists != "" {
		p.Pages.Playlists = u.Pages.Playlists
	}
	return &StaticSource{profile: p, configured: true}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Lookup(context.Context) (model.UserProfile, bool) {
	return s.profile, s.configured
}

// DevelopmentSource always answers with DevelopmentProfile.
type DevelopmentSource struct{}

func (DevelopmentSource) Name() string { return "development" }

func (DevelopmentSource) Lookup(context.Context) (model.UserProfile, bool) {
	return DevelopmentProfile(), true
}
