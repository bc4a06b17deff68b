package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ServerConfig holds configuration for the mediafront server.
type ServerConfig struct {
	Addr          string        `yaml:"addr" env:"ADDR"`                     // Listen address (default ":8080")
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`           // Log level: debug, info, warn, error
	LogFormat     string        `yaml:"log_format" env:"LOG_FORMAT"`         // Log format: text, json
	DBPath        string        `yaml:"db" env:"DB"`                         // SQLite session database (":memory:" for testing)
	StaticDir     string        `yaml:"static_dir" env:"STATIC_DIR"`         // Optional directory served under /static/
	SecureCookies bool          `yaml:"secure_cookies" env:"SECURE_COOKIES"` // Mark session cookies Secure (HTTPS)
	SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`

	Site      SiteConfig      `yaml:"site" envPrefix:"SITE_"`
	Backend   BackendConfig   `yaml:"backend" envPrefix:"BACKEND_"`
	Sections  SectionsConfig  `yaml:"sections" envPrefix:"SECTIONS_"`
	MediaItem MediaItemConfig `yaml:"media_item" envPrefix:"MEDIA_ITEM_"`
	Links     Links           `yaml:"links"`
	User      UserDefaults    `yaml:"fallback_user" envPrefix:"USER_"`
}

// SiteConfig describes the site shell.
type SiteConfig struct {
	Title string `yaml:"title" env:"TITLE"`
	Root  string `yaml:"root" env:"ROOT"` // Where a successful sign-out navigates to
}

// BackendConfig locates the media backend the front end talks to.
type BackendConfig struct {
	URL             string        `yaml:"url" env:"URL"`
	WhoAmIPath      string        `yaml:"whoami" env:"WHOAMI"`
	LogoutPath      string        `yaml:"logout" env:"LOGOUT"`
	MediaPath       string        `yaml:"media" env:"MEDIA"`
	FeaturedPath    string        `yaml:"featured" env:"FEATURED"`
	RecommendedPath string        `yaml:"recommended" env:"RECOMMENDED"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// Endpoint resolves p against the backend base URL.
// Absolute URLs are returned unchanged.
func (b BackendConfig) Endpoint(p string) string {
	base, err := url.Parse(b.URL)
	if err != nil {
		return strings.TrimRight(b.URL, "/") + p
	}
	ref, err := url.Parse(p)
	if err != nil {
		return strings.TrimRight(b.URL, "/") + p
	}
	return base.ResolveReference(ref).String()
}

// SectionConfig toggles one home page row.
type SectionConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED"`
	Title       string `yaml:"title" env:"TITLE"`
	ViewAllLink bool   `yaml:"view_all_link" env:"VIEW_ALL_LINK"`
}

// SectionsConfig holds the home page rows.
type SectionsConfig struct {
	Featured    SectionConfig `yaml:"featured" envPrefix:"FEATURED_"`
	Recommended SectionConfig `yaml:"recommended" envPrefix:"RECOMMENDED_"`
	Latest      SectionConfig `yaml:"latest" envPrefix:"LATEST_"`
}

// MediaItemConfig controls which details media cards display.
type MediaItemConfig struct {
	DisplayViews       bool `yaml:"display_views" env:"DISPLAY_VIEWS"`
	DisplayAuthor      bool `yaml:"display_author" env:"DISPLAY_AUTHOR"`
	DisplayPublishDate bool `yaml:"display_publish_date" env:"DISPLAY_PUBLISH_DATE"`
}

// Links is the table of page targets rendered by the views.
type Links struct {
	Home             string `yaml:"home"`
	Search           string `yaml:"search"`
	LatestMedia      string `yaml:"latest_media"`
	FeaturedMedia    string `yaml:"featured_media"`
	RecommendedMedia string `yaml:"recommended_media"`
	Members          string `yaml:"members"`
	Tags             string `yaml:"tags"`
	Categories       string `yaml:"categories"`
	LikedMedia       string `yaml:"liked_media"`
	History          string `yaml:"history"`
	AddMedia         string `yaml:"add_media"`
	EditProfile      string `yaml:"edit_profile"`
	EditChannel      string `yaml:"edit_channel"`
	SignIn           string `yaml:"signin"`
	SignOut          string `yaml:"signout"`
	Register         string `yaml:"register"`
	ChangePassword   string `yaml:"change_password"`
	Admin            string `yaml:"admin"`
	ManageMedia      string `yaml:"manage_media"`
	ManageUsers      string `yaml:"manage_users"`
	ManageComments   string `yaml:"manage_comments"`
}

// PagesConfig overrides the profile pages of the fallback user.
type PagesConfig struct {
	About     string `yaml:"about" env:"ABOUT"`
	Media     string `yaml:"media" env:"MEDIA"`
	Playlists string `yaml:"playlists" env:"PLAYLISTS"`
}

// UserDefaults is the statically configured profile used when the identity
// endpoint cannot be reached.
type UserDefaults struct {
	Name         string      `yaml:"name" env:"NAME"`
	Username     string      `yaml:"username" env:"USERNAME"`
	Thumbnail    string      `yaml:"thumbnail" env:"THUMB"`
	IsAdmin      bool        `yaml:"is_admin" env:"IS_ADMIN"`
	IsAnonymous  bool        `yaml:"is_anonymous" env:"IS_ANONYMOUS"`
	IsAdvanced   bool        `yaml:"is_advanced" env:"IS_ADVANCED"`
	IsManager    bool        `yaml:"is_manager" env:"IS_MANAGER"`
	IsEditor     bool        `yaml:"is_editor" env:"IS_EDITOR"`
	Pages        PagesConfig `yaml:"pages" envPrefix:"PAGES_"`
}

// Configured reports whether any fallback user field was supplied.
func (u UserDefaults) Configured() bool {
	return u != UserDefaults{}
}

// MissingUsername reports a fallback user that sets roles or a name but no
// username. Such a user resolves to the anonymous profile.
func (u UserDefaults) MissingUsername() bool {
	return u.Configured() && u.Username == "" && !u.IsAnonymous
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:       ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
		SessionTTL: 24 * time.Hour,
		Site: SiteConfig{
			Title: "mediafront",
			Root:  "/",
		},
		Backend: BackendConfig{
			URL:             "http://localhost",
			WhoAmIPath:      "/api/v1/whoami",
			LogoutPath:      "/accounts/logout/",
			MediaPath:       "/api/v1/media",
			FeaturedPath:    "/api/v1/media?show=featured",
			RecommendedPath: "/api/v1/media?show=recommended",
			RequestTimeout:  10 * time.Second,
		},
		Sections: SectionsConfig{
			Featured:    SectionConfig{Enabled: true, Title: "Featured", ViewAllLink: true},
			Recommended: SectionConfig{Enabled: true, Title: "Recommended", ViewAllLink: true},
			Latest:      SectionConfig{Enabled: true, Title: "Latest", ViewAllLink: false},
		},
		MediaItem: MediaItemConfig{
			DisplayViews:       true,
			DisplayAuthor:      true,
			DisplayPublishDate: true,
		},
		Links: DefaultLinks(),
	}
}

// DefaultLinks returns the built-in page targets.
func DefaultLinks() Links {
	return Links{
		Home:             "/",
		Search:           "/search",
		LatestMedia:      "/latest",
		FeaturedMedia:    "/featured",
		RecommendedMedia: "/recommended",
		Members:          "/members",
		Tags:             "/tags",
		Categories:       "/categories",
		LikedMedia:       "/liked",
		History:          "/history",
		AddMedia:         "/upload",
		EditProfile:      "/edit-profile",
		EditChannel:      "/edit-channel",
		SignIn:           "/accounts/login/",
		SignOut:          "/signout",
		Register:         "/accounts/signup/",
		ChangePassword:   "/accounts/password/change/",
		Admin:            "/admin",
		ManageMedia:      "/manage/media",
		ManageUsers:      "/manage/users",
		ManageComments:   "/manage/comments",
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c ServerConfig) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend url %q must be absolute", c.Backend.URL)
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend request timeout must be positive, got %s", c.Backend.RequestTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.Site.Root == "" {
		return fmt.Errorf("site root must not be empty")
	}
	return nil
}
