package ui

import (
	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/media"
	"github.com/me/mediafront/pkg/model"
)

// Section keys.
const (
	SectionFeatured    = "featured"
	SectionRecommended = "recommended"
	SectionLatest      = "latest"
)

// Items requested per section.
const (
	LatestPageItems = 30
	SliderItems     = 12
)

// Messages shown by the empty state.
const (
	MsgStartUploading = "Start uploading media and sharing your work!"
	MsgSitTight       = "Admin yet to upload the videos. Sit tight until then!"
	MsgLoadingUser    = "Loading user data..."
	MsgSignOutFailed  = "Sign out failed. Please try again."
)

// HomeView is everything the home page template needs.
type HomeView struct {
	Title     string
	SiteTitle string
	Links     config.Links
	Menu      MenuView
	Sections  []SectionView
	Display   config.MediaItemConfig
	ShowEmpty bool
	Pending   bool
	Empty     EmptyStateView
	Notice    string
}

// SectionView is one media row.
type SectionView struct {
	Key         string
	Title       string
	ViewAllLink string
	Slider      bool
	Items       []model.MediaItem
}

// EmptyStateView is the call to action shown when there is no media.
type EmptyStateView struct {
	SiteTitle   string
	Name        string
	Contributor bool
	CanUpload   bool
	UploadLink  string
}

// Message returns the call-to-action text.
func (e EmptyStateView) Message() string {
	if e.Contributor {
		return MsgStartUploading
	}
	return MsgSitTight
}

// MenuView is the header user menu.
type MenuView struct {
	Anonymous    bool
	Name         string
	Username     string
	Thumbnail    string
	SignInLink   string
	RegisterLink string
	SignOutPath  string
	Items        []MenuLink
}

// MenuLink is one entry of the user menu.
type MenuLink struct {
	Label string
	Href  string
}

// SectionRequests lists the section fetches for the home page. The latest
// listing is always fetched because its count drives the empty state.
func SectionRequests(cfg config.ServerConfig) []media.Request {
	b := cfg.Backend
	s := cfg.Sections
	return []media.Request{
		{Key: SectionFeatured, Endpoint: b.Endpoint(b.FeaturedPath), Limit: SliderItems, Enabled: s.Featured.Enabled},
		{Key: SectionRecommended, Endpoint: b.Endpoint(b.RecommendedPath), Limit: SliderItems, Enabled: s.Recommended.Enabled},
		{Key: SectionLatest, Endpoint: b.Endpoint(b.MediaPath), Limit: LatestPageItems, Enabled: true},
	}
}

// BuildHome composes the home page from the profile, the section results
// and configuration. pending marks a profile that is still being resolved.
func BuildHome(cfg config.ServerConfig, p model.UserProfile, pending bool, results []media.Result) HomeView {
	v := HomeView{
		Title:     cfg.Site.Title,
		SiteTitle: cfg.Site.Title,
		Links:     cfg.Links,
		Menu:      BuildMenu(p, cfg.Links),
		Display:   cfg.MediaItem,
		Pending:   pending,
		Empty:     BuildEmptyState(p, cfg),
	}

	latestCount := 0
	for _, res := range results {
		var sc config.SectionConfig
		var viewAll string
		switch res.Key {
		case SectionFeatured:
			sc, viewAll = cfg.Sections.Featured, cfg.Links.FeaturedMedia
		case SectionRecommended:
			sc, viewAll = cfg.Sections.Recommended, cfg.Links.RecommendedMedia
		case SectionLatest:
			sc, viewAll = cfg.Sections.Latest, cfg.Links.LatestMedia
			latestCount = res.Len()
		default:
			continue
		}
		if !SectionVisible(sc, res.Len()) {
			continue
		}
		sv := SectionView{
			Key:    res.Key,
			Title:  sc.Title,
			Slider: res.Key != SectionLatest,
			Items:  res.Page.Results,
		}
		if sc.ViewAllLink {
			sv.ViewAllLink = viewAll
		}
		v.Sections = append(v.Sections, sv)
	}
	v.ShowEmpty = latestCount == 0
	return v
}

// SectionVisible reports whether a media row renders: it must be enabled
// and its data source must have returned at least one item.
func SectionVisible(sc config.SectionConfig, count int) bool {
	return sc.Enabled && count > 0
}

// BuildEmptyState composes the empty-state call to action for p.
func BuildEmptyState(p model.UserProfile, cfg config.ServerConfig) EmptyStateView {
	return EmptyStateView{
		SiteTitle:   cfg.Site.Title,
		Name:        p.Name,
		Contributor: p.IsContributor(),
		CanUpload:   p.CanUpload(),
		UploadLink:  cfg.Links.AddMedia,
	}
}

// BuildMenu composes the header user menu for p.
func BuildMenu(p model.UserProfile, links config.Links) MenuView {
	m := MenuView{
		Anonymous:    p.IsAnonymous(),
		Name:         p.Name,
		Username:     p.Username,
		Thumbnail:    p.ThumbnailURL,
		SignInLink:   links.SignIn,
		RegisterLink: links.Register,
		SignOutPath:  links.SignOut,
	}
	if m.Anonymous {
		return m
	}

	m.Items = append(m.Items,
		MenuLink{"My media", p.Pages.Media},
		MenuLink{"Playlists", p.Pages.Playlists},
		MenuLink{"About", p.Pages.About},
		MenuLink{"History", links.History},
	)
	if p.Can.LikeMedia {
		m.Items = append(m.Items, MenuLink{"Liked media", links.LikedMedia})
	}
	if p.Can.AddMedia {
		m.Items = append(m.Items, MenuLink{"Upload media", links.AddMedia})
	}
	if p.Can.EditProfile {
		m.Items = append(m.Items,
			MenuLink{"Edit profile", links.EditProfile},
			MenuLink{"Edit channel", links.EditChannel},
			MenuLink{"Change password", links.ChangePassword},
		)
	}
	if p.Can.ManageMedia {
		m.Items = append(m.Items, MenuLink{"Manage media", links.ManageMedia})
	}
	if p.Can.ManageUsers {
		m.Items = append(m.Items, MenuLink{"Manage users", links.ManageUsers})
	}
	if p.Can.ManageComments {
		m.Items = append(m.Items, MenuLink{"Manage comments", links.ManageComments})
	}
	if p.Is.Admin {
		m.Items = append(m.Items, MenuLink{"Admin", links.Admin})
	}
	return m
}
