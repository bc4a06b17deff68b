package model

// DefaultDisplayName is used when the identity endpoint omits a name.
const DefaultDisplayName = "Anonymous"

// Default profile page paths, used when the identity endpoint has no profile URL.
const (
	DefaultAboutPage     = "/profile/about"
	DefaultMediaPage     = "/profile/media"
	DefaultPlaylistsPage = "/profile/playlists"
)

// WhoAmI is the raw payload returned by the backend identity endpoint.
// Absent and null fields decode to their zero values.
type WhoAmI struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsStaff      bool   `json:"is_staff"`
	IsManager    bool   `json:"is_manager"`
	IsEditor     bool   `json:"is_editor"`
	AdvancedUser bool   `json:"advancedUser"`
	URL          string `json:"url"`
}

// Identity holds the identity flags of a profile.
type Identity struct {
	Admin        bool `json:"admin"`
	Anonymous    bool `json:"anonymous"`
	AdvancedUser bool `json:"advancedUser"`
}

// Capabilities is the fixed set of named permissions that gate UI actions.
type Capabilities struct {
	AddMedia       bool `json:"addMedia"`
	EditMedia      bool `json:"editMedia"`
	DeleteMedia    bool `json:"deleteMedia"`
	EditSubtitle   bool `json:"editSubtitle"`
	ReadComment    bool `json:"readComment"`
	AddComment     bool `json:"addComment"`
	LikeMedia      bool `json:"likeMedia"`
	DislikeMedia   bool `json:"dislikeMedia"`
	WatchMedia     bool `json:"watchMedia"`
	DeleteComment  bool `json:"deleteComment"`
	EditProfile    bool `json:"editProfile"`
	DeleteProfile  bool `json:"deleteProfile"`
	ManageMedia    bool `json:"manageMedia"`
	ManageUsers    bool `json:"manageUsers"`
	ManageComments bool `json:"manageComments"`
	ContactUser    bool `json:"contactUser"`
}

// PublicCapabilities returns the capabilities every visitor holds.
func PublicCapabilities() Capabilities {
	return Capabilities{ReadComment: true, WatchMedia: true}
}

// ProfilePages holds the profile-relative page URLs of a user.
type ProfilePages struct {
	About     string `json:"about"`
	Media     string `json:"media"`
	Playlists string `json:"playlists"`
}

// DefaultProfilePages returns the page set used when no profile URL is known.
func DefaultProfilePages() ProfilePages {
	return ProfilePages{
		About:     DefaultAboutPage,
		Media:     DefaultMediaPage,
		Playlists: DefaultPlaylistsPage,
	}
}

// UserProfile is the normalized identity record consumed by the views.
// An empty Username means the visitor is anonymous.
type UserProfile struct {
	Name         string       `json:"name"`
	Username     string       `json:"username"`
	ThumbnailURL string       `json:"thumbnail,omitempty"`
	Is           Identity     `json:"is"`
	Can          Capabilities `json:"can"`
	Pages        ProfilePages `json:"pages"`
}

// IsAnonymous reports whether the profile belongs to an unauthenticated visitor.
func (p UserProfile) IsAnonymous() bool {
	return p.Is.Anonymous
}

// CanUpload reports whether the profile may start uploading media.
// The addMedia capability alone is not enough: the visitor must also be
// authenticated and hold the advanced-user or admin flag.
func (p UserProfile) CanUpload() bool {
	return !p.Is.Anonymous && p.Can.AddMedia && p.IsContributor()
}

// IsContributor reports whether an authenticated profile is expected to
// publish media (advanced user or admin).
func (p UserProfile) IsContributor() bool {
	return !p.Is.Anonymous && (p.Is.AdvancedUser || p.Is.Admin)
}
