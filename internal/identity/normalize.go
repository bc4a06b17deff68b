// Package identity resolves the visitor's identity against the backend
// whoami endpoint and derives the capability flags the views gate on.
package identity

import "github.com/me/mediafront/pkg/model"

// Development profile identity, installed when the backend is unreachable and
// no fallback user is configured.
const (
	DevelopmentName     = "Development User"
	DevelopmentUsername = "devuser"
)

// Normalize converts a raw whoami payload into a UserProfile.
//
// It is the only place capabilities are derived. A payload without a username
// is anonymous, and an anonymous profile never holds a capability that needs
// authentication, whatever role flags the payload carries.
func Normalize(raw model.WhoAmI) model.UserProfile {
	authenticated := raw.Username != ""
	staff := raw.IsStaff
	manager := raw.IsManager
	editor := raw.IsEditor
	advanced := raw.AdvancedUser

	name := raw.Name
	if name == "" {
		name = model.DefaultDisplayName
	}

	contributor := advanced || staff
	can := model.Capabilities{
		AddMedia:       authenticated && contributor,
		EditMedia:      authenticated && contributor,
		DeleteMedia:    authenticated && contributor,
		EditSubtitle:   authenticated && contributor,
		ReadComment:    true,
		AddComment:     authenticated,
		LikeMedia:      authenticated,
		DislikeMedia:   authenticated,
		WatchMedia:     true,
		DeleteComment:  authenticated && (manager || editor || staff),
		EditProfile:    authenticated,
		DeleteProfile:  authenticated && (manager || staff),
		ManageMedia:    authenticated && (editor || manager || staff),
		ManageUsers:    authenticated && (manager || staff),
		ManageComments: authenticated && (editor || manager || staff),
		ContactUser:    false,
	}

	return model.UserProfile{
		Name:         name,
		Username:     raw.Username,
		ThumbnailURL: raw.ThumbnailURL,
		Is: model.Identity{
			Admin:        authenticated && staff,
			Anonymous:    !authenticated,
			AdvancedUser: authenticated && advanced,
		},
		Can:   can,
		Pages: profilePages(raw.URL),
	}
}

func profilePages(base string) model.ProfilePages {
	if base == "" {
		return model.DefaultProfilePages()
	}
	return model.ProfilePages{
		About:     base + "/about",
		Media:     base,
		Playlists: base + "/playlists",
	}
}

// AnonymousProfile returns the fixed profile of an unauthenticated visitor:
// no name, no username, and only the public capabilities.
func AnonymousProfile() model.UserProfile {
	return model.UserProfile{
		Is:    model.Identity{Anonymous: true},
		Can:   model.PublicCapabilities(),
		Pages: model.DefaultProfilePages(),
	}
}

// DevelopmentProfile returns the profile used when neither the backend nor a
// configured fallback user is available. It grants every capability.
func DevelopmentProfile() model.UserProfile {
	return model.UserProfile{
		Name:     DevelopmentName,
		Username: DevelopmentUsername,
		Is: model.Identity{
			Admin:        true,
			AdvancedUser: true,
		},
		Can: model.Capabilities{
			AddMedia:       true,
			EditMedia:      true,
			DeleteMedia:    true,
			EditSubtitle:   true,
			ReadComment:    true,
			AddComment:     true,
			LikeMedia:      true,
			DislikeMedia:   true,
			WatchMedia:     true,
			DeleteComment:  true,
			EditProfile:    true,
			DeleteProfile:  true,
			ManageMedia:    true,
			ManageUsers:    true,
			ManageComments: true,
			ContactUser:    true,
		},
		Pages: model.DefaultProfilePages(),
	}
}
