package model

import "time"

// MediaItem is a single entry of a backend media listing.
type MediaItem struct {
	FriendlyToken string    `json:"friendly_token"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	Views         int64     `json:"views"`
	AuthorName    string    `json:"author_name"`
	AuthorProfile string    `json:"author_profile"`
	AddDate       time.Time `json:"add_date"`
	Duration      float64   `json:"duration"`
}

// MediaPage is the paginated envelope of a backend media listing.
type MediaPage struct {
	Count    int         `json:"count"`
	Next     string      `json:"next"`
	Previous string      `json:"previous"`
	Results  []MediaItem `json:"results"`
}

// Len returns the number of items on the page.
func (p *MediaPage) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Results)
}
