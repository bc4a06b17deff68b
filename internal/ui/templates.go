package ui

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/pkg/model"
)

// rowView and cardView pair a row or card with the display flags.
type rowView struct {
	Section SectionView
	Display config.MediaItemConfig
}

type cardView struct {
	Item    model.MediaItem
	Display config.MediaItemConfig
}

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"views": func(n int64) string {
		if n == 1 {
			return "1 view"
		}
		return humanize.Comma(n) + " views"
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"isoDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	},
	"clock": func(seconds float64) string {
		if seconds <= 0 {
			return ""
		}
		d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
		h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
		if h > 0 {
			return fmt.Sprintf("%d:%02d:%02d", h, m, s)
		}
		return fmt.Sprintf("%d:%02d", m, s)
	},
	"rowData": func(s SectionView, d config.MediaItemConfig) rowView {
		return rowView{Section: s, Display: d}
	},
	"cardData": func(item model.MediaItem, d config.MediaItemConfig) cardView {
		return cardView{Item: item, Display: d}
	},
	"loading": func() string { return MsgLoadingUser },
	"initial": func(s string) string {
		s = strings.TrimSpace(s)
		if s == "" {
			return "?"
		}
		return strings.ToUpper(string([]rune(s)[:1]))
	},
}

// renderTemplate renders a page template inside the layout.
func renderTemplate(w io.Writer, name string, data any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	if _, err := tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	if err := parseComponents(tmpl); err != nil {
		return err
	}

	return tmpl.Execute(w, data)
}

// renderFragment renders a template without the layout, for htmx swaps.
func renderFragment(w io.Writer, name string, data any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	tmpl, err := template.New("fragment").Funcs(templateFuncs).Parse(content)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	if err := parseComponents(tmpl); err != nil {
		return err
	}

	return tmpl.ExecuteTemplate(w, name, data)
}

func parseComponents(tmpl *template.Template) error {
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err := tmpl.New(filepath.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}
	return nil
}

// templates holds all template content.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <script src="https://cdn.tailwindcss.com"></script>
    <link rel="stylesheet" href="/static/css/app.css">
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex">
                    <a href="{{.Links.Home}}" class="flex items-center px-2 py-2 text-xl font-bold text-indigo-600">{{.SiteTitle}}</a>
                    <div class="hidden sm:ml-6 sm:flex sm:space-x-8">
                        <a href="{{.Links.LatestMedia}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Latest</a>
                        <a href="{{.Links.FeaturedMedia}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Featured</a>
                        <a href="{{.Links.RecommendedMedia}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Recommended</a>
                        <a href="{{.Links.Members}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Members</a>
                        <a href="{{.Links.Tags}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Tags</a>
                        <a href="{{.Links.Categories}}" class="text-gray-500 hover:text-gray-700 inline-flex items-center px-1 pt-1 text-sm font-medium">Categories</a>
                    </div>
                </div>
                <form action="{{.Links.Search}}" method="GET" class="hidden md:flex items-center">
                    <input type="search" name="q" placeholder="Search" class="border rounded-md px-3 py-1 text-sm">
                </form>
                {{template "user_menu" .Menu}}
            </div>
        </div>
    </nav>

    {{if .Notice}}
    <div class="notice max-w-7xl mx-auto mt-4 rounded-md bg-red-50 p-4 text-sm text-red-700">{{.Notice}}</div>
    {{end}}

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"home": `{{define "content"}}
<div id="home" class="items-list-ver">
    {{range .Sections}}
    {{template "media_row" (rowData . $.Display)}}
    {{end}}

    {{if .ShowEmpty}}
    {{if .Pending}}
    <div id="empty-media" class="empty-media-pending" hx-get="/fragments/empty-media" hx-trigger="load" hx-swap="outerHTML">{{loading}}</div>
    {{else}}
    {{template "empty_media" .Empty}}
    {{end}}
    {{end}}
</div>
{{end}}`,

	"empty-media": `{{define "empty-media"}}
{{template "empty_media" .Empty}}
<div id="user-menu-slot" class="flex items-center" hx-swap-oob="true">{{template "user_menu_body" .Menu}}</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="text-center py-12">
    <h1 class="text-2xl font-semibold text-gray-900">Something went wrong</h1>
    <p class="mt-2 text-sm text-gray-500">{{.Message}}</p>
    <a href="{{.Links.Home}}" class="mt-4 inline-block text-indigo-600">Back to home</a>
</div>
{{end}}`,

	"components/empty_media": `{{define "empty_media"}}
<div id="empty-media" class="empty-media text-center py-12">
    <div class="welcome-title text-2xl font-semibold text-gray-900">Welcome to {{.SiteTitle}}{{if .Name}}, {{.Name}}{{end}}!</div>
    <div class="start-uploading mt-2 text-gray-600">{{.Message}}</div>
    {{if .CanUpload}}
    <a href="{{.UploadLink}}" title="Upload media" class="button-link upload-media mt-6 inline-flex items-center px-4 py-2 rounded-md bg-indigo-600 text-white">UPLOAD MEDIA</a>
    {{end}}
</div>
{{end}}`,

	"components/media_row": `{{define "media_row"}}
<section class="media-list-row mb-8" data-section="{{.Section.Key}}">
    <div class="media-list-header flex justify-between items-baseline mb-3">
        <h2 class="text-lg font-semibold text-gray-900">{{.Section.Title}}</h2>
        {{if .Section.ViewAllLink}}<a href="{{.Section.ViewAllLink}}" class="view-all text-sm text-indigo-600">VIEW ALL</a>{{end}}
    </div>
    <div class="{{if .Section.Slider}}items-slider flex overflow-x-auto gap-4{{else}}items-grid grid grid-cols-2 md:grid-cols-4 lg:grid-cols-5 gap-4{{end}}">
        {{range .Section.Items}}{{template "media_card" (cardData . $.Display)}}{{end}}
    </div>
</section>
{{end}}`,

	"components/media_card": `{{define "media_card"}}
<div class="media-item w-56 shrink-0" data-token="{{.Item.FriendlyToken}}">
    <a href="{{.Item.URL}}" title="{{.Item.Title}}" class="block relative">
        {{if .Item.ThumbnailURL}}<img src="{{.Item.ThumbnailURL}}" alt="" class="rounded-md w-full aspect-video object-cover">{{end}}
        {{with clock .Item.Duration}}<span class="duration absolute bottom-1 right-1 bg-black text-white text-xs px-1 rounded">{{.}}</span>{{end}}
    </a>
    <a href="{{.Item.URL}}" class="title block mt-2 text-sm font-medium text-gray-900">{{.Item.Title}}</a>
    {{if .Display.DisplayAuthor}}<a href="{{.Item.AuthorProfile}}" class="author block text-xs text-gray-500">{{.Item.AuthorName}}</a>{{end}}
    <div class="meta text-xs text-gray-500">
        {{if .Display.DisplayViews}}<span class="views">{{views .Item.Views}}</span>{{end}}
        {{if .Display.DisplayPublishDate}}<time class="date" datetime="{{isoDate .Item.AddDate}}">{{ago .Item.AddDate}}</time>{{end}}
    </div>
</div>
{{end}}`,

	"components/user_menu": `{{define "user_menu"}}
<div id="user-menu-slot" class="flex items-center">{{template "user_menu_body" .}}</div>
{{end}}

{{define "user_menu_body"}}
{{if .Anonymous}}
<div class="user-menu anonymous flex items-center space-x-4">
    <a href="{{.SignInLink}}" class="sign-in text-sm text-gray-700">Sign in</a>
    <a href="{{.RegisterLink}}" class="register text-sm text-indigo-600">Register</a>
</div>
{{else}}
<div class="user-menu authenticated flex items-center space-x-4">
    <span class="avatar inline-flex h-8 w-8 items-center justify-center rounded-full bg-indigo-100 text-indigo-700">{{if .Thumbnail}}<img src="{{.Thumbnail}}" alt="" class="h-8 w-8 rounded-full">{{else}}{{initial .Name}}{{end}}</span>
    <span class="name text-sm text-gray-700">{{.Name}}</span>
    <ul class="menu-items hidden md:flex space-x-3">
        {{range .Items}}<li><a href="{{.Href}}" class="text-sm text-gray-500 hover:text-gray-700">{{.Label}}</a></li>{{end}}
    </ul>
    <form action="{{.SignOutPath}}" method="POST" class="sign-out">
        <button type="submit" class="text-sm text-gray-500 hover:text-gray-700">Sign out</button>
    </form>
</div>
{{end}}
{{end}}`,
}
