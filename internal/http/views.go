package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
	"github.com/Clark-Hu/cinelog/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the data every template receives.
type page struct {
	Title   string
	Visitor session.Visitor
	User    *domain.User
	Banner  string
	Loading bool
	Data    interface{}
}

type views struct {
	pages map[string]*template.Template
}

var viewFuncs = template.FuncMap{
	"rating":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"join":     strings.Join,
	"poster":   posterSrc,
	"avatar":   avatarSrc,
	"initials": catalog.Initials,
	"empty":    emptyMessage,
	"notes":    noteRange,
}

func mustParseViews() *views {
	v, err := parseViews(templateFS)
	if err != nil {
		panic(err)
	}
	return v
}

func parseViews(fsys fs.FS) (*views, error) {
	base, err := template.New("layout.html").Funcs(viewFuncs).ParseFS(fsys, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	v := &views{pages: make(map[string]*template.Template)}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (v *views) execute(w io.Writer, name string, p page) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", p)
}

// posterSrc only lets through values PosterURL can produce.
func posterSrc(src string) template.URL {
	if src == catalog.PlaceholderPoster || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return template.URL(src)
	}
	return template.URL(catalog.PlaceholderPoster)
}

func avatarSrc(avatar, username string) template.URL {
	if !strings.HasPrefix(avatar, "https://") && !strings.HasPrefix(avatar, "http://") {
		avatar = ""
	}
	return template.URL(catalog.AvatarURL(avatar, username))
}

func emptyMessage(reason catalog.EmptyReason) string {
	switch reason {
	case catalog.EmptyLoginRequired:
		return "Log in to see what your friends have been watching."
	case catalog.EmptyNoFriends:
		return "You have not added any friends yet. Find some on the friends page."
	case catalog.EmptyNoActivity:
		return "No activity yet."
	}
	return ""
}

func noteRange() []int {
	out := make([]int, 0, domain.MaxNote-domain.MinNote+1)
	for n := domain.MinNote; n <= domain.MaxNote; n++ {
		out = append(out, n)
	}
	return out
}
