// Package component provides the HTML views of the journal web app.
package component

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

// SiteTitle is shown in the header and the document title of every page.
const SiteTitle = "Learning Journal"

// Page carries the per-request state shared by every page.
type Page struct {
	// Title is prefixed to the site title in the document title, if set.
	Title string
	// User is the name of the logged in admin, empty for anonymous visitors.
	User string
	// CSRFToken must accompany every form submission.
	CSRFToken string
	// Flashes are one-shot messages from the previous request.
	Flashes []string
}

// Admin reports whether the page is rendered for the logged in admin.
func (p Page) Admin() bool { return p.User != "" }

// DocumentTitle returns the contents of the <title> element.
func (p Page) DocumentTitle() string {
	if p.Title == "" {
		return SiteTitle
	}
	return p.Title + " | " + SiteTitle
}

// WithTitle returns a copy of p with the given title.
func (p Page) WithTitle(title string) Page {
	p.Title = title
	return p
}
