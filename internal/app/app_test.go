package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stolasapp/journal/internal/app/component"
	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/sec"
	"github.com/stolasapp/journal/internal/storage"
)

const (
	testUsername = "admin"
	testPassword = "hunter22"

	postMarkdown = "##This is a post\n\nSome *text*.\n\n```go\npackage main\n```\n"
)

type testApp struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	store  *storage.DB
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.DevMode = true
	cfg.DatabaseURL = ":memory:"
	cfg.AuthSecret = "0123456789abcdef0123456789abcdef"
	cfg.SessionSecret = "fedcba9876543210fedcba9876543210"
	cfg.AdminUsername = testUsername
	cfg.AdminPasswordHash = string(hash)
	for _, fn := range mutate {
		fn(cfg)
	}

	logger := slog.New(slog.DiscardHandler)
	store, err := storage.NewDB(t.Context(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(New(cfg, logger, store))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{t: t, srv: srv, client: client, store: store}
}

func (a *testApp) do(req *http.Request) (*http.Response, string) {
	a.t.Helper()
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(body)
}

func (a *testApp) get(path string) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequestWithContext(a.t.Context(), http.MethodGet, a.srv.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(req)
}

// post submits form with the CSRF token in the X-CSRF-Token header, the way
// journal.js does.
func (a *testApp) post(path string, form url.Values) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequestWithContext(a.t.Context(), http.MethodPost, a.srv.URL+path,
		strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(csrfHeader, a.csrfToken())
	return a.do(req)
}

func (a *testApp) csrfToken() string {
	a.t.Helper()
	_, body := a.get(component.PathLogin)
	doc := a.parse(body)
	token, ok := doc.Find(`input[name="` + component.FieldCSRF + `"]`).Attr("value")
	require.True(a.t, ok, "login form has no CSRF field")
	require.NotEmpty(a.t, token)
	return token
}

func (a *testApp) parse(body string) *goquery.Document {
	a.t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(a.t, err)
	return doc
}

func (a *testApp) login() {
	a.t.Helper()
	resp, _ := a.post(component.PathLogin, url.Values{
		component.FieldUsername: {testUsername},
		component.FieldPassword: {testPassword},
	})
	require.Equal(a.t, http.StatusFound, resp.StatusCode)
}

func (a *testApp) add(title, text string) entryResponse {
	a.t.Helper()
	resp, body := a.post(component.PathAdd, url.Values{
		component.FieldTitle: {title},
		component.FieldText:  {text},
	})
	require.Equal(a.t, http.StatusOK, resp.StatusCode, body)
	var entry entryResponse
	require.NoError(a.t, json.Unmarshal([]byte(body), &entry))
	return entry
}

func hasCookie(resp *http.Response, name string) (*http.Cookie, bool) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie, true
		}
	}
	return nil, false
}

func TestHome(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		resp, body := app.get(component.PathHome)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		doc := app.parse(body)
		assert.Equal(t, "No entries here so far", doc.Find("#"+component.IDEntries+" ."+component.ClassEmpty).Text())
		assert.Equal(t, component.SiteTitle, doc.Find("title").Text())
		assert.Zero(t, doc.Find("#"+component.IDAddButton).Length(), "anonymous visitors cannot add")
		assert.Equal(t, 1, doc.Find(`a[href="`+component.PathLogin+`"]`).Length())
	})

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.login()
		first := app.add("First", "one")
		second := app.add("Second", "two")

		_, body := app.get(component.PathHome)
		doc := app.parse(body)
		articles := doc.Find("#" + component.IDEntries + " article")
		require.Equal(t, 2, articles.Length())
		id, _ := articles.Eq(0).Attr(component.DataAttrEntryID)
		assert.Equal(t, strconv.FormatInt(second.ID, 10), id)
		id, _ = articles.Eq(1).Attr(component.DataAttrEntryID)
		assert.Equal(t, strconv.FormatInt(first.ID, 10), id)
		href, _ := articles.Eq(0).Find("a").Attr("href")
		assert.Equal(t, component.DetailURL(second.ID), href)
		assert.Equal(t, 1, doc.Find("#"+component.IDAddButton).Length())
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		resp, _ := app.post(component.PathLogin, url.Values{
			component.FieldUsername: {testUsername},
			component.FieldPassword: {testPassword},
		})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, component.PathHome, resp.Header.Get("Location"))
		ticket, ok := hasCookie(resp, sec.TicketCookie)
		require.True(t, ok)
		assert.True(t, ticket.HttpOnly)
		assert.NotEmpty(t, ticket.Value)

		_, body := app.get(component.PathHome)
		doc := app.parse(body)
		assert.Contains(t, doc.Find("."+component.ClassFlashes).Text(), "Welcome back, "+testUsername+"!")
		assert.Equal(t, 1, doc.Find("#"+component.IDCreateButton).Length())

		// flashes are shown once
		_, body = app.get(component.PathHome)
		assert.Zero(t, app.parse(body).Find("."+component.ClassFlashes).Length())
	})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: testUsername, password: "nope"},
		{name: "unknown user", username: "mallory", password: testPassword},
		{name: "missing password", username: testUsername},
		{name: "missing fields"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			app := newTestApp(t)
			resp, body := app.post(component.PathLogin, url.Values{
				component.FieldUsername: {test.username},
				component.FieldPassword: {test.password},
			})
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			_, ok := hasCookie(resp, sec.TicketCookie)
			assert.False(t, ok)
			doc := app.parse(body)
			assert.Equal(t, loginFailedMessage, doc.Find("."+component.ClassError).Text())
			value, _ := doc.Find(`input[name="` + component.FieldUsername + `"]`).Attr("value")
			assert.Equal(t, test.username, value)
		})
	}

	t.Run("missing CSRF token", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		resp, err := app.client.PostForm(app.srv.URL+component.PathLogin, url.Values{
			component.FieldUsername: {testUsername},
			component.FieldPassword: {testPassword},
		})
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t, func(cfg *config.Config) { cfg.LoginRateLimit = 2 })
		form := url.Values{
			component.FieldUsername: {testUsername},
			component.FieldPassword: {"nope"},
		}
		for range 2 {
			resp, _ := app.post(component.PathLogin, form)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		resp, _ := app.post(component.PathLogin, form)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login()

	resp, _ := app.post(component.PathLogout, url.Values{})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, component.PathHome, resp.Header.Get("Location"))
	ticket, ok := hasCookie(resp, sec.TicketCookie)
	require.True(t, ok)
	assert.Empty(t, ticket.Value)

	_, body := app.get(component.PathHome)
	doc := app.parse(body)
	assert.Contains(t, doc.Find("."+component.ClassFlashes).Text(), "You have been logged out.")
	assert.Zero(t, doc.Find("#"+component.IDCreateButton).Length())

	resp, _ = app.post(component.PathAdd, url.Values{
		component.FieldTitle: {"Title"},
		component.FieldText:  {"Text"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogout_WithoutToken(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login()

	// a plain form post, as from a page rendered before the CSRF cookie expired
	resp, err := app.client.PostForm(app.srv.URL+component.PathLogout, url.Values{})
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, component.PathHome, resp.Header.Get("Location"))
	ticket, ok := hasCookie(resp, sec.TicketCookie)
	require.True(t, ok)
	assert.Empty(t, ticket.Value)

	_, body := app.get(component.PathHome)
	assert.Zero(t, app.parse(body).Find("#"+component.IDCreateButton).Length())
}

func TestAdd(t *testing.T) {
	t.Parallel()

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		resp, body := app.post(component.PathAdd, url.Values{
			component.FieldTitle: {"Title"},
			component.FieldText:  {"Text"},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
		assert.JSONEq(t, `{"message":"you must be logged in to do that"}`, body)

		entries, err := app.store.ListEntries(t.Context())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.login()

		entry := app.add("  A post  ", postMarkdown)
		assert.Positive(t, entry.ID)
		assert.Equal(t, "A post", entry.Title)
		assert.Contains(t, entry.Text, "<h2>This is a post</h2>")
		assert.Contains(t, entry.Text, `<div class="codehilite">`)
		assert.Contains(t, entry.Text, "<em>text</em>")
		assert.Regexp(t, `^[A-Z][a-z]{2}\. \d{2}, \d{4}$`, entry.Created)

		stored, err := app.store.GetEntry(t.Context(), entry.ID)
		require.NoError(t, err)
		assert.Equal(t, postMarkdown, stored.Text)
	})

	t.Run("title padded past the limit", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.login()

		title := strings.Repeat("a", storage.MaxTitleLength)
		entry := app.add(title+" ", "Text")
		assert.Equal(t, title, entry.Title)
	})

	t.Run("sanitized", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.login()

		entry := app.add("XSS", "hello <script>alert(1)</script> <b>world</b>")
		assert.NotContains(t, entry.Text, "<script>")
		assert.Contains(t, entry.Text, "<b>world</b>")
	})

	tests := []struct {
		name    string
		title   string
		text    string
		message string
	}{
		{name: "missing title", text: "Text", message: "title is required"},
		{name: "blank title", title: "   ", text: "Text", message: "title"},
		{name: "long title", title: strings.Repeat("a", storage.MaxTitleLength+1), text: "Text", message: "title must be at most 127 characters"},
		{name: "long title after trimming", title: " " + strings.Repeat("a", storage.MaxTitleLength+1) + " ", text: "Text", message: "title must be at most 127 characters"},
		{name: "missing text", title: "Title", message: "text is required"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			app := newTestApp(t)
			app.login()
			resp, body := app.post(component.PathAdd, url.Values{
				component.FieldTitle: {test.title},
				component.FieldText:  {test.text},
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var msg struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &msg))
			assert.Contains(t, msg.Message, test.message)
		})
	}
}

func TestEdit(t *testing.T) {
	t.Parallel()

	t.Run("updated", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		app.login()
		created := app.add("Before", "old text")
		before, err := app.store.GetEntry(t.Context(), created.ID)
		require.NoError(t, err)

		resp, body := app.post(component.PathEdit, url.Values{
			component.FieldID:    {strconv.FormatInt(created.ID, 10)},
			component.FieldTitle: {"After"},
			component.FieldText:  {"new *text*"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		var updated entryResponse
		require.NoError(t, json.Unmarshal([]byte(body), &updated))
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "After", updated.Title)
		assert.Contains(t, updated.Text, "<em>text</em>")
		assert.Equal(t, created.Created, updated.Created)

		after, err := app.store.GetEntry(t.Context(), created.ID)
		require.NoError(t, err)
		assert.True(t, before.Created.Equal(after.Created))

		_, body = app.get(component.DetailURL(created.ID))
		assert.Equal(t, "After", app.parse(body).Find("article h1").Text())
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t)
		before, err := app.store.CreateEntry(t.Context(), "Untouched", "original text")
		require.NoError(t, err)

		resp, body := app.post(component.PathEdit, url.Values{
			component.FieldID:    {strconv.FormatInt(before.ID, 10)},
			component.FieldTitle: {"Defaced"},
			component.FieldText:  {"new text"},
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.JSONEq(t, `{"message":"you must be logged in to do that"}`, body)

		after, err := app.store.GetEntry(t.Context(), before.ID)
		require.NoError(t, err)
		assert.Equal(t, "Untouched", after.Title)
		assert.Equal(t, "original text", after.Text)
		assert.True(t, before.Created.Equal(after.Created))
	})

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{name: "unknown", id: "999", status: http.StatusNotFound},
		{name: "zero", id: "0", status: http.StatusBadRequest},
		{name: "not a number", id: "abc", status: http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			app := newTestApp(t)
			app.login()
			resp, _ := app.post(component.PathEdit, url.Values{
				component.FieldID:    {test.id},
				component.FieldTitle: {"Title"},
				component.FieldText:  {"Text"},
			})
			assert.Equal(t, test.status, resp.StatusCode)
		})
	}
}

func TestDetail(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login()
	entry := app.add("Hello", postMarkdown)

	t.Run("admin", func(t *testing.T) {
		resp, body := app.get(component.DetailURL(entry.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "<h2>This is a post</h2>")
		assert.Contains(t, body, `<div class="codehilite">`)
		assert.Contains(t, body, `href="https://twitter.com/share"`)

		doc := app.parse(body)
		assert.Equal(t, "Hello | "+component.SiteTitle, doc.Find("title").Text())
		id, _ := doc.Find("." + component.ClassDetailForm + " article").Attr("id")
		assert.Equal(t, strconv.FormatInt(entry.ID, 10), id)
		assert.Equal(t, "Edit Post", doc.Find("#"+component.IDEditButton).Text())
		assert.Equal(t, 1, doc.Find("#"+component.IDSubmitButton).Length())
		value, _ := doc.Find(`.` + component.ClassEditForm + ` input[name="` + component.FieldID + `"]`).Attr("value")
		assert.Equal(t, id, value)
		assert.Equal(t, postMarkdown, doc.Find("#"+component.IDTextInput).Text())
	})

	t.Run("anonymous", func(t *testing.T) {
		anon := &testApp{t: t, srv: app.srv, client: http.DefaultClient, store: app.store}
		resp, body := anon.get(component.DetailURL(entry.ID))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		doc := anon.parse(body)
		assert.Zero(t, doc.Find("#"+component.IDEditButton).Length())
		assert.Zero(t, doc.Find("."+component.ClassEditForm).Length())
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "unknown", path: "/detail/999", status: http.StatusNotFound},
		{name: "zero", path: "/detail/0", status: http.StatusBadRequest},
		{name: "not a number", path: "/detail/abc", status: http.StatusNotFound},
		{name: "negative", path: "/detail/-1", status: http.StatusNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, body := app.get(test.path)
			assert.Equal(t, test.status, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
			doc := app.parse(body)
			assert.Equal(t, http.StatusText(test.status), doc.Find("section."+component.ClassError+" h1").Text())
		})
	}
}

func TestStorageFailure(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.login()
	token := app.csrfToken()
	require.NoError(t, app.store.Close())

	resp, body := app.get(component.PathHome)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	doc := app.parse(body)
	assert.Equal(t, internalErrorMessage, doc.Find("section."+component.ClassError+" p").First().Text())
	assert.NotContains(t, strings.ToLower(body), "sql")
	assert.NotContains(t, strings.ToLower(body), "closed")

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, app.srv.URL+component.PathAdd,
		strings.NewReader(url.Values{
			component.FieldTitle: {"Title"},
			component.FieldText:  {"Text"},
		}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(csrfHeader, token)
	resp, body = app.do(req)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"message":"`+internalErrorMessage+`"}`, body)
}

func TestStatic(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	resp, body := app.get("/static/highlight.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, body, ".chroma")

	resp, body = app.get("/static/journal.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, csrfHeader)

	resp, body = app.get("/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "User-agent")

	resp, _ = app.get("/static/missing.css")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
