package app

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/stolasapp/journal/internal/app/component"
	"github.com/stolasapp/journal/internal/content"
	"github.com/stolasapp/journal/internal/sec"
	"github.com/stolasapp/journal/internal/storage"
	"github.com/stolasapp/journal/internal/storage/db"
)

type handler struct {
	entries storage.Entries
	creds   *sec.Credentials
	tickets *sec.Tickets
	flashes *sec.Flashes
	logger  *slog.Logger
}

func (h handler) register(e *echo.Echo, limiter echo.MiddlewareFunc) {
	e.GET(component.PathHome, h.home)
	e.GET("/detail/:id", h.detail)

	e.GET(component.PathLogin, h.loginForm)
	e.POST(component.PathLogin, h.login, limiter)
	e.GET(component.PathLogout, h.logout)
	e.POST(component.PathLogout, h.logout)

	e.POST(component.PathAdd, h.add, h.requireAdmin)
	e.POST(component.PathEdit, h.edit, h.requireAdmin)

	e.GET("/static/highlight.css", h.highlightCSS)
}

func (h handler) home(c echo.Context) error {
	entries, err := h.entries.ListEntries(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	views := make([]component.Entry, 0, len(entries))
	for _, entry := range entries {
		view, err := toView(entry)
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	return render(c, http.StatusOK, component.Home(h.page(c, true), views))
}

func (h handler) detail(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}
	entry, err := h.entries.GetEntry(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	view, err := toView(entry)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, component.Detail(h.page(c, true), view))
}

func (h handler) loginForm(c echo.Context) error {
	return render(c, http.StatusOK, component.Login(h.page(c, true), "", ""))
}

func (h handler) login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return err
	}

	ident, err := h.creds.Check(form.Username, form.Password)
	if err != nil {
		h.logger.InfoContext(c.Request().Context(), "failed login attempt",
			slog.String("username", form.Username),
			slog.String("ip", c.RealIP()),
		)
		// failed logins re-render the form rather than returning an error status
		return render(c, http.StatusOK, component.Login(h.page(c, false), form.Username, loginFailedMessage))
	}

	if err = h.tickets.Remember(c.Response(), ident); err != nil {
		return err
	}
	if err = h.flashes.Add(c.Response(), c.Request(), "Welcome back, "+ident.Username+"!"); err != nil {
		h.logger.WarnContext(c.Request().Context(), "failed to store flash", slog.Any("error", err))
	}
	return c.Redirect(http.StatusFound, component.PathHome)
}

func (h handler) logout(c echo.Context) error {
	_, wasAuthenticated := sec.GetAuthenticatedUser(c.Request().Context())
	h.tickets.Forget(c.Response())
	if wasAuthenticated {
		if err := h.flashes.Add(c.Response(), c.Request(), "You have been logged out."); err != nil {
			h.logger.WarnContext(c.Request().Context(), "failed to store flash", slog.Any("error", err))
		}
	}
	return c.Redirect(http.StatusFound, component.PathHome)
}

func (h handler) add(c echo.Context) error {
	var form addForm
	if err := bindForm(c, &form); err != nil {
		return err
	}
	entry, err := h.entries.CreateEntry(c.Request().Context(), form.Title, form.Text)
	if err != nil {
		return toHTTPError(err)
	}
	h.logger.InfoContext(c.Request().Context(), "created entry", slog.Int64("id", entry.ID))
	return entryJSON(c, entry)
}

func (h handler) edit(c echo.Context) error {
	var form editForm
	if err := bindForm(c, &form); err != nil {
		return err
	}
	entry, err := h.entries.UpdateEntry(c.Request().Context(), form.ID, form.Title, form.Text)
	if err != nil {
		return toHTTPError(err)
	}
	h.logger.InfoContext(c.Request().Context(), "updated entry", slog.Int64("id", entry.ID))
	return entryJSON(c, entry)
}

func (h handler) highlightCSS(c echo.Context) error {
	css, err := content.HighlightCSS()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", css)
}

// requireAdmin rejects anonymous requests before the handler touches the
// store.
func (h handler) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := sec.GetAuthenticatedUser(c.Request().Context()); !ok {
			return toHTTPError(sec.ErrForbidden)
		}
		return next(c)
	}
}

// page collects the state shared by every page. Flashes are only consumed
// when the page will display them.
func (h handler) page(c echo.Context, withFlashes bool) component.Page {
	var page component.Page
	if ident, ok := sec.GetAuthenticatedUser(c.Request().Context()); ok {
		page.User = ident.Username
	}
	if token, ok := c.Get(csrfContextKey).(string); ok {
		page.CSRFToken = token
	}
	if withFlashes {
		page.Flashes = h.flashes.Pop(c.Response(), c.Request())
	}
	return page
}

const loginFailedMessage = "Invalid username or password."

// entryResponse is the JSON view of an entry returned by add and edit. Only
// the rendered HTML of the text is exposed.
type entryResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	Created string `json:"created"`
}

func entryJSON(c echo.Context, entry db.Entry) error {
	view, err := toView(entry)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entryResponse{
		ID:      view.ID,
		Title:   view.Title,
		Text:    view.HTML,
		Created: view.CreatedDate(),
	})
}

func toView(entry db.Entry) (component.Entry, error) {
	html, err := content.Render(entry.Text)
	if err != nil {
		return component.Entry{}, echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return component.Entry{
		ID:      entry.ID,
		Title:   entry.Title,
		HTML:    html,
		Source:  entry.Text,
		Created: entry.Created,
	}, nil
}

// parseID accepts only unsigned decimal IDs.
func parseID(param string) (int64, error) {
	for _, r := range param {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(param, 10, 64)
}

// toHTTPError converts an error to an Echo HTTPError with the appropriate
// HTTP status code. Storage failures keep their cause as the internal error
// so it is logged but never shown.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}

	// Already an HTTP error - pass through
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "entry not found")
	case errors.Is(err, sec.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "you must be logged in to do that")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}

var renderBufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// render writes comp as the HTML response with status. The component is
// rendered into a buffer first so that a failure can still produce an error
// page.
func render(c echo.Context, status int, comp templ.Component) error {
	buf := renderBufferPool.Get().(*bytes.Buffer) //nolint:forcetypeassert // guaranteed by impl
	defer renderBufferPool.Put(buf)
	buf.Reset()

	if err := comp.Render(c.Request().Context(), buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}
