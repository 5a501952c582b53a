package sec

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/journal/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.AuthSecret = "0123456789abcdef0123456789abcdef"
	cfg.SessionSecret = "fedcba9876543210fedcba9876543210"
	return cfg
}

func TestTickets(t *testing.T) {
	t.Parallel()

	cfg := testConfig()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		tickets := NewTickets(cfg)
		ticket, err := tickets.Issue("admin")
		require.NoError(t, err)
		ident, err := tickets.Verify(ticket)
		require.NoError(t, err)
		assert.Equal(t, Identity{Username: "admin"}, ident)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		tickets := NewTickets(cfg)
		issued := time.Now().Add(-2 * cfg.TicketLifetime)
		tickets.now = func() time.Time { return issued }
		ticket, err := tickets.Issue("admin")
		require.NoError(t, err)

		tickets.now = time.Now
		_, err = tickets.Verify(ticket)
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		ticket, err := NewTickets(cfg).Issue("admin")
		require.NoError(t, err)

		other := testConfig()
		other.AuthSecret = "another-secret-that-is-long-enough"
		_, err = NewTickets(other).Verify(ticket)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := NewTickets(cfg).Verify("not.a.ticket")
		require.Error(t, err)
	})

	t.Run("remember and forget", func(t *testing.T) {
		t.Parallel()
		tickets := NewTickets(cfg)

		rec := httptest.NewRecorder()
		require.NoError(t, tickets.Remember(rec, Identity{Username: "admin"}))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, TicketCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, int(cfg.TicketLifetime/time.Second), cookies[0].MaxAge)

		rec = httptest.NewRecorder()
		tickets.Forget(rec)
		cookies = rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	creds := NewCredentials("admin", nil)
	tickets := NewTickets(cfg)

	valid, err := tickets.Issue("admin")
	require.NoError(t, err)
	stranger, err := tickets.Issue("someone")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
		ok     bool
	}{
		{name: "no cookie"},
		{name: "valid", cookie: &http.Cookie{Name: TicketCookie, Value: valid}, ok: true},
		{name: "empty", cookie: &http.Cookie{Name: TicketCookie, Value: ""}},
		{name: "tampered", cookie: &http.Cookie{Name: TicketCookie, Value: valid + "x"}},
		{name: "other user", cookie: &http.Cookie{Name: TicketCookie, Value: stranger}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.cookie != nil {
				req.AddCookie(test.cookie)
			}
			ident, ok := Authenticate(req, creds, tickets)
			assert.Equal(t, test.ok, ok)
			if test.ok {
				assert.Equal(t, "admin", ident.Username)
			}
		})
	}
}

func TestNewAuthMiddleware(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	creds := NewCredentials("admin", nil)
	tickets := NewTickets(cfg)
	ticket, err := tickets.Issue("admin")
	require.NoError(t, err)

	var (
		ident Identity
		ok    bool
	)
	handler := NewAuthMiddleware(creds, tickets).Wrap(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ident, ok = GetAuthenticatedUser(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TicketCookie, Value: ticket})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ok)
	assert.Equal(t, Identity{Username: "admin"}, ident)
}

func TestSetAuthenticatedUser(t *testing.T) {
	t.Parallel()

	_, ok := GetAuthenticatedUser(t.Context())
	assert.False(t, ok)

	ctx := SetAuthenticatedUser(t.Context(), Identity{Username: "admin"})
	ident, ok := GetAuthenticatedUser(ctx)
	assert.True(t, ok)
	assert.Equal(t, "admin", ident.Username)
}
