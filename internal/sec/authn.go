package sec

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/authn"
)

// Authenticate resolves the identity from the ticket cookie on req. The
// boolean is false for anonymous requests, including those carrying an
// expired or tampered ticket.
func Authenticate(req *http.Request, creds *Credentials, tickets *Tickets) (Identity, bool) {
	cookie, err := req.Cookie(TicketCookie)
	if err != nil || cookie.Value == "" {
		return Identity{}, false
	}
	ident, err := tickets.Verify(cookie.Value)
	if err != nil {
		slog.DebugContext(req.Context(), "ignoring auth ticket", slog.Any("error", err))
		return Identity{}, false
	}
	if ident.Username != creds.Username() {
		return Identity{}, false
	}
	return ident, true
}

// NewAuthMiddleware returns an authentication middleware that attaches the
// [Identity] of logged in users to the request context. Anonymous requests
// are passed through unchanged.
func NewAuthMiddleware(creds *Credentials, tickets *Tickets) *authn.Middleware {
	return authn.NewMiddleware(func(_ context.Context, req *http.Request) (any, error) {
		if ident, ok := Authenticate(req, creds, tickets); ok {
			return ident, nil
		}
		return nil, nil //nolint:nilnil // anonymous access is allowed
	})
}

// GetAuthenticatedUser returns the identity of the logged in user. The
// boolean is false if the context has no authenticated user.
func GetAuthenticatedUser(ctx context.Context) (Identity, bool) {
	ident, ok := authn.GetInfo(ctx).(Identity)
	return ident, ok
}

// SetAuthenticatedUser sets the identity of an authenticated user. The
// authn.Middleware automatically injects this information; this function is
// provided as a convenience for testing.
func SetAuthenticatedUser(ctx context.Context, ident Identity) context.Context {
	return authn.SetInfo(ctx, ident)
}
