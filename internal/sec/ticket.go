package sec

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stolasapp/journal/internal/config"
)

// TicketCookie is the name of the cookie holding the auth ticket.
const TicketCookie = "auth_tkt"

const ticketIssuer = "journal"

// Identity is the authenticated user resolved from an auth ticket.
type Identity struct {
	Username string
}

// Tickets issues and verifies signed auth tickets and manages the cookie that
// carries them.
type Tickets struct {
	secret   []byte
	lifetime time.Duration
	secure   bool
	now      func() time.Time
}

// NewTickets creates Tickets signed with the configured auth secret.
func NewTickets(cfg *config.Config) *Tickets {
	return &Tickets{
		secret:   []byte(cfg.AuthSecret),
		lifetime: cfg.TicketLifetime,
		secure:   !cfg.DevMode,
		now:      time.Now,
	}
}

// Issue signs a ticket for username that expires after the configured
// lifetime.
func (t *Tickets) Issue(username string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    ticketIssuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a ticket and returns the
// identity it was issued to.
func (t *Tickets) Verify(ticket string) (Identity, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(ticket, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid ticket: %w", err)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("invalid ticket: %w", jwt.ErrTokenInvalidSubject)
	}
	return Identity{Username: claims.Subject}, nil
}

// Remember issues a ticket for ident and sets it as a cookie on w.
func (t *Tickets) Remember(w http.ResponseWriter, ident Identity) error {
	ticket, err := t.Issue(ident.Username)
	if err != nil {
		return err
	}
	http.SetCookie(w, t.cookie(ticket, int(t.lifetime/time.Second)))
	return nil
}

// Forget clears the ticket cookie. It is safe to call for anonymous users.
func (t *Tickets) Forget(w http.ResponseWriter) {
	http.SetCookie(w, t.cookie("", -1))
}

func (t *Tickets) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     TicketCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
