package sec

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/stolasapp/journal/internal/config"
)

const flashSession = "journal_flash"

// Flashes stores one-shot messages in a signed session cookie so they survive
// a redirect.
type Flashes struct {
	store *sessions.CookieStore
}

// NewFlashes creates Flashes signed with the configured session secret.
func NewFlashes(cfg *config.Config) *Flashes {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   !cfg.DevMode,
		SameSite: http.SameSiteLaxMode,
	}
	return &Flashes{store: store}
}

// Add queues msg to be shown on the next rendered page.
func (f *Flashes) Add(w http.ResponseWriter, r *http.Request, msg string) error {
	// a stale or tampered cookie yields a fresh session alongside the error
	sess, _ := f.store.Get(r, flashSession)
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save flash: %w", err)
	}
	return nil
}

// Pop returns and clears any queued messages.
func (f *Flashes) Pop(w http.ResponseWriter, r *http.Request) []string {
	sess, err := f.store.Get(r, flashSession)
	if err != nil {
		return nil
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	_ = sess.Save(r, w)
	msgs := make([]string, 0, len(flashes))
	for _, flash := range flashes {
		if msg, ok := flash.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
