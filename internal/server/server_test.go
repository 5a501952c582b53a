package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/stolasapp/journal/internal/config"
)

func TestServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	grp, ctx := errgroup.WithContext(ctx)

	listener, err := Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { //nolint:gosec // Serve() sets timeouts
		_, _ = io.WriteString(w, "ok")
	})}
	timeouts := TimeoutsFrom(config.Default())
	Serve(ctx, grp, srv, listener, timeouts)

	assert.Equal(t, timeouts.Read, srv.ReadTimeout)
	assert.Equal(t, ReadHeaderTimeout, srv.ReadHeaderTimeout)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://"+listener.Addr().String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))

	cancel()
	done := make(chan error, 1)
	go func() { done <- grp.Wait() }()
	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(timeouts.Shutdown):
		t.Fatal("server did not shut down")
	}
}
