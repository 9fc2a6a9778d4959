package logx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pkgz/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestChain_RunID(t *testing.T) {
	buf := &bytes.Buffer{}
	lg := slog.New(&Chain{
		Middleware: []Middleware{RunID},
		Handler:    slog.HandlerOptions{}.NewTextHandler(buf),
	})

	ctx := ContextWithRunID(context.Background(), "run-1")
	lg.With(slog.String("prefix", "test")).InfoCtx(ctx, "hello")
	assert.Contains(t, buf.String(), "run_id=run-1")
	assert.Contains(t, buf.String(), "prefix=test")

	buf.Reset()
	lg.InfoCtx(context.Background(), "no id")
	assert.NotContains(t, buf.String(), "run_id")
}

func TestRunIDFromContext(t *testing.T) {
	_, ok := RunIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := RunIDFromContext(ContextWithRunID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestLoggingRoundTripper(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Secret", "value")
		_, err := w.Write([]byte("response body that is long enough"))
		require.NoError(t, err)
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(buf))

	rq := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{
		Level:         slog.LevelDebug,
		SecretHeaders: []string{"X-Secret"},
		TrimBodyAt:    8,
	}))

	req, err := http.NewRequest(http.MethodGet, ts.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := rq.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "response body that is long enough", string(body), "body must be readable after logging")

	out := buf.String()
	assert.Contains(t, out, "request sent")
	assert.Contains(t, out, "response received")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "X-Secret:value")
}

func TestLoggingRoundTripper_Disabled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	buf := &bytes.Buffer{}
	lg := slog.New(slog.HandlerOptions{Level: slog.LevelInfo}.NewTextHandler(buf))

	rq := requester.New(http.Client{}, LoggingRoundTripper(lg, RoundTripperOpts{Level: slog.LevelDebug}))
	req, err := http.NewRequest(http.MethodGet, ts.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := rq.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Empty(t, buf.String())
}
