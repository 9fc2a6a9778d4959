package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Semior001/tagfeed/app/config"
	"github.com/Semior001/tagfeed/pkg/logx"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when the page could not be fetched
// even after all retries.
var ErrUnavailable = errors.New("page is unavailable")

// errUnexpectedStatus indicates a response with a non-2xx status.
var errUnexpectedStatus = errors.New("unexpected status code")

const maxBodySize = 10 << 20

// Fetcher downloads pages, keeping a fixed minimal delay between the end
// of a request and the start of the next one, and retrying transient
// failures with growing delays. Fetcher is not safe for concurrent use.
type Fetcher struct {
	log     *slog.Logger
	rq      *requester.Requester
	delay   time.Duration
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	pages   cache.Cache[string, []byte]
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFetcher makes a new Fetcher from the fetch configuration.
func NewFetcher(lg *slog.Logger, cfg config.FetchConfig) *Fetcher {
	rq := requester.New(
		http.Client{Timeout: cfg.Timeout},
		middleware.Header("User-Agent", cfg.UserAgent),
		middleware.Header("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"),
		middleware.Header("Accept-Language", cfg.AcceptLanguage),
		logx.LoggingRoundTripper(lg, logx.RoundTripperOpts{
			Level:         slog.LevelDebug,
			SecretHeaders: []string{"Cookie", "Set-Cookie"},
		}),
	)

	return &Fetcher{
		log:     lg,
		rq:      rq,
		delay:   cfg.Delay,
		limiter: newLimiter(cfg.Delay),
		retries: cfg.Retries,
		backoff: 2 * cfg.Delay,
		pages: cache.NewCache[string, []byte]().
			WithLRU().
			WithMaxKeys(256).
			WithTTL(15 * time.Minute),
		sleep: sleepCtx,
	}
}

// newLimiter makes a limiter which lets one request through per delay.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// cooldown makes the next request wait for the delay counted from doneAt,
// however long the previous request took.
func (f *Fetcher) cooldown(doneAt time.Time) {
	f.limiter = newLimiter(f.delay)
	f.limiter.AllowN(doneAt, 1)
}

// Fetch returns the body of the page. Pages fetched before are served
// from memory. If the page can't be fetched after all retries, the
// returned error wraps ErrUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, u string) ([]byte, error) {
	if body, ok := f.pages.Get(u); ok {
		f.log.DebugCtx(ctx, "page served from cache", slog.String("url", u))
		return body, nil
	}

	var lastErr error
	for attempt := 1; attempt <= f.retries; attempt++ {
		if attempt > 1 {
			delay := f.retryDelay(attempt)
			f.log.WarnCtx(ctx, "retrying fetch",
				slog.String("url", u),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", f.retries),
				slog.Duration("delay", delay),
				slog.Any("err", lastErr),
			)
			if err := f.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("wait before retry: %w", err)
			}
		}

		body, retryable, err := f.fetchOnce(ctx, u)
		f.cooldown(time.Now())
		if err == nil {
			f.pages.Set(u, body, 0)
			return body, nil
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", u, ctx.Err())
		}

		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, u, lastErr)
}

// retryDelay returns the delay before the given attempt, doubling for
// every consecutive retry.
func (f *Fetcher) retryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return f.backoff * time.Duration(1<<(attempt-2))
}

func (f *Fetcher) fetchOnce(ctx context.Context, u string) (body []byte, retryable bool, err error) {
	if err = f.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.rq.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	if body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize)); err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	return body, false, nil
}

// isRetryableStatus determines if the request should be retried based on
// the response status code.
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
