package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultUserAgent mimics a desktop browser. Several mirror sites serve
// a stripped page, or nothing at all, to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRedirects = 10
	maxBodySize         = 16 << 20
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and non-200 responses.
	ErrNetwork = errors.New("network error")

	// ErrTooManyRedirects is returned when a redirect chain exceeds the
	// client's limit.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Options configures a [Client]. Zero values select defaults.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRedirects int
	// Attempts is the number of tries for retryable failures.
	Attempts int
	// Delay is the initial backoff between attempts.
	Delay time.Duration
}

// Client performs GET requests for the crawler.
type Client struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	// URL is the final location after following redirects.
	URL         *url.URL
	ContentType string
	Body        []byte
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	limit := opts.MaxRedirects
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > limit {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		headers:  map[string]string{"User-Agent": opts.UserAgent},
		attempts: opts.Attempts,
		delay:    opts.Delay,
	}
}

// Get fetches rawURL and returns the body. Only a 200 response is a
// success. Transport errors and 5xx responses are retried.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var resp *Response
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		resp, err = c.do(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return &Response{
		URL:         resp.Request.URL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
