// Package httputil provides the HTTP plumbing used by the download-page
// crawler.
//
// # Overview
//
//   - [Client]: GET requests with a browser User-Agent, a redirect cap and
//     status mapping ([ErrNotFound], [ErrNetwork])
//   - [Retry]: retry with exponential backoff for [RetryableError]s
//
// # Retry
//
// Transport failures and 5xx responses are wrapped in [RetryableError];
// everything else fails immediately:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err = client.Get(ctx, url)
//	    return err
//	})
//
// [Client.Get] already retries internally, so callers rarely need [Retry]
// directly.
//
// # Redirects
//
// [Response.URL] holds the final URL after redirects. The crawler compares
// it with the request URL to decide whether to walk the destination.
package httputil
