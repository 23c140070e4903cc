// Package fetch downloads single release assets over HTTP on behalf of the
// sandboxed resolver, which has no network access of its own.
//
// # Failure Taxonomy
//
// Every non-2xx response is reported as an *HTTPError whose Kind is decided
// strictly by status code, in this order:
//   - 404: KindNotFound
//   - 403, 429: KindRateLimited (RetryAfter filled from response headers)
//   - 500-599: KindServerError
//   - anything else: KindGeneric
//
// A transfer that outlives its wall-clock budget fails with *TimeoutError,
// which is deliberately outside the HTTP taxonomy.
//
// # Retry-After
//
// RetryAfter is resolved from, in priority order: a Retry-After header with
// delay seconds, a Retry-After header with an HTTP date, an X-RateLimit-Reset
// header with Unix epoch seconds. Malformed values count as absent.
//
// # Usage
//
//	client := fetch.NewClient()
//	err := client.DownloadFile(ctx, url, dest, func(p fetch.Progress) {
//	    fmt.Printf("%d/%d\n", p.Current, p.Total)
//	}, 30*time.Second)
//
//	var httpErr *fetch.HTTPError
//	if errors.As(err, &httpErr) && httpErr.Kind == fetch.KindRateLimited {
//	    // respect httpErr.RetryAfter
//	}
//
// No partially written destination file is left behind on any failure path:
// bodies stream into a sibling ".part" file that is renamed into place only
// after the full body has been received.
package fetch
