// Package resilience groups the fault tolerance helpers used by the outbound adapters:
// the essay page fetch, the translation APIs, and the notification webhooks.
//
//   - circuitbreaker stops hammering a dependency that keeps failing
//   - retry repeats transient failures with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.PageFetchConfig())
//	html, err := circuitbreaker.Do(cb, func() (string, error) {
//	    return render(ctx, url)
//	})
//
//	err := retry.WithBackoff(ctx, retry.TranslationAPIConfig(), func() error {
//	    return translate(ctx)
//	})
package resilience
