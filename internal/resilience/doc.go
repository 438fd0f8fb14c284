// Package resilience provides fault tolerance patterns for remote and storage calls.
//
// Subpackages:
//   - circuitbreaker: gobreaker wrapper with presets for NewsAPI, RSS feeds and the local store
//   - retry: exponential backoff with jitter, Retry-After handling and retryable-error classification
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.NewsAPIConfig())
//	err := retry.WithBackoff(ctx, retry.NewsAPIConfig(3), func() error {
//	    return cb.Run(func() error { return fetch(ctx) })
//	})
package resilience
