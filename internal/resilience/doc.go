// Package resilience provides reliability and fault tolerance patterns for the application.
// Its subpackages implement circuit breakers and retry logic
// to ensure system resilience in the face of failures.
//
// The package supports:
//   - Circuit breakers for external calls (feed fetching)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchFeed(url)
//	})
//
//	retryConfig := retry.DefaultConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
