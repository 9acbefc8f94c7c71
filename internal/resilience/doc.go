// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic to keep
// announcement webhooks and startup probes from cascading failures.
//
// The package supports:
//   - Circuit breakers for announcement webhooks (Discord, Slack)
//   - Retry logic with exponential backoff and jitter for startup probes
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.WebhookConfig("discord-webhook"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return nil, postWebhook()
//	})
//
//	retryConfig := retry.DBConnectConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return db.PingContext(ctx)
//	})
package resilience
