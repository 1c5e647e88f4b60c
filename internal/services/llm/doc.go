// Package llm provides an OpenAI-compatible chat-completions client that
// returns JSON payloads. The translation package drives it to translate
// subtitle batches.
//
// # Configuration
//
// Requires api_key and model; base_url defaults to OpenRouter. Referer and
// title are forwarded as OpenRouter attribution headers when set.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 4
// attempts by default). A Retry-After header overrides the computed delay.
// Context cancellation aborts retries immediately.
//
// # Pacing
//
// WithRequestsPerMinute installs a token-bucket limiter so long transcripts
// do not trip provider rate limits.
package llm
