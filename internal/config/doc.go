// Package config handles loading and validation of whohas configuration.
//
// Configuration is read from ~/.config/whohas/config.toml with environment
// variable overrides for the most commonly scripted settings.
//
// # Configuration Sources (highest priority first)
//
//   - WHOHAS_API_URL env var: dashboard API base URL
//   - WHOHAS_DIR env var: state directory (cache blob, watchlist, history)
//   - WHOHAS_TIMEOUT env var: per-request deadline
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - api_url: base URL of the inventory dashboard API
//   - request_timeout: deadline for a single API request
//   - cache.ttl / cache.max_entries: lookup cache freshness and capacity
//   - cache.dir: state directory (must be absolute or ~/...)
//   - preload.*: scheduler pacing and circuit breaker tuning
//
// Durations are written as strings ("250ms", "10m") and parsed with
// time.ParseDuration.
//
// # Path Validation
//
// cache.dir must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
//
// The effective Config travels with the command context via WithContext
// and FromContext; commands never re-read the file.
package config
