package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// validSchemes lists the URL schemes accepted for api_url.
var validSchemes = []string{"http", "https"}

// validate checks the effective configuration after file and env
// overrides have been applied.
func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an absolute http(s) URL", c.APIURL)
	}
	if err := validateEnum(u.Scheme, "api_url scheme", validSchemes); err != nil {
		return err
	}

	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}

	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1, got %d", c.Cache.MaxEntries)
	}
	if err := ValidatePath(c.Cache.Dir, "cache.dir"); err != nil {
		return err
	}

	if c.Preload.BatchSize < 1 {
		return fmt.Errorf("preload.batch_size must be at least 1, got %d", c.Preload.BatchSize)
	}
	if c.Preload.ItemDelay.Duration < 0 {
		return fmt.Errorf("preload.item_delay must not be negative, got %s", c.Preload.ItemDelay)
	}
	if c.Preload.BatchDelay.Duration < 0 {
		return fmt.Errorf("preload.batch_delay must not be negative, got %s", c.Preload.BatchDelay)
	}
	if c.Preload.FailureThreshold < 1 {
		return fmt.Errorf("preload.failure_threshold must be at least 1, got %d", c.Preload.FailureThreshold)
	}
	if c.Preload.Retries < 0 {
		return fmt.Errorf("preload.retries must not be negative, got %d", c.Preload.Retries)
	}

	return nil
}

// validateEnum checks that value (if non-empty) is one of the allowed values.
// Returns a formatted error mentioning the field name and allowed options.
func validateEnum(value, field string, allowed []string) error {
	if value == "" {
		return nil
	}
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q: must be %s", field, value, formatOptions(allowed))
	}
	return nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
