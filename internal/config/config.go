package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/Ruutuli/whohas/internal/storage"
)

// Duration wraps time.Duration so config values can be written as
// strings like "250ms" or "10m".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string. Used by both the TOML
// decoder and the env override parser.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration back as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL        Duration `toml:"ttl" json:"ttl"`
	MaxEntries int      `toml:"max_entries" json:"max_entries"`
	Dir        string   `toml:"dir" env:"WHOHAS_DIR" json:"dir,omitempty"` // optional state directory override
}

// PreloadConfig holds preload scheduler configuration
type PreloadConfig struct {
	BatchSize        int      `toml:"batch_size" json:"batch_size"`
	ItemDelay        Duration `toml:"item_delay" json:"item_delay"`
	BatchDelay       Duration `toml:"batch_delay" json:"batch_delay"`
	FailureThreshold int      `toml:"failure_threshold" json:"failure_threshold"`
	Retries          int      `toml:"retries" json:"retries"`
}

// Config holds the whohas configuration
type Config struct {
	APIURL         string        `toml:"api_url" env:"WHOHAS_API_URL" json:"api_url"`
	RequestTimeout Duration      `toml:"request_timeout" env:"WHOHAS_TIMEOUT" json:"request_timeout"`
	Cache          CacheConfig   `toml:"cache" json:"cache"`
	Preload        PreloadConfig `toml:"preload" json:"preload"`
}

// DefaultAPIURL is where the dashboard API listens when run locally.
const DefaultAPIURL = "http://localhost:5001"

// Default returns the default configuration
func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: Duration{8 * time.Second},
		Cache: CacheConfig{
			TTL:        Duration{10 * time.Minute},
			MaxEntries: 200,
		},
		Preload: PreloadConfig{
			BatchSize:        3,
			ItemDelay:        Duration{250 * time.Millisecond},
			BatchDelay:       Duration{1500 * time.Millisecond},
			FailureThreshold: 3,
			Retries:          1,
		},
	}
}

// StateDir resolves the state directory: cache.dir when configured
// (WHOHAS_DIR is folded into it by the env overrides), otherwise
// ~/.whohas. The directory is created if needed.
func (c *Config) StateDir() (string, error) {
	if c.Cache.Dir == "" {
		return storage.Dir()
	}
	dir, err := expandPath(c.Cache.Dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	// Allow ~ paths
	if len(path) >= 1 && path[0] == '~' {
		return nil
	}
	// Must be absolute
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the config file location (~/.config/whohas/config.toml).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "whohas", "config.toml"), nil
}

// Load reads config from ~/.config/whohas/config.toml and applies env
// overrides (WHOHAS_API_URL, WHOHAS_DIR, WHOHAS_TIMEOUT).
// Returns Default() if the file doesn't exist (no error)
// Returns error only if the file or an override is invalid
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return loadFrom(path)
}

func loadFrom(path string) (Config, error) {
	// Absent keys keep their defaults; the decoder only touches what
	// the file sets.
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file, defaults apply.
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Env beats file beats defaults.
	if err := env.Parse(&cfg); err != nil {
		return Default(), fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Default(), err
	}

	return cfg, nil
}

const defaultConfig = `# whohas configuration

# Base URL of the inventory dashboard API.
# Override per invocation with WHOHAS_API_URL.
# api_url = "http://localhost:5001"

# Deadline for a single API request ("8s", "500ms", ...).
# Override with WHOHAS_TIMEOUT.
# request_timeout = "8s"

# Lookup cache settings
#
# [cache]
# ttl = "10m"          # how long a cached lookup stays fresh
# max_entries = 200    # capacity; the oldest entry is evicted first
#
# State directory holding the cache blob, watchlist, lookup history
# and preload state. Must be absolute or start with ~.
# Override with WHOHAS_DIR.
# dir = "~/.whohas"

# Preload scheduler settings
#
# The API rate-limits aggressively, so preloading fetches in small
# batches with generous pauses. Raise these numbers at your own risk.
#
# [preload]
# batch_size = 3            # keys fetched per batch
# item_delay = "250ms"      # minimum spacing between consecutive fetches
# batch_delay = "1500ms"    # pause between batches
# failure_threshold = 3     # consecutive failures before preloading trips
# retries = 1               # extra attempts per key before it counts as failed
`

// Init creates a default config file at ~/.config/whohas/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	// Check if file already exists (skip if force)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	// Create directory
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// Write default config
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", err
	}

	return path, nil
}
