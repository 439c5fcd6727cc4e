package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nbexit/pkg/logger"
	"nbexit/res"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"
)

// ErrIncomplete means credentials are missing or malformed before any
// request was attempted.
var ErrIncomplete = errors.New("NetBird API credentials are not configured")

const keyringUser = "access_token"

// API holds the credentials for the NetBird management service.
// Environment variables win over the config file; the OS keyring is the
// last resort for the token.
type API struct {
	URL         string `toml:"api_url" env:"NETBIRD_API_URL" env-description:"NetBird management API base URL"`
	AccessToken string `toml:"access_token" env:"NETBIRD_ACCESS_TOKEN" env-description:"NetBird API access token"`
}

type Tray struct {
	RefreshSeconds int `toml:"refresh_seconds" env:"NBEXIT_TRAY_REFRESH" env-default:"60" env-description:"Tray status refresh interval in seconds"`
}

type Config struct {
	API                   API           `toml:"api"`
	Logger                logger.Config `toml:"logger"`
	Tray                  Tray          `toml:"tray"`
	RequestTimeoutSeconds int           `toml:"request_timeout_seconds" env:"NBEXIT_REQUEST_TIMEOUT" env-default:"30" env-description:"API request timeout in seconds"`
}

// New loads the configuration: an optional .env file, then the TOML
// config file (if present), with environment variables taking
// precedence, and finally the OS keyring for a still-missing token.
// skipConfig ignores the file and uses the environment only.
func New(configPath string, skipConfig bool) (*Config, error) {
	_ = godotenv.Load()

	if configPath == "" {
		configPath = DefaultPath()
	}

	cfg := &Config{}
	var err error
	if _, statErr := os.Stat(configPath); skipConfig || statErr != nil {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}

	if cfg.API.AccessToken == "" {
		if token, kerr := keyring.Get(res.KeyringService, keyringUser); kerr == nil {
			cfg.API.AccessToken = token
		}
	}

	return cfg, nil
}

// Validate checks that the credentials are usable before any request is
// attempted. Failures wrap ErrIncomplete.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("%w: api_url is missing (set NETBIRD_API_URL or run 'nbexit config set')", ErrIncomplete)
	}
	if !strings.HasPrefix(c.API.URL, "http://") && !strings.HasPrefix(c.API.URL, "https://") {
		return fmt.Errorf("%w: api_url must start with http:// or https://, got %q", ErrIncomplete, c.API.URL)
	}
	if c.API.AccessToken == "" {
		return fmt.Errorf("%w: access token is missing (set NETBIRD_ACCESS_TOKEN or run 'nbexit config set')", ErrIncomplete)
	}
	return nil
}

func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) TrayRefresh() time.Duration {
	if c.Tray.RefreshSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Tray.RefreshSeconds) * time.Second
}

// DefaultPath is the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, res.AppName, "config.toml")
}

// Save writes credentials to the config file, preserving unrelated
// settings already in it. The token goes to the OS keyring when one is
// available and is then kept out of the file; the returned flag reports
// which of the two happened.
func Save(configPath, apiURL, accessToken string) (tokenInKeyring bool, err error) {
	if configPath == "" {
		configPath = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return false, fmt.Errorf("unable to create config dir: %w", err)
	}

	// Re-read the raw file rather than the resolved config so
	// environment values never get baked into it.
	cfg := &Config{}
	if raw, rerr := os.ReadFile(configPath); rerr == nil {
		if derr := toml.Unmarshal(raw, cfg); derr != nil {
			return false, fmt.Errorf("existing config file is malformed: %w", derr)
		}
	}

	cfg.API.URL = strings.TrimRight(apiURL, "/")
	if kerr := keyring.Set(res.KeyringService, keyringUser, accessToken); kerr == nil {
		tokenInKeyring = true
		cfg.API.AccessToken = ""
	} else {
		cfg.API.AccessToken = accessToken
	}

	b, err := toml.Marshal(cfg)
	if err != nil {
		return tokenInKeyring, fmt.Errorf("unable to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, b, 0o600); err != nil {
		return tokenInKeyring, fmt.Errorf("unable to write config file: %w", err)
	}
	return tokenInKeyring, nil
}

// MaskToken renders a token safe for terminal output.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return "***"
	}
	return token[:8] + "..." + token[len(token)-4:]
}
