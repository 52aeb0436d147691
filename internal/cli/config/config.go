package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName    = "listctl"
	fileName   = "config.json"
	dirPerms   = 0700
	filePerms  = 0600
	DefaultURL = "http://localhost:8080"

	// TokenPrefix marks shared-lists API keys; session JWTs are never stored.
	TokenPrefix = "sl_"

	EnvConfigPath = "LISTCTL_CONFIG"
	EnvServerURL  = "LISTCTL_SERVER_URL"
	EnvToken      = "LISTCTL_TOKEN"
)

var ErrInvalidToken = errors.New("token must be a shared-lists API key starting with " + TokenPrefix)

// Config holds persisted CLI configuration.
type Config struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token,omitempty"`
}

// Path returns the config file location: $LISTCTL_CONFIG when set,
// otherwise listctl/config.json under the user config dir.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads the config file, then applies LISTCTL_SERVER_URL and
// LISTCTL_TOKEN on top. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg, err := readFile()
	if err != nil {
		return nil, err
	}

	if url := strings.TrimSpace(os.Getenv(EnvServerURL)); url != "" {
		cfg.ServerURL = url
	}
	if token := strings.TrimSpace(os.Getenv(EnvToken)); token != "" {
		if err := ValidateToken(token); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvToken, err)
		}
		cfg.Token = token
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultURL
	}
	return cfg, nil
}

func readFile() (*Config, error) {
	cfg := &Config{}
	p, err := Path()
	if err != nil {
		return cfg, nil
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return cfg, nil
}

// ValidateToken accepts only API keys; an empty token is allowed and
// means "signed out".
func ValidateToken(token string) error {
	if token == "" {
		return nil
	}
	if !strings.HasPrefix(token, TokenPrefix) || len(token) == len(TokenPrefix) {
		return ErrInvalidToken
	}
	return nil
}

// Save writes the config to disk, creating the directory if needed.
func Save(cfg *Config) error {
	if err := ValidateToken(cfg.Token); err != nil {
		return err
	}
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, filePerms)
}

// Clear removes the config file.
func Clear() error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Config) HasToken() bool {
	return c.Token != ""
}
