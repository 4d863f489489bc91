package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
)

// Substituted when the remote store is not configured, so remote calls fail
// through the normal error path instead of at startup.
const (
	PlaceholderProjectID = "placeholder-project"
	PlaceholderAPIKey    = "placeholder-key"
)

const (
	defaultConfigPath    = "~/.config/savvi/config.toml"
	defaultDataDir       = "~/.local/share/savvi"
	defaultListenAddr    = "127.0.0.1:7411"
	defaultResetRedirect = "http://localhost:3000/reset-password"
)

var projectIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)

type Config struct {
	ProjectID                string
	FirebaseAPIKey           string
	APIKeySecret             string
	KMSKeyName               string
	LogLevel                 string
	DataDir                  string
	ListenAddr               string
	ResetRedirectURL         string
	RequireEmailVerification bool
	MergePartialFetch        bool

	hasProjectID bool
	hasAPIKey    bool
}

// fileConfig mirrors the optional TOML file. Environment variables win over it.
type fileConfig struct {
	ProjectID                string `toml:"project_id"`
	FirebaseAPIKey           string `toml:"firebase_api_key"`
	APIKeySecret             string `toml:"api_key_secret"`
	KMSKeyName               string `toml:"kms_key_name"`
	LogLevel                 string `toml:"log_level"`
	DataDir                  string `toml:"data_dir"`
	ListenAddr               string `toml:"listen_addr"`
	ResetRedirectURL         string `toml:"reset_redirect_url"`
	RequireEmailVerification *bool  `toml:"require_email_verification"`
	MergePartialFetch        *bool  `toml:"merge_partial_fetch"`
}

// New reads configuration from the environment only.
func New() *Config {
	cfg := defaults()
	cfg.applyEnv()
	cfg.finish()
	return cfg
}

// Load layers defaults, the TOML file at path (default location when empty) and
// the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	resolved, err := expandPath(orDefault(path, defaultConfigPath))
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		var fc fileConfig
		if err := toml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		cfg.applyFile(fc)
	}

	cfg.applyEnv()
	cfg.finish()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LogLevel:         "info",
		DataDir:          defaultDataDir,
		ListenAddr:       defaultListenAddr,
		ResetRedirectURL: defaultResetRedirect,
	}
}

func (c *Config) applyFile(fc fileConfig) {
	c.ProjectID = orDefault(fc.ProjectID, c.ProjectID)
	c.FirebaseAPIKey = orDefault(fc.FirebaseAPIKey, c.FirebaseAPIKey)
	c.APIKeySecret = orDefault(fc.APIKeySecret, c.APIKeySecret)
	c.KMSKeyName = orDefault(fc.KMSKeyName, c.KMSKeyName)
	c.LogLevel = orDefault(fc.LogLevel, c.LogLevel)
	c.DataDir = orDefault(fc.DataDir, c.DataDir)
	c.ListenAddr = orDefault(fc.ListenAddr, c.ListenAddr)
	c.ResetRedirectURL = orDefault(fc.ResetRedirectURL, c.ResetRedirectURL)
	if fc.RequireEmailVerification != nil {
		c.RequireEmailVerification = *fc.RequireEmailVerification
	}
	if fc.MergePartialFetch != nil {
		c.MergePartialFetch = *fc.MergePartialFetch
	}
}

func (c *Config) applyEnv() {
	c.ProjectID = getEnv("PROJECTID", c.ProjectID)
	c.FirebaseAPIKey = getEnv("FIREBASEAPIKEY", c.FirebaseAPIKey)
	c.APIKeySecret = getEnv("APIKEYSECRET", c.APIKeySecret)
	c.KMSKeyName = getEnv("KMSKEYNAME", c.KMSKeyName)
	c.LogLevel = getEnv("LOGLEVEL", c.LogLevel)
	c.DataDir = getEnv("DATADIR", c.DataDir)
	c.ListenAddr = getEnv("LISTENADDR", c.ListenAddr)
	c.ResetRedirectURL = getEnv("RESETREDIRECTURL", c.ResetRedirectURL)
	c.RequireEmailVerification = getEnvBool("REQUIREEMAILVERIFICATION", c.RequireEmailVerification)
	c.MergePartialFetch = getEnvBool("MERGEPARTIALFETCH", c.MergePartialFetch)
}

func (c *Config) finish() {
	c.hasProjectID = strings.TrimSpace(c.ProjectID) != ""
	// A secret reference counts: the key is resolved at bootstrap.
	c.hasAPIKey = strings.TrimSpace(c.FirebaseAPIKey) != "" || strings.TrimSpace(c.APIKeySecret) != ""

	if !c.hasProjectID {
		c.ProjectID = PlaceholderProjectID
	}
	if strings.TrimSpace(c.FirebaseAPIKey) == "" {
		c.FirebaseAPIKey = PlaceholderAPIKey
	}
	c.DataDir = mustExpand(c.DataDir)
}

// Configured reports whether both remote settings were supplied.
func (c *Config) Configured() bool {
	return c.hasProjectID && c.hasAPIKey
}

func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "savvi.db")
}

func (c *Config) Diagnostics() dto.ConfigDiagnostics {
	id := c.ProjectID
	if len(id) > 20 {
		id = id[:20] + "..."
	}
	return dto.ConfigDiagnostics{
		HasProjectID:   c.hasProjectID,
		HasAPIKey:      c.hasAPIKey,
		ProjectIDValid: c.hasProjectID && projectIDPattern.MatchString(c.ProjectID),
		ProjectID:      id,
	}
}

// Validate checks the local settings. Missing remote settings are reported by
// Diagnostics, not here: the agent still runs offline without them.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.DataDir) == "" {
		problems = append(problems, "data directory cannot be empty")
	}
	if _, port, err := net.SplitHostPort(c.ListenAddr); err != nil {
		problems = append(problems, fmt.Sprintf("invalid listen address '%s': %v", c.ListenAddr, err))
	} else if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		problems = append(problems, fmt.Sprintf("invalid listen port '%s'", port))
	}
	if u, err := url.Parse(c.ResetRedirectURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("invalid reset redirect url '%s'", c.ResetRedirectURL))
	}
	if c.hasProjectID && !projectIDPattern.MatchString(c.ProjectID) {
		problems = append(problems, fmt.Sprintf("project id '%s' does not look like a Firebase project id", c.ProjectID))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
