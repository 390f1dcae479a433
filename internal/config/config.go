// Package config handles the XDG configuration directory, the config file
// and the service endpoints.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional YAML config filename.
	ConfigFile = "config.yaml"

	// StorageFile is the persisted client storage filename.
	StorageFile = "storage.json"

	// DefaultEnvFile is the dotenv file read from the working directory.
	DefaultEnvFile = ".env"

	// IdentityURLEnv overrides the identity service base URL.
	IdentityURLEnv = "TODO_IDENTITY_URL"

	// TaskURLEnv overrides the task service base URL.
	TaskURLEnv = "TODO_TASK_URL"
)

// ErrNoEndpoints is returned when a service base URL is not configured.
var ErrNoEndpoints = errors.New("service endpoints not configured")

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// IdentityURL is the identity service base URL.
	IdentityURL string

	// TaskURL is the task service base URL.
	TaskURL string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Offline is set for commands that only touch local session state;
	// the endpoints are then not required.
	Offline bool
}

type fileConfig struct {
	IdentityURL string `yaml:"identity_url"`
	TaskURL     string `yaml:"task_url"`
}

// Load creates a Config for configDir (or the default directory) and
// resolves the service endpoints from config.yaml, then envFile, then
// the process environment; later sources win. An empty envFile skips
// the dotenv step.
func Load(configDir, envFile string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	switch {
	case err == nil:
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
		c.IdentityURL = fc.IdentityURL
		c.TaskURL = fc.TaskURL
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		c.apply(vars[IdentityURLEnv], vars[TaskURLEnv])
	}
	c.apply(os.Getenv(IdentityURLEnv), os.Getenv(TaskURLEnv))

	return c, nil
}

func (c *Config) apply(identityURL, taskURL string) {
	if v := strings.TrimSpace(identityURL); v != "" {
		c.IdentityURL = v
	}
	if v := strings.TrimSpace(taskURL); v != "" {
		c.TaskURL = v
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// StoragePath returns the path to the persisted client storage file.
func (c *Config) StoragePath() string {
	return filepath.Join(c.Dir, StorageFile)
}

// RequireEndpoints checks that both service base URLs are set.
func (c *Config) RequireEndpoints() error {
	var missing []string
	if c.IdentityURL == "" {
		missing = append(missing, IdentityURLEnv)
	}
	if c.TaskURL == "" {
		missing = append(missing, TaskURLEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s or %s in %s", ErrNoEndpoints,
			strings.Join(missing, " and "), "identity_url/task_url", filepath.Join(c.Dir, ConfigFile))
	}
	return nil
}
