// ABOUTME: Configuration management for accounts and data directories
// ABOUTME: Builds the account manager, opening one store per configured account

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/reader/internal/account"
	"github.com/harper/reader/internal/backend"
	"github.com/harper/reader/internal/backend/stream"
	"github.com/harper/reader/internal/models"
	"github.com/harper/reader/internal/storage"
)

// Config stores reader configuration.
type Config struct {
	// DataDir is the root directory for per-account databases.
	// Supports ~ expansion. Defaults to ~/.local/share/reader.
	DataDir string `json:"data_dir,omitempty"`

	// Accounts lists the configured accounts. A missing list gets a
	// single local account on first run.
	Accounts []models.AccountMeta `json:"accounts"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// AccountByName finds a configured account by name or ID.
func (c *Config) AccountByName(name string) (*models.AccountMeta, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name || c.Accounts[i].ID == name {
			return &c.Accounts[i], true
		}
	}
	return nil, false
}

// AddAccount appends an account, rejecting duplicate names.
func (c *Config) AddAccount(meta models.AccountMeta) error {
	if _, exists := c.AccountByName(meta.Name); exists {
		return fmt.Errorf("account %q already exists", meta.Name)
	}
	c.Accounts = append(c.Accounts, meta)
	return nil
}

// RemoveAccount drops an account from the config by name or ID. The
// account's database on disk is left alone.
func (c *Config) RemoveAccount(name string) error {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name || c.Accounts[i].ID == name {
			c.Accounts = append(c.Accounts[:i], c.Accounts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("account %q not found", name)
}

// OpenStore opens the SQLite database for one account.
func (c *Config) OpenStore(meta models.AccountMeta) (storage.Store, error) {
	dir := c.GetDataDir()
	if err := os.MkdirAll(dir, DefaultDirPerms); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dir, meta.ID+".db")
	return storage.NewSQLiteStore(dbPath)
}

// BuildManager opens every configured account and wires its backend.
func (c *Config) BuildManager(logger *log.Logger) (*account.Manager, error) {
	mgr := account.NewManager()
	for _, meta := range c.Accounts {
		store, err := c.OpenStore(meta)
		if err != nil {
			mgr.Close()
			return nil, fmt.Errorf("open account %s: %w", meta.Name, err)
		}
		a, err := account.New(meta, store, logger)
		if err != nil {
			store.Close()
			mgr.Close()
			return nil, fmt.Errorf("load account %s: %w", meta.Name, err)
		}

		switch meta.Type {
		case models.AccountLocal:
			a.SetBackend(backend.NewLocal())
		case models.AccountCloud:
			a.SetBackend(backend.NewCloud(backend.NewCharmKV()))
		case models.AccountStream:
			password := os.Getenv("READER_PASSWORD_" + strings.ToUpper(strings.ReplaceAll(meta.Name, " ", "_")))
			if password == "" {
				password = os.Getenv("READER_PASSWORD")
			}
			a.SetBackend(stream.New(meta.EndpointURL, meta.Username, password))
		default:
			store.Close()
			mgr.Close()
			return nil, fmt.Errorf("account %s: unknown type %q", meta.Name, meta.Type)
		}
		mgr.Add(a)
	}
	return mgr, nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "reader", "config.json")
}

// Load reads config from disk, creating a default single-account
// config on first run.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultFirstRunConfig()
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Accounts) == 0 {
		cfg.Accounts = defaultFirstRunConfig().Accounts
	}
	return &cfg, nil
}

// Save writes config to disk atomically.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerms); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// defaultDataDir returns the standard XDG data directory for reader.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "reader")
}

// defaultFirstRunConfig returns a config with a single local account.
func defaultFirstRunConfig() *Config {
	return &Config{
		Accounts: []models.AccountMeta{
			{
				ID:     uuid.New().String(),
				Type:   models.AccountLocal,
				Name:   "On My Machine",
				Active: true,
			},
		},
	}
}
