package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// URI scheme for account configuration strings.
const accountURIScheme = "greenchoice"

// AccountConfig describes one upstream account the adapter polls.
// Each account gets its own credentials, session, and reading cache;
// nothing is shared across accounts.
type AccountConfig struct {
	// Name display label used as the published entity id
	Name string `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	// Username login name for the upstream portal
	Username string `yaml:"username" toml:"username" json:"username"`
	// Password login secret for the upstream portal
	Password string `yaml:"password" toml:"password" json:"password"`
	// PollInterval optional per-account override of the scheduled interval
	PollInterval time.Duration `yaml:"poll-interval,omitempty" toml:"poll-interval,omitempty" json:"poll-interval,omitempty"`
	// SnapshotURI optional storage URI for persisting the cached state
	// across restarts, e.g. localfs:///var/lib/adapter or s3://bucket/prefix
	SnapshotURI string `yaml:"snapshot-uri,omitempty" toml:"snapshot-uri,omitempty" json:"snapshot-uri,omitempty"`
}

// DefaultAccountName is used when no display label is configured.
const DefaultAccountName = "energy_consumption"

// Validate checks the account configuration for startup errors.
// Missing credentials are rejected here so the poll cycle never runs
// with an unusable account.
func (ac *AccountConfig) Validate() error {
	if ac.Username == "" {
		return fmt.Errorf("account %q: username cannot be empty", ac.displayName())
	}
	if ac.Password == "" {
		return fmt.Errorf("account %q: password cannot be empty", ac.displayName())
	}
	return nil
}

func (ac *AccountConfig) displayName() string {
	if ac.Name != "" {
		return ac.Name
	}
	return DefaultAccountName
}

// EntityName returns the configured display label, falling back to the
// default when unset.
func (ac *AccountConfig) EntityName() string {
	return ac.displayName()
}

// NewAccountFromURI creates an AccountConfig from a URI string.
// URI format: greenchoice://user:password@?[parameters]
// Examples:
//   - greenchoice://jdoe:s3cret@?name=home&poll-interval=30m
//   - greenchoice://jdoe:s3cret@?snapshot-uri=localfs:///var/lib/adapter
//
// Supported parameters: name, poll-interval, snapshot-uri
func NewAccountFromURI(uriStr string) (*AccountConfig, error) {
	parsedURL, err := url.Parse(uriStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URI: %w", err)
	}

	if !strings.EqualFold(parsedURL.Scheme, accountURIScheme) {
		return nil, fmt.Errorf("unsupported URI scheme: %s", parsedURL.Scheme)
	}

	account := &AccountConfig{}
	if parsedURL.User != nil {
		account.Username = parsedURL.User.Username()
		if password, ok := parsedURL.User.Password(); ok {
			account.Password = password
		}
	}

	queryParams := parsedURL.Query()
	if name := queryParams.Get("name"); name != "" {
		account.Name = name
	}
	if interval := queryParams.Get("poll-interval"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid poll-interval %q: %w", interval, err)
		}
		account.PollInterval = d
	}
	if snapshotURI := queryParams.Get("snapshot-uri"); snapshotURI != "" {
		account.SnapshotURI = snapshotURI
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

// ToURI converts the AccountConfig back to its URI string form.
// The password is included; callers are responsible for keeping the
// result out of logs.
func (ac *AccountConfig) ToURI() string {
	var uri strings.Builder
	params := make(url.Values)

	uri.WriteString(accountURIScheme)
	uri.WriteString("://")
	uri.WriteString(url.UserPassword(ac.Username, ac.Password).String())
	uri.WriteString("@")

	if ac.Name != "" {
		params.Set("name", ac.Name)
	}
	if ac.PollInterval > 0 {
		params.Set("poll-interval", ac.PollInterval.String())
	}
	if ac.SnapshotURI != "" {
		params.Set("snapshot-uri", ac.SnapshotURI)
	}

	if len(params) > 0 {
		uri.WriteString("?")
		uri.WriteString(params.Encode())
	}

	return uri.String()
}

// AccountsFile is the on-disk layout for multi-account configuration.
type AccountsFile struct {
	Accounts []AccountConfig `yaml:"accounts" toml:"accounts" json:"accounts"`
}

// LoadAccountsFile reads account configuration from a YAML or TOML file,
// selected by extension. Every account is validated before the list is
// returned.
func LoadAccountsFile(path string) ([]AccountConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file AccountsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}

	if len(file.Accounts) == 0 {
		return nil, fmt.Errorf("config file %s contains no accounts", path)
	}
	for i := range file.Accounts {
		if err := file.Accounts[i].Validate(); err != nil {
			return nil, err
		}
	}

	return file.Accounts, nil
}
