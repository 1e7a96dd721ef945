package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/accesssync"
	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/sync"
)

// Configuration keys, as they appear in the config file.
const (
	KeyGroup            = "it_group_name"
	KeyHandleAttribute  = "github_username_field"
	KeySudoAccess       = "default_sudo_access"
	KeyGroups           = "default_groups"
	KeySudoCommands     = "default_sudo_commands"
	KeyDocument         = "user_mapping_file"
	KeyDirectory        = "directory"
	KeyTenantID         = "tenant_id"
	KeyClientID         = "client_id"
	KeyClientSecret     = "client_secret"
	KeyGraphBaseURL     = "graph_base_url"
	KeyLDAPURL          = "ldap_url"
	KeyLDAPBindDN       = "ldap_bind_dn"
	KeyLDAPBindPassword = "ldap_bind_password"
	KeyLDAPBaseDN       = "ldap_base_dn"
	KeyLDAPPageSize     = "ldap_page_size"
	KeyLDAPNested       = "ldap_nested_groups"
	KeyRosterFile       = "roster_file"
	KeyStrictLookup     = "strict_lookup"
	KeyHTTPTimeout      = "http_timeout"
	KeySyncTimeout      = "sync_timeout"
	KeyVerbose          = "verbose"
	KeyQuiet            = "quiet"
	KeyNoColor          = "no_color"
	KeyFormat           = "format"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	NoColor  bool
	Format   string
	LogLevel string

	// Config file
	ConfigFile string

	// Sync configuration
	Group               string
	HandleAttribute     string
	DefaultSudoAccess   string
	DefaultGroups       []string
	DefaultSudoCommands []string
	DocumentPath        string
	StrictLookup        bool
	SyncTimeout         time.Duration

	// Directory configuration
	Directory        string
	TenantID         string
	ClientID         string
	ClientSecret     string
	GraphBaseURL     string
	LDAPURL          string
	LDAPBindDN       string
	LDAPBindPassword string
	LDAPBaseDN       string
	LDAPPageSize     int
	LDAPNested       bool
	RosterFile       string
	HTTPTimeout      time.Duration

	// Logging configuration
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (configFile, $M365_CONFIG_PATH or /etc/ssh-key-manager/m365-config.json)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	explicit := configFile != ""
	if !explicit {
		if env := os.Getenv(constants.ConfigPathEnv); env != "" {
			configFile = env
			explicit = true
		} else {
			configFile = constants.DefaultConfigPath
		}
	}
	v.SetConfigFile(configFile)

	// A missing default file is fine; a named one must exist and parse.
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configFile); explicit || statErr == nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	}

	config := &Config{
		Verbose: v.GetBool(KeyVerbose),
		Quiet:   v.GetBool(KeyQuiet),
		NoColor: v.GetBool(KeyNoColor),
		Format:  v.GetString(KeyFormat),

		ConfigFile: v.ConfigFileUsed(),

		Group:             v.GetString(KeyGroup),
		HandleAttribute:   v.GetString(KeyHandleAttribute),
		DefaultSudoAccess: v.GetString(KeySudoAccess),
		DocumentPath:      v.GetString(KeyDocument),
		StrictLookup:      v.GetBool(KeyStrictLookup),
		SyncTimeout:       v.GetDuration(KeySyncTimeout),

		Directory:        v.GetString(KeyDirectory),
		TenantID:         v.GetString(KeyTenantID),
		ClientID:         v.GetString(KeyClientID),
		ClientSecret:     v.GetString(KeyClientSecret),
		GraphBaseURL:     v.GetString(KeyGraphBaseURL),
		LDAPURL:          v.GetString(KeyLDAPURL),
		LDAPBindDN:       v.GetString(KeyLDAPBindDN),
		LDAPBindPassword: v.GetString(KeyLDAPBindPassword),
		LDAPBaseDN:       v.GetString(KeyLDAPBaseDN),
		LDAPPageSize:     v.GetInt(KeyLDAPPageSize),
		LDAPNested:       v.GetBool(KeyLDAPNested),
		RosterFile:       v.GetString(KeyRosterFile),
		HTTPTimeout:      v.GetDuration(KeyHTTPTimeout),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	// Unset lists fall back to the builder defaults; an explicit empty
	// list means none.
	if v.IsSet(KeyGroups) {
		config.DefaultGroups = nonNil(v.GetStringSlice(KeyGroups))
	}
	if v.IsSet(KeySudoCommands) {
		config.DefaultSudoCommands = nonNil(v.GetStringSlice(KeySudoCommands))
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyGroup, constants.DefaultGroupName)
	v.SetDefault(KeyHandleAttribute, constants.DefaultExternalHandleAttribute)
	v.SetDefault(KeySudoAccess, string(access.TierLimited))
	v.SetDefault(KeyDocument, constants.DefaultDocumentPath)
	v.SetDefault(KeyDirectory, string(directory.KindGraph))
	v.SetDefault(KeyLDAPPageSize, constants.DefaultLDAPPageSize)
	v.SetDefault(KeyStrictLookup, true)
	v.SetDefault(KeyHTTPTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeySyncTimeout, constants.SyncTimeout)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// BuilderConfig returns the entry builder configuration.
func (c *Config) BuilderConfig() (access.BuilderConfig, error) {
	cfg := access.DefaultBuilderConfig()
	if c.DefaultSudoAccess != "" {
		tier, err := access.ParseTier(c.DefaultSudoAccess)
		if err != nil {
			return cfg, err
		}
		cfg.Tier = tier
	}
	if c.DefaultGroups != nil {
		cfg.Groups = c.DefaultGroups
	}
	if c.DefaultSudoCommands != nil {
		cfg.Commands = c.DefaultSudoCommands
	}
	return cfg, nil
}

// DirectoryConfig returns the directory client configuration.
func (c *Config) DirectoryConfig() accesssync.DirectoryConfig {
	cfg := accesssync.DirectoryConfig{
		Kind:             directory.Kind(c.Directory),
		TenantID:         c.TenantID,
		ClientID:         c.ClientID,
		ClientSecret:     c.ClientSecret,
		GraphBaseURL:     c.GraphBaseURL,
		HTTPTimeout:      c.HTTPTimeout,
		LDAPURL:          c.LDAPURL,
		LDAPBindDN:       c.LDAPBindDN,
		LDAPBindPassword: c.LDAPBindPassword,
		LDAPBaseDN:       c.LDAPBaseDN,
		LDAPNested:       c.LDAPNested,
		RosterFile:       c.RosterFile,
	}
	if c.LDAPPageSize > 0 {
		cfg.LDAPPageSize = uint32(c.LDAPPageSize)
	}
	if c.HandleAttribute != "" {
		cfg.Attributes = []string{c.HandleAttribute}
	}
	return cfg
}

// SyncOptions returns the run defaults.
func (c *Config) SyncOptions() []sync.Option {
	return []sync.Option{
		sync.WithDocumentPath(c.DocumentPath),
		sync.WithGroup(c.Group),
		sync.WithStrictLookup(c.StrictLookup),
		sync.WithTimeout(c.SyncTimeout),
	}
}

// Validate checks the configuration without contacting the directory.
func (c *Config) Validate() error {
	kind := directory.Kind(strings.ToLower(c.Directory))
	if !kind.IsValid() {
		return &errors.ValidationError{
			Field:   KeyDirectory,
			Value:   c.Directory,
			Message: "must be one of graph, ldap, file",
		}
	}
	builder, err := c.BuilderConfig()
	if err != nil {
		return err
	}
	if _, err := access.NewBuilder(builder); err != nil {
		return err
	}
	if err := sync.Defaults().Apply(c.SyncOptions()...).Validate(); err != nil {
		return err
	}
	if _, err := accesssync.NewDirectory(c.DirectoryConfig()); err != nil {
		return err
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// Variables already set in the environment are kept
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
