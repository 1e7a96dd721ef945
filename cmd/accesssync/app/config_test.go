package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/identity"
)

// isolate points the config lookup at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(constants.ConfigPathEnv, "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "m365-config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

// TestLoadConfig verifies the defaults.
func TestLoadConfig(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Group != constants.DefaultGroupName {
		t.Errorf("Group = %q, want %q", config.Group, constants.DefaultGroupName)
	}
	if config.HandleAttribute != constants.DefaultExternalHandleAttribute {
		t.Errorf("HandleAttribute = %q, want %q", config.HandleAttribute, constants.DefaultExternalHandleAttribute)
	}
	if config.DocumentPath != constants.DefaultDocumentPath {
		t.Errorf("DocumentPath = %q, want %q", config.DocumentPath, constants.DefaultDocumentPath)
	}
	if config.Directory != "graph" {
		t.Errorf("Directory = %q, want graph", config.Directory)
	}
	if !config.StrictLookup {
		t.Error("StrictLookup should default to true")
	}
	if config.SyncTimeout != constants.SyncTimeout {
		t.Errorf("SyncTimeout = %v, want %v", config.SyncTimeout, constants.SyncTimeout)
	}
	if config.DefaultGroups != nil || config.DefaultSudoCommands != nil {
		t.Error("unset lists should stay nil")
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_File verifies reading an explicit config file.
func TestConfig_File(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `{
  "tenant_id": "tenant",
  "client_id": "client",
  "client_secret": "secret",
  "it_group_name": "Platform",
  "github_username_field": "extensionAttribute2",
  "default_sudo_access": "full",
  "default_groups": [],
  "default_sudo_commands": ["/usr/bin/systemctl"],
  "user_mapping_file": "/tmp/mapping.json",
  "sync_timeout": "90s"
}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}
	if config.TenantID != "tenant" || config.ClientID != "client" || config.ClientSecret != "secret" {
		t.Errorf("credentials not loaded: %+v", config)
	}
	if config.Group != "Platform" {
		t.Errorf("Group = %q, want Platform", config.Group)
	}
	if config.SyncTimeout != 90*time.Second {
		t.Errorf("SyncTimeout = %v, want 90s", config.SyncTimeout)
	}
	if config.DefaultGroups == nil || len(config.DefaultGroups) != 0 {
		t.Errorf("DefaultGroups = %#v, want empty list", config.DefaultGroups)
	}

	builder, err := config.BuilderConfig()
	if err != nil {
		t.Fatalf("BuilderConfig() failed: %v", err)
	}
	if builder.Tier != access.TierFull {
		t.Errorf("Tier = %q, want full", builder.Tier)
	}
	if len(builder.Groups) != 0 {
		t.Errorf("Groups = %v, want none", builder.Groups)
	}
	if len(builder.Commands) != 1 || builder.Commands[0] != "/usr/bin/systemctl" {
		t.Errorf("Commands = %v", builder.Commands)
	}

	dc := config.DirectoryConfig()
	if len(dc.Attributes) != 1 || dc.Attributes[0] != "extensionAttribute2" {
		t.Errorf("Attributes = %v", dc.Attributes)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

// TestConfig_EnvPath verifies the M365_CONFIG_PATH lookup.
func TestConfig_EnvPath(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `{"it_group_name": "From Env"}`)
	t.Setenv(constants.ConfigPathEnv, path)

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Group != "From Env" {
		t.Errorf("Group = %q, want From Env", config.Group)
	}
}

// TestConfig_MissingExplicitFile verifies that a named file must exist.
func TestConfig_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := LoadConfig(filepath.Join(dir, "absent.json"))
	if !errors.IsConfigError(err) {
		t.Fatalf("LoadConfig() error = %v, want config error", err)
	}
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	isolate(t)
	t.Setenv("IT_GROUP_NAME", "Env Team")
	t.Setenv("DIRECTORY", "file")
	t.Setenv("ROSTER_FILE", "/tmp/roster.yaml")
	t.Setenv("STRICT_LOOKUP", "false")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Group != "Env Team" {
		t.Errorf("Group = %q, want Env Team", config.Group)
	}
	if config.Directory != "file" || config.RosterFile != "/tmp/roster.yaml" {
		t.Errorf("directory = %q roster = %q", config.Directory, config.RosterFile)
	}
	if config.StrictLookup {
		t.Error("STRICT_LOOKUP=false not applied")
	}
}

// TestConfig_Validate verifies the configuration checks.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "file directory",
			config: Config{Directory: "file", RosterFile: "/tmp/roster.yaml", Group: "IT-Team", DocumentPath: "/tmp/m.json"},
		},
		{
			name:    "graph without credentials",
			config:  Config{Directory: "graph", Group: "IT-Team", DocumentPath: "/tmp/m.json"},
			wantErr: true,
		},
		{
			name:    "unknown directory",
			config:  Config{Directory: "okta", Group: "IT-Team", DocumentPath: "/tmp/m.json"},
			wantErr: true,
		},
		{
			name:    "bad sudo tier",
			config:  Config{Directory: "file", RosterFile: "/tmp/r.yaml", DefaultSudoAccess: "root", Group: "IT-Team", DocumentPath: "/tmp/m.json"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			config:  Config{Directory: "file", RosterFile: "/tmp/r.yaml", SyncTimeout: -time.Second, Group: "IT-Team", DocumentPath: "/tmp/m.json"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_UpdateFromFlags verifies flag precedence.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" || config.LogLevel != "warn" {
		t.Error("empty flags should keep configured values")
	}

	config.UpdateFromFlags(false, false, false, "json", "debug")
	if config.Format != "json" || config.LogLevel != "debug" {
		t.Errorf("Format = %q LogLevel = %q", config.Format, config.LogLevel)
	}
}

// TestConfig_EmptySudoCommands verifies an explicit empty list grants no
// commands instead of the built-in list.
func TestConfig_EmptySudoCommands(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `{"default_sudo_commands": [], "default_groups": []}`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.DefaultSudoCommands == nil || len(config.DefaultSudoCommands) != 0 {
		t.Fatalf("DefaultSudoCommands = %#v, want empty list", config.DefaultSudoCommands)
	}

	cfg, err := config.BuilderConfig()
	if err != nil {
		t.Fatalf("BuilderConfig() failed: %v", err)
	}
	builder, err := access.NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder() failed: %v", err)
	}

	entry := builder.Build(identity.Resolved{LoginHandle: "bobsmith", ExternalHandle: "bobgh"}, time.Now())
	if entry.Tier != access.TierLimited {
		t.Errorf("Tier = %q, want limited", entry.Tier)
	}
	if len(entry.Commands) != 0 {
		t.Errorf("Commands = %v, want none", entry.Commands)
	}
	if len(entry.Groups) != 0 {
		t.Errorf("Groups = %v, want none", entry.Groups)
	}
}
