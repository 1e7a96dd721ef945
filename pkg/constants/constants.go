// Package constants provides shared constants used throughout the accesssync codebase.
// This includes timeouts, file permissions, default paths and the defaults
// applied to synced access entries.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to directory APIs
	DefaultHTTPTimeout = 30 * time.Second

	// DialTimeout is the timeout for establishing LDAP connections
	DialTimeout = 10 * time.Second

	// SyncTimeout is the timeout for a whole sync run
	SyncTimeout = 10 * time.Minute

	// ShutdownTimeout bounds cleanup after a failed command
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for run log files, which name directory users (rw-------)
	SecureFilePermissions = 0600
)

// Path constants
const (
	// DefaultConfigPath is where the run configuration is read from
	DefaultConfigPath = "/etc/ssh-key-manager/m365-config.json"

	// DefaultDocumentPath is the default location of the access document
	DefaultDocumentPath = "/etc/ssh-key-manager/user-mapping.json"

	// ConfigPathEnv overrides DefaultConfigPath
	ConfigPathEnv = "M365_CONFIG_PATH"

	// BackupInfix separates the document path from the backup timestamp
	BackupInfix = ".backup."
)

// Directory defaults
const (
	// DefaultGroupName is the directory group synced when none is configured
	DefaultGroupName = "IT-Team"

	// DefaultExternalHandleAttribute is the record attribute holding the remote handle
	DefaultExternalHandleAttribute = "extensionAttribute1"

	// DefaultLDAPPageSize is the page size for paged LDAP searches
	DefaultLDAPPageSize = 500

	// GraphBaseURL is the Microsoft Graph v1.0 endpoint
	GraphBaseURL = "https://graph.microsoft.com/v1.0"

	// GraphLoginURL is the Microsoft identity platform authority
	GraphLoginURL = "https://login.microsoftonline.com"

	// GraphScope is the client-credentials scope for Microsoft Graph
	GraphScope = "https://graph.microsoft.com/.default"
)

// Document defaults
const (
	// DefaultShell is the login shell recorded in new documents
	DefaultShell = "/bin/bash"

	// DefaultGroup is the primary group recorded in new documents
	DefaultGroup = "users"

	// DefaultHomeBase is the parent of user home directories in new documents
	DefaultHomeBase = "/home"
)

// Format constants
const (
	// TimeFormatBackup is the sortable timestamp used in backup file names
	TimeFormatBackup = "20060102_150405"

	// TimeFormatLegacy is the zone-less ISO form written by earlier sync tooling
	TimeFormatLegacy = "2006-01-02T15:04:05.999999999"
)
