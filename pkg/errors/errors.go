// Package errors provides custom error types for the accesssync system.
// Each batch-level failure of a sync run has its own type so the CLI can
// report which phase failed, and per-record failures can be told apart from
// fatal ones with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the accesssync system
var (
	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a missing or malformed run configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAuthentication indicates the directory credential exchange failed
	ErrAuthentication = errors.New("authentication failed")

	// ErrLookup indicates a directory group or member lookup failed
	ErrLookup = errors.New("directory lookup failed")

	// ErrGroupNotFound indicates the configured group does not exist in the directory
	ErrGroupNotFound = errors.New("group not found")

	// ErrMissingExternalHandle indicates a directory record lacks the mapping attribute
	ErrMissingExternalHandle = errors.New("missing external handle")

	// ErrMalformedDocument indicates the persisted access document could not be parsed
	ErrMalformedDocument = errors.New("malformed access document")

	// ErrPersistence indicates the backup or write of the access document failed
	ErrPersistence = errors.New("persistence failed")

	// ErrLocked indicates another run holds the document lock
	ErrLocked = errors.New("document locked")
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigError represents a configuration error. It is fatal and is raised
// before any directory contact.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// APIError represents an error response from a directory API
type APIError struct {
	Directory  string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Directory, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Directory, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents a failed credential exchange with the directory
type AuthenticationError struct {
	Directory string
	Method    string // "client_credentials", "simple_bind", ...
	Message   string
	Err       error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Directory != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Directory, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(directory, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{
		Directory: directory,
		Method:    method,
		Message:   message,
		Err:       err,
	}
}

// LookupError represents a group-not-found or member-fetch failure.
// Callers treat it as "zero members" and still reconcile.
type LookupError struct {
	Directory string
	Group     string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *LookupError) Error() string {
	msg := fmt.Sprintf("lookup of group %q in %s failed", e.Group, e.Directory)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// NewLookupError creates a new LookupError
func NewLookupError(directory, group, message string, err error) *LookupError {
	return &LookupError{
		Directory: directory,
		Group:     group,
		Message:   message,
		Err:       err,
	}
}

// NewGroupNotFoundError creates a LookupError for a group the directory does not know.
func NewGroupNotFoundError(directory, group string) *LookupError {
	return &LookupError{
		Directory: directory,
		Group:     group,
		Err:       ErrGroupNotFound,
	}
}

// MissingExternalHandleError is the per-record soft failure raised when a
// directory record has no value for the configured mapping attribute.
type MissingExternalHandleError struct {
	DirectoryID   string
	PrincipalName string
	DisplayName   string
	Attribute     string
}

// Error implements the error interface
func (e *MissingExternalHandleError) Error() string {
	who := e.PrincipalName
	if who == "" {
		who = e.DirectoryID
	}
	return fmt.Sprintf("no %s value for %s (%s)", e.Attribute, e.DisplayName, who)
}

// Is implements errors.Is support
func (e *MissingExternalHandleError) Is(target error) bool {
	return target == ErrMissingExternalHandle
}

// MalformedDocumentError represents an access document that exists but
// cannot be read or parsed. Overwriting it blindly would lose data.
type MalformedDocumentError struct {
	Path   string
	Format string
	Err    error
}

// Error implements the error interface
func (e *MalformedDocumentError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("malformed %s access document %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("malformed access document %s: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// PersistenceError represents a failed backup or write of the access document.
// Backup names the most recent backup, which is the recovery artifact.
type PersistenceError struct {
	Operation string // "backup", "write", "sync", "rename"
	Path      string
	Backup    string
	Err       error
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Backup != "" {
		return fmt.Sprintf("persistence error during %s of %s (backup kept at %s): %v", e.Operation, e.Path, e.Backup, e.Err)
	}
	return fmt.Sprintf("persistence error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// SyncError names the phase of a sync run that failed
type SyncError struct {
	Phase string // "configure", "load", "authenticate", "lookup", "lock", "commit"
	Group string
	Err   error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("sync of group %q failed during %s: %v", e.Group, e.Phase, e.Err)
	}
	return fmt.Sprintf("sync failed during %s: %v", e.Phase, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(phase, group string, err error) *SyncError {
	return &SyncError{
		Phase: phase,
		Group: group,
		Err:   err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", ...
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsAuthentication checks if an error is an authentication failure
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsLookup checks if an error is a directory lookup failure
func IsLookup(err error) bool {
	return errors.Is(err, ErrLookup)
}

// IsMissingExternalHandle checks if an error is a per-record missing handle
func IsMissingExternalHandle(err error) bool {
	return errors.Is(err, ErrMissingExternalHandle)
}

// IsMalformedDocument checks if an error marks an unparseable access document
func IsMalformedDocument(err error) bool {
	return errors.Is(err, ErrMalformedDocument)
}

// IsPersistence checks if an error is a backup or write failure
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   err.Error(),
		Err:       err,
	}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{
		Format:  format,
		File:    file,
		Message: err.Error(),
		Err:     err,
	}
}
