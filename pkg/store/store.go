// Package store loads and durably commits access documents.
//
// A commit first renames the current document to a timestamped backup, then
// writes the new document to a temporary file in the same directory and
// renames it into place. Backups are never removed.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/constants"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/logging"
)

// Store reads and writes access documents on the local filesystem.
type Store struct {
	logger *zerolog.Logger
	format *Format
	mode   fs.FileMode

	// syncFile flushes the temp file before it is renamed into place.
	syncFile func(*os.File) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFormat forces a format instead of choosing one by extension.
func WithFormat(format Format) Option {
	return func(s *Store) {
		if format.IsValid() {
			s.format = &format
		}
	}
}

// WithFileMode sets the mode of newly created documents. Existing documents
// keep their mode.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{
		logger:   logging.NewNopLogger(),
		mode:     constants.FilePermissions,
		syncFile: (*os.File).Sync,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CommitResult describes a completed commit.
type CommitResult struct {
	Path   string `json:"path" yaml:"path"`
	Backup string `json:"backup,omitempty" yaml:"backup,omitempty"`
	Bytes  int    `json:"bytes" yaml:"bytes"`
	Digest string `json:"digest" yaml:"digest"`
}

// Format returns the format used for path.
func (s *Store) Format(path string) Format {
	if s.format != nil {
		return *s.format
	}
	return FormatFor(path)
}

// Load reads the document at path. A missing file yields the default
// document; anything unreadable or unparseable is a
// *errors.MalformedDocumentError.
func (s *Store) Load(path string) (*access.Document, error) {
	format := s.Format(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info().Str("path", path).Msg("no access document found, starting from defaults")
			return access.NewDocument(), nil
		}
		return nil, &errors.MalformedDocumentError{Path: path, Format: format.String(), Err: err}
	}

	doc, err := Decode(data, format)
	if err != nil {
		return nil, &errors.MalformedDocumentError{Path: path, Format: format.String(), Err: err}
	}

	s.logger.Debug().
		Str("path", path).
		Int("entries", len(doc.Entries)).
		Msg("loaded access document")
	return doc, nil
}

// Commit backs up the document at path, if any, and writes doc in its place.
// Once the backup exists every failure is a *errors.PersistenceError naming
// it; the backup is the recovery artifact and nothing is rolled back.
func (s *Store) Commit(path string, doc *access.Document, runAt time.Time) (*CommitResult, error) {
	data, err := Encode(doc, s.Format(path))
	if err != nil {
		return nil, &errors.PersistenceError{Operation: "encode", Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, &errors.PersistenceError{Operation: "mkdir", Path: path, Err: err}
	}

	// The digest covers the JSON form whatever the on-disk format.
	digest, err := Digest(doc)
	if err != nil {
		return nil, &errors.PersistenceError{Operation: "encode", Path: path, Err: err}
	}

	mode := s.mode
	result := &CommitResult{Path: path, Bytes: len(data), Digest: digest}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		mode = info.Mode().Perm()
		backup, err := nextBackup(path, runAt)
		if err != nil {
			return nil, &errors.PersistenceError{Operation: "backup", Path: path, Err: err}
		}
		if err := os.Rename(path, backup); err != nil {
			return nil, &errors.PersistenceError{Operation: "backup", Path: path, Err: err}
		}
		result.Backup = backup
		s.logger.Info().Str("backup", backup).Msg("created backup")
	case !os.IsNotExist(err):
		return nil, &errors.PersistenceError{Operation: "stat", Path: path, Err: err}
	}

	if err := s.writeAtomic(path, data, mode); err != nil {
		err.Backup = result.Backup
		return nil, err
	}

	s.logger.Info().
		Str("path", path).
		Int("bytes", result.Bytes).
		Str("digest", result.Digest).
		Msg("access document committed")
	return result, nil
}

// writeAtomic writes data to a temp file beside path, syncs it and renames it
// into place.
func (s *Store) writeAtomic(path string, data []byte, mode fs.FileMode) *errors.PersistenceError {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &errors.PersistenceError{Operation: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	fail := func(op string, err error) *errors.PersistenceError {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &errors.PersistenceError{Operation: op, Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail("chmod", err)
	}
	if err := s.syncFile(tmp); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("close", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &errors.PersistenceError{Operation: "rename", Path: path, Err: err}
	}
	syncDir(dir)
	return nil
}

// syncDir flushes directory metadata so the renames survive a crash.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// lockedError reports a lock that could not be acquired in time.
type lockedError struct {
	dir string
	err error
}

func (e *lockedError) Error() string {
	return fmt.Sprintf("access document directory %s is locked by another run: %v", e.dir, e.err)
}

func (e *lockedError) Unwrap() error { return e.err }

func (e *lockedError) Is(target error) bool { return target == errors.ErrLocked }
