package store

import "os"

// WithSyncFile replaces the temp file flush used by Commit.
func WithSyncFile(fn func(*os.File) error) Option {
	return func(s *Store) { s.syncFile = fn }
}
