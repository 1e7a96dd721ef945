package store

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

const lockPollInterval = 100 * time.Millisecond

// Lock is an advisory lock held on the directory containing a document.
type Lock struct {
	dir     string
	release func() error
}

// Dir returns the locked directory.
func (l *Lock) Dir() string {
	return l.dir
}

// Unlock releases the lock. It is safe to call more than once.
func (l *Lock) Unlock() error {
	if l == nil || l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	return release()
}

// Lock takes an exclusive advisory lock on the directory holding path,
// waiting until ctx is done. A missing directory locks its nearest existing
// ancestor so bootstrap runs still serialize.
func (s *Store) Lock(ctx context.Context, path string) (*Lock, error) {
	dir := existingDir(filepath.Dir(path))
	for {
		release, err := tryLock(dir)
		if err == nil {
			s.logger.Debug().Str("dir", dir).Msg("acquired document lock")
			return &Lock{dir: dir, release: release}, nil
		}
		if !isContended(err) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, &lockedError{dir: dir, err: ctx.Err()}
		case <-time.After(lockPollInterval):
		}
	}
}

func existingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
