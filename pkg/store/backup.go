package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/agentstation/accesssync/pkg/constants"
)

// BackupName returns the backup path for path at t.
func BackupName(path string, t time.Time) string {
	return path + constants.BackupInfix + t.Format(constants.TimeFormatBackup)
}

// nextBackup returns the first unused backup name for path at t, adding a
// numeric suffix when a backup from the same second exists.
func nextBackup(path string, t time.Time) (string, error) {
	base := BackupName(path, t)
	name := base
	for n := 1; ; n++ {
		_, err := os.Lstat(name)
		if os.IsNotExist(err) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		name = base + "." + strconv.Itoa(n)
	}
}

// Backups lists the backups of path, oldest first.
func (s *Store) Backups(path string) ([]string, error) {
	matches, err := filepath.Glob(globEscape(path) + constants.BackupInfix + "*")
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		return backupLess(matches[i], matches[j])
	})
	return matches, nil
}

// backupLess orders by timestamp, then by numeric suffix.
func backupLess(a, b string) bool {
	ta, na := splitBackup(a)
	tb, nb := splitBackup(b)
	if ta != tb {
		return ta < tb
	}
	return na < nb
}

func splitBackup(name string) (string, int) {
	ext := filepath.Ext(name)
	if n, err := strconv.Atoi(ext[min(1, len(ext)):]); err == nil && ext != "" {
		return name[:len(name)-len(ext)], n
	}
	return name, 0
}

// globEscape quotes glob metacharacters in a literal path.
func globEscape(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '*', '?', '[', '\\':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
