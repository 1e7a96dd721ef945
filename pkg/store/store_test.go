package store_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/accesssync/pkg/access"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/logging"
	"github.com/agentstation/accesssync/pkg/store"
)

var runAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.WithLogger(logging.NewTestLogger(t).Logger))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func sampleDocument() *access.Document {
	doc := access.NewDocument()
	ts := access.NewTimestamp(runAt)
	doc.Entries = append(doc.Entries, access.Entry{
		ExternalHandle:  "bobgh",
		LoginHandle:     "bob",
		FullName:        "Bob",
		Tier:            access.TierLimited,
		Groups:          []string{"users", "sudo"},
		Commands:        []string{"/usr/bin/docker *"},
		SourcePrincipal: "bob@corp.example",
		Synced:          true,
		LastSyncedAt:    &ts,
	})
	return doc
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	s := newStore(t)
	doc, err := s.Load(filepath.Join(t.TempDir(), "user-mapping.json"))
	require.NoError(t, err)

	assert.Empty(t, doc.Entries)
	require.NotNil(t, doc.Settings)
	assert.Equal(t, "/bin/bash", doc.Settings.DefaultShell)
	assert.Equal(t, "users", doc.Settings.DefaultGroup)
	assert.Equal(t, "/home", doc.Settings.UserHomeBase)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user-mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users": [`), 0o644))

	_, err := newStore(t).Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedDocument(err))

	var malformed *errors.MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, path, malformed.Path)
	assert.Equal(t, "json", malformed.Format)
}

func TestLoadJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-mapping.json")
	content := `{
  // hand-maintained accounts
  "users": [
    {"github_user": "alicegh", "local_user": "alice",}, /* break-glass */
  ],
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := newStore(t).Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "alice", doc.Entries[0].LoginHandle)
	assert.Nil(t, doc.Settings)
}

func TestYAMLRoundTrip(t *testing.T) {
	s := newStore(t)
	path := filepath.Join(t.TempDir(), "user-mapping.yaml")

	_, err := s.Commit(path, sampleDocument(), runAt)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "local_user: bob")

	doc, err := s.Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "bob", doc.Entries[0].LoginHandle)
	assert.True(t, doc.Entries[0].Synced)
	assert.Equal(t, "2024-05-01T09:30:00Z", doc.Entries[0].LastSyncedAt.String())
}

func TestCommitBootstrap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "user-mapping.json")
	s := newStore(t)

	result, err := s.Commit(path, sampleDocument(), runAt)
	require.NoError(t, err)
	assert.Empty(t, result.Backup)
	assert.Equal(t, path, result.Path)
	assert.Len(t, result.Digest, 64)

	assert.Equal(t, []string{"user-mapping.json"}, listDir(t, filepath.Dir(path)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "users")
	assert.Contains(t, generic, "config")
}

func TestCommitCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user-mapping.json")
	original := []byte(`{"users":[{"github_user":"a","local_user":"alice"}]}`)
	require.NoError(t, os.WriteFile(path, original, 0o600))

	s := newStore(t)
	result, err := s.Commit(path, sampleDocument(), runAt)
	require.NoError(t, err)

	wantBackup := path + ".backup.20240501_093000"
	assert.Equal(t, wantBackup, result.Backup)

	backup, err := os.ReadFile(wantBackup)
	require.NoError(t, err)
	assert.Equal(t, original, backup)

	assert.ElementsMatch(t, []string{"user-mapping.json", "user-mapping.json.backup.20240501_093000"}, listDir(t, dir))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestCommitSameSecondNeverClobbers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user-mapping.json")
	s := newStore(t)

	_, err := s.Commit(path, sampleDocument(), runAt)
	require.NoError(t, err)

	var backups []string
	for i := 0; i < 3; i++ {
		before := len(listDir(t, dir))
		result, err := s.Commit(path, sampleDocument(), runAt)
		require.NoError(t, err)
		assert.Len(t, listDir(t, dir), before+1)
		assert.NotContains(t, backups, result.Backup)
		backups = append(backups, result.Backup)
	}

	base := path + ".backup.20240501_093000"
	assert.Equal(t, []string{base, base + ".1", base + ".2"}, backups)

	listed, err := s.Backups(path)
	require.NoError(t, err)
	assert.Equal(t, backups, listed)
}

func TestBackupsOrdering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user-mapping.json")
	names := []string{
		".backup.20240501_093000.10",
		".backup.20240501_093000.2",
		".backup.20240430_000000",
		".backup.20240501_093000",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(path+n, []byte("{}"), 0o644))
	}

	listed, err := newStore(t).Backups(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		path + ".backup.20240430_000000",
		path + ".backup.20240501_093000",
		path + ".backup.20240501_093000.2",
		path + ".backup.20240501_093000.10",
	}, listed)
}

func TestCommitFailureKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user-mapping.json")
	old := []byte(`{"users":[]}`)
	require.NoError(t, os.WriteFile(path, old, 0o644))

	flushErr := stderrors.New("disk full")
	s := store.New(
		store.WithLogger(logging.NewTestLogger(t).Logger),
		store.WithSyncFile(func(*os.File) error { return flushErr }),
	)

	_, err := s.Commit(path, sampleDocument(), runAt)
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))
	assert.ErrorIs(t, err, flushErr)

	var perr *errors.PersistenceError
	require.True(t, stderrors.As(err, &perr))
	assert.Equal(t, "sync", perr.Operation)
	require.NotEmpty(t, perr.Backup)

	backup, err := os.ReadFile(perr.Backup)
	require.NoError(t, err)
	assert.Equal(t, old, backup)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "document stays absent after a failed write")

	for _, name := range listDir(t, dir) {
		assert.NotContains(t, name, ".tmp-")
	}
}

func TestCommitYAMLDigestMatchesLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-mapping.yaml")
	s := newStore(t)

	result, err := s.Commit(path, sampleDocument(), runAt)
	require.NoError(t, err)

	loaded, err := s.Load(path)
	require.NoError(t, err)
	digest, err := store.Digest(loaded)
	require.NoError(t, err)
	assert.Equal(t, digest, result.Digest)
}

func TestDigestStable(t *testing.T) {
	a, err := store.Digest(sampleDocument())
	require.NoError(t, err)
	b, err := store.Digest(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := sampleDocument()
	other.Entries[0].LoginHandle = "robert"
	c, err := store.Digest(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCommitDigestMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user-mapping.json")
	doc := sampleDocument()

	result, err := newStore(t).Commit(path, doc, runAt)
	require.NoError(t, err)

	digest, err := store.Digest(doc)
	require.NoError(t, err)
	assert.Equal(t, digest, result.Digest)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, store.FormatJSON, store.FormatFor("/etc/user-mapping.json"))
	assert.Equal(t, store.FormatJSON, store.FormatFor("/etc/user-mapping.jsonc"))
	assert.Equal(t, store.FormatYAML, store.FormatFor("/etc/user-mapping.YML"))
	assert.Equal(t, store.FormatYAML, store.New(store.WithFormat(store.FormatYAML)).Format("x.json"))
}

func TestLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "user-mapping.json")
	s := newStore(t)

	lock, err := s.Lock(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, dir, lock.Dir())

	if runtime.GOOS != "windows" {
		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()
		_, err = s.Lock(ctx, path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrLocked)
	}

	require.NoError(t, lock.Unlock())
	require.NoError(t, lock.Unlock())

	again, err := s.Lock(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
	assert.Empty(t, listDir(t, dir))
}
