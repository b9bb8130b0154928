package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCreds struct {
	token   string
	loadErr error
	saveErr error
}

func (m *memCreds) Load() (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if m.token == "" {
		return "", ErrNotLoggedIn
	}
	return m.token, nil
}

func (m *memCreds) Save(token string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *memCreds) Clear() error {
	m.token = ""
	return nil
}

func TestStoreSeedsFromCredentials(t *testing.T) {
	store := NewStore(&memCreds{token: "persisted"})
	token, ok := store.Token()
	require.True(t, ok)
	assert.Equal(t, "persisted", token)
}

func TestStoreLoadErrorDegradesToEmpty(t *testing.T) {
	store := NewStore(&memCreds{loadErr: errors.New("disk gone")})
	_, ok := store.Token()
	assert.False(t, ok)
}

func TestStoreSetTokenPersistsAndNotifies(t *testing.T) {
	creds := &memCreds{}
	store := NewStore(creds)

	var gotToken string
	var gotSeq uint64
	store.Subscribe(func(token string, seq uint64) {
		gotToken = token
		gotSeq = seq
	})

	require.NoError(t, store.SetToken("abc"))
	assert.Equal(t, "abc", creds.token)
	assert.Equal(t, "abc", gotToken)
	assert.Equal(t, uint64(1), gotSeq)

	require.NoError(t, store.Clear())
	assert.Empty(t, gotToken)
	assert.Equal(t, uint64(2), gotSeq)
	_, ok := store.Token()
	assert.False(t, ok)
}

func TestStoreSaveFailureKeepsOldToken(t *testing.T) {
	creds := &memCreds{token: "old"}
	store := NewStore(creds)
	creds.saveErr = errors.New("readonly fs")

	notified := false
	store.Subscribe(func(string, uint64) { notified = true })

	require.Error(t, store.SetToken("new"))
	assert.False(t, notified, "subscriber notified despite persistence failure")

	token, _ := store.Token()
	assert.Equal(t, "old", token)
}

func TestStoreSeqIncreasesPerTransition(t *testing.T) {
	store := NewStore(nil)
	require.Zero(t, store.Seq())

	_ = store.SetToken("a")
	_ = store.SetToken("b")
	_ = store.Clear()
	assert.Equal(t, uint64(3), store.Seq())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	fs := NewFileStoreAt(path)

	_, err := fs.Load()
	require.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, fs.Save("tok-123"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear(), "clearing an absent file")
	_, err = fs.Load()
	require.ErrorIs(t, err, ErrNotLoggedIn)
}
