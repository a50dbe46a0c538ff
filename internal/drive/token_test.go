package drive

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type flakyTokenStore struct {
	MemoryTokenStore
	failures int
	saves    int
}

func (s *flakyTokenStore) Save(tok *oauth2.Token) error {
	s.saves++
	if s.failures > 0 {
		s.failures--
		return errors.New("disk full")
	}
	return s.MemoryTokenStore.Save(tok)
}

func captureDefaultLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestPersistingSource_SavesRefreshedToken(t *testing.T) {
	store := &MemoryTokenStore{}
	src := &persistingSource{base: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "a1"}), store: store}

	for range 3 {
		tok, err := src.Token()
		require.NoError(t, err)
		assert.Equal(t, "a1", tok.AccessToken)
	}
	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "a1", saved.AccessToken)
}

func TestPersistingSource_LogsAndRetriesFailedSave(t *testing.T) {
	logs := captureDefaultLog(t)
	store := &flakyTokenStore{failures: 1}
	src := &persistingSource{base: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "a1"}), store: store}

	tok, err := src.Token()
	require.NoError(t, err, "a failed save does not fail the request")
	assert.Equal(t, "a1", tok.AccessToken)
	assert.Contains(t, logs.String(), "Failed to persist refreshed Drive token")
	assert.Contains(t, logs.String(), "disk full")

	_, err = src.Token()
	require.NoError(t, err)
	_, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, 2, store.saves, "saved again after the failure, then not repeated")

	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "a1", saved.AccessToken)
}

func TestFileTokenStore_RoundTrip(t *testing.T) {
	s := FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "token.json")}

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.NoError(t, s.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	tok, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "r", tok.RefreshToken)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, tok)
}
