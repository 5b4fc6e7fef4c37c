package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorageSaveAndGet(t *testing.T) {
	s := newLocal(t)

	text := "This Agreement shall commence on the Effective Date."
	info, err := s.Save("doc-1", strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", info.Key)
	assert.Equal(t, int64(len(text)), info.Size)

	rc, err := s.Get("doc-1")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, text, string(got))
}

func TestLocalStorageSaveOverwrites(t *testing.T) {
	s := newLocal(t)

	_, err := s.Save("doc-1", strings.NewReader("first"))
	require.NoError(t, err)
	_, err = s.Save("doc-1", strings.NewReader("second"))
	require.NoError(t, err)

	rc, err := s.Get("doc-1")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestLocalStorageMissingObject(t *testing.T) {
	s := newLocal(t)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	err = s.Delete("missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	exists, err := s.Exists("missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorageRejectsEmptyID(t *testing.T) {
	s := newLocal(t)

	_, err := s.Save("", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestLocalStorageDeleteAndList(t *testing.T) {
	s := newLocal(t)

	_, err := s.Save("doc-1", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = s.Save("doc-2", strings.NewReader("b"))
	require.NoError(t, err)

	objects, err := s.List()
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	require.NoError(t, s.Delete("doc-1"))

	exists, err := s.Exists("doc-1")
	require.NoError(t, err)
	assert.False(t, exists)

	objects, err = s.List()
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "doc-2", objects[0].Key)
}
