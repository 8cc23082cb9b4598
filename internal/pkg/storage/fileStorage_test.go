package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	require.NoError(t, s.Save("a/b/c.txt", strings.NewReader("hello")))
	assert.True(t, s.Exists("a/b/c.txt"))

	rc, err := s.Get("a/b/c.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Save("a/b/c.txt", strings.NewReader("again")))
	rc, err = s.Get("a/b/c.txt")
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "again", string(data))

	require.NoError(t, s.Delete("a/b/c.txt"))
	assert.False(t, s.Exists("a/b/c.txt"))
}

func TestFileStorageRejectsEscapes(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	for _, path := range []string{"../x", "a/../../x", "", "/"} {
		t.Run(path, func(t *testing.T) {
			assert.Error(t, s.Save(path, strings.NewReader("x")))
			assert.False(t, s.Exists(path))
		})
	}
}
