package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLGetPutDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQL(filepath.Join(dir, "siloscript.db"))
	require.NoError(t, err)
	defer s.Close()

	p := Partition{User: "jim", Silo: "deploy"}

	_, err = s.Get(p, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(p, "k", Value("V")))

	got, err := s.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("V"), got)

	require.NoError(t, s.Put(p, "k", Value("W")))
	got, err = s.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("W"), got)

	require.NoError(t, s.Delete(p, "k"))
	_, err = s.Get(p, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "siloscript.db")
	p := Partition{User: "jim", Silo: "deploy"}

	s, err := OpenSQL(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(p, "k", Value("V")))
	require.NoError(t, s.Close())

	s2, err := OpenSQL(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("V"), got)
}

func TestSQLRejectsEmptyPath(t *testing.T) {
	_, err := OpenSQL("")
	assert.Error(t, err)
}
