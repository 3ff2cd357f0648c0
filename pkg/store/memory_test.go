package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPutDelete(t *testing.T) {
	s := NewMemory()
	p := Partition{User: "jim", Silo: "deploy"}

	_, err := s.Get(p, "k")
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

	err = s.Delete(p, "k")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryPartitionsAreIsolated(t *testing.T) {
	s := NewMemory()
	a := Partition{User: "jim", Silo: "deploy"}
	b := Partition{User: "jim", Silo: "other"}

	require.NoError(t, s.Put(a, "k", Value("a-value")))
	_, err := s.Get(b, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetReturnsACopy(t *testing.T) {
	s := NewMemory()
	p := Partition{User: "jim", Silo: "deploy"}
	require.NoError(t, s.Put(p, "k", Value("V")))

	got, err := s.Get(p, "k")
	require.NoError(t, err)
	got[0] = 'X'

	got2, err := s.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("V"), got2)
}
