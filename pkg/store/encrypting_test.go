package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptingRoundTrip(t *testing.T) {
	inner := NewMemory()
	e := NewEncrypting(inner, t.TempDir(), nil)
	defer e.Close()

	p := Partition{User: "jim", Silo: "deploy"}
	require.NoError(t, e.Put(p, "k", Value("hunter2")))

	got, err := e.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("hunter2"), got)

	// the inner store never sees the plaintext
	raw, err := inner.Get(p, "k")
	require.NoError(t, err)
	assert.NotEqual(t, Value("hunter2"), raw)
}

func TestEncryptingPassphraseProtected(t *testing.T) {
	dir := t.TempDir()
	passphrase := func() ([]byte, error) { return []byte("correct-horse"), nil }

	e := NewEncrypting(NewMemory(), dir, passphrase)
	defer e.Close()

	p := Partition{User: "jim", Silo: "deploy"}
	require.NoError(t, e.Put(p, "k", Value("secret")))

	got, err := e.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("secret"), got)
}

func TestEncryptingReusesKeyringAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	inner := NewMemory()
	p := Partition{User: "jim", Silo: "deploy"}

	e1 := NewEncrypting(inner, dir, nil)
	require.NoError(t, e1.Put(p, "k", Value("V")))
	require.NoError(t, e1.Close())

	_, err := filepathGlobAny(t, dir)
	require.NoError(t, err)

	e2 := NewEncrypting(inner, dir, nil)
	defer e2.Close()

	got, err := e2.Get(p, "k")
	require.NoError(t, err)
	assert.Equal(t, Value("V"), got)
}

func filepathGlobAny(t *testing.T, dir string) ([]string, error) {
	t.Helper()
	return filepath.Glob(filepath.Join(dir, "*.asc"))
}
