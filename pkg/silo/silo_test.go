package silo

import (
	"context"
	"errors"
	"testing"

	"github.com/cuemby/siloscript/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partition() store.Partition {
	return store.Partition{User: "jim", Silo: "s"}
}

func TestGetCachedValue(t *testing.T) {
	s := New(store.NewMemory(), partition(), nil)
	require.NoError(t, s.Put("k", store.Value("V")))

	got, err := s.Get(context.Background(), "k", GetOptions{Save: true})
	require.NoError(t, err)
	assert.Equal(t, store.Value("V"), got)
}

func TestGetPromptThenCache(t *testing.T) {
	asked := 0
	prompt := func(ctx context.Context, q Question) (string, error) {
		asked++
		assert.Equal(t, "age?", q.Prompt)
		return "42", nil
	}
	s := New(store.NewMemory(), partition(), prompt)

	got, err := s.Get(context.Background(), "age", GetOptions{Prompt: "age?", Save: true})
	require.NoError(t, err)
	assert.Equal(t, store.Value("42"), got)
	assert.Equal(t, 1, asked)

	// second call is served from the store, no new question
	got, err = s.Get(context.Background(), "age", GetOptions{Save: true})
	require.NoError(t, err)
	assert.Equal(t, store.Value("42"), got)
	assert.Equal(t, 1, asked)
}

func TestGetNoSavePrompt(t *testing.T) {
	prompt := func(ctx context.Context, q Question) (string, error) {
		return "42", nil
	}
	s := New(store.NewMemory(), partition(), prompt)

	got, err := s.Get(context.Background(), "age", GetOptions{Prompt: "age?", Save: false})
	require.NoError(t, err)
	assert.Equal(t, store.Value("42"), got)

	_, err = s.Get(context.Background(), "age", GetOptions{Save: true})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetSaveFalseWithoutPromptIsTypeError(t *testing.T) {
	s := New(store.NewMemory(), partition(), nil)
	_, err := s.Get(context.Background(), "age", GetOptions{Save: false})
	assert.ErrorIs(t, err, ErrType)
}

func TestGetMissingNoPromptCallback(t *testing.T) {
	s := New(store.NewMemory(), partition(), nil)
	_, err := s.Get(context.Background(), "age", GetOptions{Prompt: "age?", Save: true})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetPropagatesPromptError(t *testing.T) {
	boom := errors.New("operator hung up")
	prompt := func(ctx context.Context, q Question) (string, error) {
		return "", boom
	}
	s := New(store.NewMemory(), partition(), prompt)

	_, err := s.Get(context.Background(), "age", GetOptions{Prompt: "age?", Save: true})
	assert.ErrorIs(t, err, boom)
}
