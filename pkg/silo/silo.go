package silo

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/siloscript/pkg/store"
)

// ErrType signals an internal contract violation, such as save=false with
// no prompt.
var ErrType = errors.New("silo: type error")

// Handle is an unguessable identifier naming a Silo for the lifetime of
// one script run or explicit operator request. Minted by pkg/machine.
type Handle string

// Question is the prompt text and optional advisory options shown to a
// human operator when a key is missing from the Store.
type Question struct {
	Prompt  string
	Options []string
}

// Prompter asks a question through whatever channel the Silo was
// constructed with, and returns the eventual answer. It is the one-method
// capability that crosses from pkg/machine into pkg/silo.
type Prompter func(ctx context.Context, q Question) (string, error)

// Silo is a scoped, optionally prompting view onto a Store for one
// (user, silo-name) pair. It is the policy point for read-through-with-
// human-fallback; the Store underneath stays simple.
type Silo struct {
	Store     store.Store
	Partition store.Partition
	Prompt    Prompter
}

// New builds a Silo over store for the given partition. prompt may be nil,
// in which case Get can never fall back to a human answer.
func New(s store.Store, p store.Partition, prompt Prompter) *Silo {
	return &Silo{Store: s, Partition: p, Prompt: prompt}
}

// GetOptions controls the read-through-with-fallback policy of Get.
type GetOptions struct {
	// Prompt, when non-empty, is the question text to ask if the key is
	// absent and a Prompter is configured.
	Prompt string
	// Save controls whether a prompted answer is written back to the
	// Store. Callers wanting the default policy set this true; false is
	// only legal alongside a non-empty Prompt.
	Save bool
	// Options are advisory choices passed through to the Prompter.
	Options []string
}

// Get first tries the Store. If the key is present, it is returned
// directly. If absent and a prompt callback and prompt text are both
// configured, a question is emitted and the eventual answer is returned,
// optionally cached. It is an error to request Save=false without a
// prompt text.
func (s *Silo) Get(ctx context.Context, key store.Key, opts GetOptions) (store.Value, error) {
	value, err := s.Store.Get(s.Partition, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if opts.Prompt == "" {
		if !opts.Save {
			return nil, fmt.Errorf("%w: save=false requires a prompt", ErrType)
		}
		return nil, store.ErrNotFound
	}
	if s.Prompt == nil {
		return nil, store.ErrNotFound
	}

	answer, err := s.Prompt(ctx, Question{Prompt: opts.Prompt, Options: opts.Options})
	if err != nil {
		return nil, err
	}

	answerValue := store.Value(answer)
	if opts.Save {
		if err := s.Store.Put(s.Partition, key, answerValue); err != nil {
			return nil, err
		}
	}
	return answerValue, nil
}

// Put writes through to the Store.
func (s *Silo) Put(key store.Key, value store.Value) error {
	return s.Store.Put(s.Partition, key, value)
}
