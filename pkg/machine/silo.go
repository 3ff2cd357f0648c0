package machine

import (
	"context"

	"github.com/cuemby/siloscript/pkg/silo"
	"github.com/cuemby/siloscript/pkg/store"
)

// MakeSilo allocates a fresh handle scoped to (user, siloName). When
// channelID is non-empty, the Silo's prompt callback forwards through
// ChannelPrompt on that channel; channelID must then already be open, or
// ErrNotFound is returned. An empty channelID builds a Silo that can
// never prompt — Get on it behaves as if no Prompter were configured.
func (m *Machine) MakeSilo(user, siloName string, channelID ChannelID) (silo.Handle, error) {
	var prompt silo.Prompter
	if channelID != "" {
		m.mu.Lock()
		_, ok := m.channels[channelID]
		m.mu.Unlock()
		if !ok {
			return "", ErrNotFound
		}
		prompt = m.channelPrompter(channelID)
	}

	handle := mintHandle()
	s := silo.New(m.store, store.Partition{User: user, Silo: siloName}, prompt)

	m.mu.Lock()
	m.silos[handle] = &siloEntry{s: s, channelID: channelID}
	m.mu.Unlock()

	return handle, nil
}

// channelPrompter builds a silo.Prompter that routes through
// ChannelPrompt/AnswerQuestion on the given channel.
func (m *Machine) channelPrompter(channelID ChannelID) silo.Prompter {
	return func(ctx context.Context, q silo.Question) (string, error) {
		_, result, err := m.ChannelPrompt(channelID, q.Prompt, q.Options)
		if err != nil {
			return "", err
		}
		select {
		case answer := <-result:
			return answer, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// CloseSilo invalidates handle. Every subsequent operation on it fails as
// ErrNotFound. If the silo had an associated channel, that channel is
// closed too — this is how a run's end propagates to its event-stream
// subscriber. Closing an unknown handle is a silent no-op.
func (m *Machine) CloseSilo(handle silo.Handle) {
	m.mu.Lock()
	entry, ok := m.silos[handle]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.silos, handle)
	channelID := entry.channelID
	m.mu.Unlock()

	if channelID != "" {
		m.ChannelClose(channelID)
	}
}

func (m *Machine) lookupSilo(handle silo.Handle) (*silo.Silo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.silos[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.s, nil
}
