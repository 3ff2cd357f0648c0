package machine

import (
	"container/list"

	"github.com/cuemby/siloscript/pkg/events"
	"github.com/google/uuid"
)

// ChannelOpen mints a fresh channel id.
func (m *Machine) ChannelOpen() ChannelID {
	m.mu.Lock()
	id := newChannelID()
	m.channels[id] = &channelState{
		receivers:    make(map[ReceiverID]Receiver),
		pending:      list.New(),
		pendingIndex: make(map[QuestionID]*list.Element),
	}
	m.mu.Unlock()

	m.broker.Publish(&events.Event{
		ID:       uuid.NewString(),
		Type:     events.EventChannelOpened,
		Message:  "channel opened",
		Metadata: map[string]string{"channel": string(id)},
	})
	return id
}

// ChannelConnect attaches receiver to channel id. Every buffered,
// undelivered question for that channel is replayed to it, in insertion
// order, before any newer question arrives.
func (m *Machine) ChannelConnect(id ChannelID, receiver Receiver) (ReceiverID, error) {
	m.mu.Lock()
	ch, ok := m.channels[id]
	if !ok {
		m.mu.Unlock()
		return "", ErrNotFound
	}

	rid := newReceiverID()
	ch.receivers[rid] = receiver

	pending := make([]Question, 0, ch.pending.Len())
	for e := ch.pending.Front(); e != nil; e = e.Next() {
		pq := e.Value.(*pendingQuestion)
		pending = append(pending, Question{ID: pq.id, Prompt: pq.prompt, Options: pq.options})
	}
	m.mu.Unlock()

	for _, q := range pending {
		receiver(q)
	}
	return rid, nil
}

// ChannelDisconnect detaches receiver rid from channel id. Subsequent
// questions bypass it; other receivers, and already-pending questions,
// are unaffected.
func (m *Machine) ChannelDisconnect(id ChannelID, rid ReceiverID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[id]
	if !ok {
		return ErrNotFound
	}
	delete(ch.receivers, rid)
	return nil
}

// ChannelNotifyClosed returns a channel that is closed when id closes. If
// id is already unknown, the returned channel is already closed.
func (m *Machine) ChannelNotifyClosed(id ChannelID) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[id]
	if !ok {
		done := make(chan struct{})
		close(done)
		return done
	}

	waiter := make(chan struct{})
	ch.closeWaiters = append(ch.closeWaiters, waiter)
	return waiter
}

// ChannelClose removes channel id and fires all its pending close
// notifications. It does not cancel in-flight questions — they remain
// resolvable by id through AnswerQuestion. Closing an unknown or
// already-closed channel is a silent no-op.
func (m *Machine) ChannelClose(id ChannelID) {
	m.mu.Lock()
	ch, ok := m.channels[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.channels, id)
	waiters := ch.closeWaiters
	m.mu.Unlock()

	m.broker.Publish(&events.Event{
		ID:       uuid.NewString(),
		Type:     events.EventChannelClosed,
		Message:  "channel closed",
		Metadata: map[string]string{"channel": string(id)},
	})

	for _, w := range waiters {
		close(w)
	}
}
