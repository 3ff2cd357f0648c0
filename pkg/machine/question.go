package machine

import (
	"github.com/cuemby/siloscript/pkg/events"
	"github.com/google/uuid"
)

// ChannelPrompt mints a question id for prompt/options, records its
// completion slot, appends it to channel id's pending list, and delivers
// it to every receiver currently attached to that channel. The returned
// channel receives the eventual answer exactly once, when AnswerQuestion
// resolves this question id.
func (m *Machine) ChannelPrompt(id ChannelID, prompt string, options []string) (QuestionID, <-chan string, error) {
	m.mu.Lock()
	ch, ok := m.channels[id]
	if !ok {
		m.mu.Unlock()
		return "", nil, ErrNotFound
	}

	qid := newQuestionID()
	pq := &pendingQuestion{
		id:        qid,
		channelID: id,
		prompt:    prompt,
		options:   options,
		result:    make(chan string, 1),
	}
	elem := ch.pending.PushBack(pq)
	ch.pendingIndex[qid] = elem
	m.questions[qid] = pq

	receivers := make([]Receiver, 0, len(ch.receivers))
	for _, r := range ch.receivers {
		receivers = append(receivers, r)
	}
	m.mu.Unlock()

	m.broker.Publish(&events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventQuestionAsked,
		Message: "question asked",
		Metadata: map[string]string{
			"channel":  string(id),
			"question": string(qid),
		},
	})

	question := Question{ID: qid, Prompt: prompt, Options: options}
	for _, r := range receivers {
		r(question)
	}
	return qid, pq.result, nil
}

// AnswerQuestion resolves a pending question, removing it from its
// channel's pending list and delivering the answer to whoever is
// awaiting it. Answering an unknown id fails with ErrNotFound; answering
// an already-resolved id is also reported as ErrNotFound, since the
// question is no longer tracked once it resolves.
func (m *Machine) AnswerQuestion(id QuestionID, answer string) error {
	m.mu.Lock()
	pq, ok := m.questions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.questions, id)

	if ch, ok := m.channels[pq.channelID]; ok {
		if elem, ok := ch.pendingIndex[id]; ok {
			ch.pending.Remove(elem)
			delete(ch.pendingIndex, id)
		}
	}
	m.mu.Unlock()

	pq.result <- answer

	m.broker.Publish(&events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventQuestionAnswered,
		Message: "question answered",
		Metadata: map[string]string{
			"channel":  string(pq.channelID),
			"question": string(id),
		},
	})
	return nil
}
