package machine

import (
	"container/list"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/cuemby/siloscript/pkg/events"
	"github.com/cuemby/siloscript/pkg/log"
	"github.com/cuemby/siloscript/pkg/metrics"
	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/cuemby/siloscript/pkg/silo"
	"github.com/cuemby/siloscript/pkg/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound covers unknown silo handles, unknown channels, and unknown
// question ids — all the Machine's "not found" surfaces. It is the same
// sentinel store.Get/Delete return, since an unknown handle really is a
// missing entry in the Machine's own coordination maps.
var ErrNotFound = store.ErrNotFound

// ErrInvalidKey is returned when a script-visible key starts with the
// reserved ":" prefix.
var ErrInvalidKey = errors.New("machine: invalid key")

// ErrType re-exports silo.ErrType so callers never need to import pkg/silo
// just to compare errors.
var ErrType = silo.ErrType

// DefaultTokenSalt is used when Config.TokenSalt is empty. Deployers that
// care about token stability across deployments should set an explicit
// salt instead of relying on this constant.
const DefaultTokenSalt = "siloscript-default-token-salt"

// ChannelID identifies a control channel.
type ChannelID string

// QuestionID identifies one pending question.
type QuestionID string

// ReceiverID identifies one attached receiver within a channel, returned
// by ChannelConnect and required by ChannelDisconnect.
type ReceiverID string

// Question is what a receiver sees: a question id, its prompt text, and
// any advisory options.
type Question struct {
	ID      QuestionID
	Prompt  string
	Options []string
}

// Receiver is a human-facing callback: it is shown a Question and returns
// nothing — the answer is routed back out-of-band through AnswerQuestion.
type Receiver func(Question)

// Config configures a Machine.
type Config struct {
	Store       store.Store
	Runner      *runner.Runner
	DataURLRoot string
	// TokenSalt is mixed into the hash dataCreateToken uses to detect
	// repeat plaintexts. Defaults to DefaultTokenSalt when empty.
	TokenSalt string
	// Broker, when nil, is created and owned (started/stopped) by the
	// Machine itself.
	Broker *events.Broker
}

type pendingQuestion struct {
	id        QuestionID
	channelID ChannelID
	prompt    string
	options   []string
	result    chan string
}

type channelState struct {
	receivers    map[ReceiverID]Receiver
	pending      *list.List // of *pendingQuestion, insertion order
	pendingIndex map[QuestionID]*list.Element
	closeWaiters []chan struct{}
}

type siloEntry struct {
	s         *silo.Silo
	channelID ChannelID // "" when the silo has no bound channel
}

// Machine is the central coordinator: it issues silo handles, brokers
// questions between silos and human receivers, owns the token cache, and
// drives runs. All of its in-memory maps are protected by one mutex —
// the concrete realization of a single-logical-thread coordinator.
type Machine struct {
	store      store.Store
	siloRunner *runner.SiloRunner
	logger     zerolog.Logger
	broker     *events.Broker
	ownsBroker bool
	eventsDone chan struct{}
	tokenSalt  string

	mu           sync.Mutex
	channels     map[ChannelID]*channelState
	silos        map[silo.Handle]*siloEntry
	questions    map[QuestionID]*pendingQuestion
	runsInFlight int
}

// New builds a Machine from cfg.
func New(cfg Config) *Machine {
	salt := cfg.TokenSalt
	if salt == "" {
		salt = DefaultTokenSalt
	}

	broker := cfg.Broker
	ownsBroker := false
	if broker == nil {
		broker = events.NewBroker()
		ownsBroker = true
	}
	broker.Start()

	logger := log.WithComponent("machine")
	m := &Machine{
		store:      cfg.Store,
		siloRunner: runner.NewSiloRunner(cfg.Runner, cfg.DataURLRoot),
		logger:     logger,
		broker:     broker,
		ownsBroker: ownsBroker,
		eventsDone: make(chan struct{}),
		tokenSalt:  salt,
		channels:   make(map[ChannelID]*channelState),
		silos:      make(map[silo.Handle]*siloEntry),
		questions:  make(map[QuestionID]*pendingQuestion),
	}
	go metrics.Observe(broker, m.eventsDone)
	go events.LogSubscriber(broker, logger, m.eventsDone)
	return m
}

// Close stops the Machine's event subscribers and, if it created one, the
// owned event broker.
func (m *Machine) Close() {
	close(m.eventsDone)
	if m.ownsBroker {
		m.broker.Stop()
	}
}

// Events returns the broker run-lifecycle and channel/question events are
// published on, for metrics and logging subscribers.
func (m *Machine) Events() *events.Broker {
	return m.broker
}

func mintHandle() silo.Handle {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for a system whose whole
		// purpose is minting unguessable handles.
		panic(fmt.Sprintf("machine: crypto/rand: %v", err))
	}
	return silo.Handle(hex.EncodeToString(b))
}

func newChannelID() ChannelID {
	return ChannelID(uuid.NewString())
}

func newQuestionID() QuestionID {
	return QuestionID(uuid.NewString())
}

func newReceiverID() ReceiverID {
	return ReceiverID(uuid.NewString())
}

// OpenSilos implements metrics.Stats.
func (m *Machine) OpenSilos() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.silos)
}

// OpenChannels implements metrics.Stats.
func (m *Machine) OpenChannels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// PendingQuestions implements metrics.Stats.
func (m *Machine) PendingQuestions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions)
}

// RunsInFlight implements metrics.Stats.
func (m *Machine) RunsInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runsInFlight
}

// Ping checks that the Store is reachable, for /healthz. A not-found
// result still proves the Store answered, so only other errors are
// reported as unreachable.
func (m *Machine) Ping() error {
	_, err := m.store.Get(store.Partition{User: "__healthz__", Silo: "__healthz__"}, "__ping__")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
