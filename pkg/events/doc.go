/*
Package events provides an in-memory event broker for siloscript's internal
lifecycle notices.

The events package implements a lightweight event bus for broadcasting run,
channel, and question lifecycle events to interested subscribers inside the
process — it is not the Control façade's operator-facing event stream (see
pkg/httpapi for that), but the internal fan-out pkg/metrics.Observe and
LogSubscriber both subscribe to. It supports asynchronous, non-blocking
delivery, keeping the Machine's serialization point (see pkg/machine)
decoupled from slow subscribers.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - Topic-agnostic (all events broadcast)    │          │
	│  │  - Non-blocking publish                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publisher → Event Channel (buffer: 100)    │          │
	│  │       ↓                                      │          │
	│  │  Broadcast Loop                              │          │
	│  │       ↓                                      │          │
	│  │  Subscriber Channels (buffer: 50 each)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Event Types                       │          │
	│  │                                              │          │
	│  │  Run Events:                                │          │
	│  │    - run.started                            │          │
	│  │    - run.completed                          │          │
	│  │    - run.failed                             │          │
	│  │                                              │          │
	│  │  Channel Events:                            │          │
	│  │    - channel.opened                         │          │
	│  │    - channel.closed                         │          │
	│  │                                              │          │
	│  │  Question Events:                           │          │
	│  │    - question.asked                         │          │
	│  │    - question.answered                      │          │
	│  └────────────────────────────────────────────┘           │
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Subscribers                      │          │
	│  │                                              │          │
	│  │  metrics.Observe: feeds question/run        │          │
	│  │    counters and RunDuration                 │          │
	│  │  LogSubscriber: structured log line/event   │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Event Broker:
  - Central message bus for event distribution
  - Manages subscriber lifecycle
  - Non-blocking publish (buffered channel)
  - Graceful shutdown via stop channel

Event:
  - ID: Unique event identifier
  - Type: Event type (run.started, question.answered, etc.)
  - Timestamp: When event occurred
  - Message: Human-readable description
  - Metadata: Key-value pairs for additional context (user, script, handle, channel, question)

Subscriber:
  - Channel that receives Event pointers
  - Buffered (50 events) to handle bursts
  - Created via broker.Subscribe()
  - Closed via broker.Unsubscribe()

# Usage

Creating and starting a broker (machine.New does this when Config.Broker
is nil):

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

Subscribing, the way LogSubscriber does it:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for event := range sub {
		logger.Debug().Str("event_type", string(event.Type)).Msg(event.Message)
	}

Or with the done-channel shutdown pattern both of machine.New's
subscribers use:

	done := make(chan struct{})
	go events.LogSubscriber(broker, logger, done)
	// ... later, on shutdown ...
	close(done)

Publishing:

	broker.Publish(&events.Event{
		Type:    events.EventRunStarted,
		Message: "run started",
		Metadata: map[string]string{"user": "jim", "silo": "deploy"},
	})
*/
package events
