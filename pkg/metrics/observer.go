package metrics

import (
	"time"

	"github.com/cuemby/siloscript/pkg/events"
)

// Observe subscribes to broker and feeds question and run lifecycle
// events into the corresponding counters and the run-duration histogram,
// until done is closed. It is the background counterpart to Collector's
// periodic gauge polling — run it as a goroutine.
func Observe(broker *events.Broker, done <-chan struct{}) {
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	runStarts := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return
			}
			observeEvent(event, runStarts)
		case <-done:
			return
		}
	}
}

func observeEvent(event *events.Event, runStarts map[string]time.Time) {
	switch event.Type {
	case events.EventQuestionAsked:
		QuestionsAskedTotal.Inc()
	case events.EventQuestionAnswered:
		QuestionsAnsweredTotal.WithLabelValues("ok").Inc()
	case events.EventRunStarted:
		runStarts[event.Metadata["handle"]] = event.Timestamp
	case events.EventRunCompleted, events.EventRunFailed:
		outcome := "ok"
		if event.Type == events.EventRunFailed {
			outcome = "error"
		}
		RunsTotal.WithLabelValues(outcome).Inc()
		if start, ok := runStarts[event.Metadata["handle"]]; ok {
			RunDuration.Observe(time.Since(start).Seconds())
			delete(runStarts, event.Metadata["handle"])
		}
	}
}
