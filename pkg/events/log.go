package events

import "github.com/rs/zerolog"

// LogSubscriber subscribes to broker and emits one structured log line per
// event, until done closes. Run as its own goroutine; the subscription is
// unregistered on exit so a stopped logger never holds a broker slot open.
func LogSubscriber(broker *Broker, logger zerolog.Logger, done <-chan struct{}) {
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return
			}
			evt := logger.Debug().Str("event_type", string(event.Type)).Str("event_id", event.ID)
			for k, v := range event.Metadata {
				evt = evt.Str(k, v)
			}
			evt.Msg(event.Message)
		case <-done:
			return
		}
	}
}
