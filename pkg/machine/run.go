package machine

import (
	"context"

	"github.com/cuemby/siloscript/pkg/events"
	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/google/uuid"
)

// Run creates a silo scoped to (user, script), bound to channelID if
// non-empty, asks the Runner to execute script with env overlaid with
// that silo's data URL, and on completion — success or failure — closes
// the silo and returns the aggregated result. When channelID was
// supplied, closing the silo cascades to closing the channel, which is
// how the event-stream façade learns the run ended.
func (m *Machine) Run(ctx context.Context, user, script string, args []string, env map[string]string, channelID ChannelID, observer runner.Observer) (runner.Result, error) {
	handle, err := m.MakeSilo(user, script, channelID)
	if err != nil {
		return runner.Result{}, err
	}
	defer m.CloseSilo(handle)

	m.mu.Lock()
	m.runsInFlight++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.runsInFlight--
		m.mu.Unlock()
	}()

	m.logger.Info().Str("user", user).Str("script", script).Str("handle", string(handle)).Msg("run started")
	m.broker.Publish(&events.Event{
		ID:      uuid.NewString(),
		Type:    events.EventRunStarted,
		Message: "run started",
		Metadata: map[string]string{
			"user":   user,
			"script": script,
			"handle": string(handle),
		},
	})

	result, err := m.siloRunner.Run(ctx, script, args, env, string(handle), observer)

	evtType := events.EventRunCompleted
	msg := "run completed"
	if err != nil {
		evtType = events.EventRunFailed
		msg = "run failed"
	}
	m.broker.Publish(&events.Event{
		ID:      uuid.NewString(),
		Type:    evtType,
		Message: msg,
		Metadata: map[string]string{
			"user":   user,
			"script": script,
			"handle": string(handle),
		},
	})
	if err != nil {
		m.logger.Error().Err(err).Str("script", script).Msg("run failed")
	} else {
		m.logger.Info().Str("script", script).Int("exit_code", result.ExitCode).Msg("run completed")
	}

	return result, err
}
