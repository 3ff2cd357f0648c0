package runner

import (
	"context"
	"fmt"
)

// SiloRunner composes over a Runner, overlaying DATA_URL into the
// environment for a given silo handle before delegating, the same way a
// task handler wraps a lower-level executor and injects per-task
// material into the environment.
type SiloRunner struct {
	runner     *Runner
	dataURLFmt string // e.g. "http://127.0.0.1:8082/%s"
}

// NewSiloRunner builds a SiloRunner over runner. dataURLRoot is the base
// URL that, joined with "/<handle>", becomes DATA_URL.
func NewSiloRunner(runner *Runner, dataURLRoot string) *SiloRunner {
	return &SiloRunner{runner: runner, dataURLFmt: dataURLRoot + "/%s"}
}

// Run overlays DATA_URL=<dataURLRoot>/<handle> onto env and delegates to
// the wrapped Runner.
func (s *SiloRunner) Run(ctx context.Context, script string, args []string, env map[string]string, handle string, observer Observer) (Result, error) {
	overlaid := make(map[string]string, len(env)+1)
	for k, v := range env {
		overlaid[k] = v
	}
	overlaid["DATA_URL"] = fmt.Sprintf(s.dataURLFmt, handle)
	return s.runner.Run(ctx, script, args, overlaid, observer)
}
