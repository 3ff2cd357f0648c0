package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cuemby/siloscript/pkg/log"
	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/cuemby/siloscript/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// Control is the operator-facing façade: opening channels, subscribing to
// their event streams, and kicking off runs.
type Control struct {
	Machine   *machine.Machine
	StaticDir string
}

// NewControl builds the Control façade's router.
func NewControl(m *machine.Machine, staticDir string) chi.Router {
	c := &Control{Machine: m, StaticDir: staticDir}
	r := chi.NewRouter()
	r.Get("/channel/open", c.handleChannelOpen)
	r.Get("/channel/{id}/events", c.handleChannelEvents)
	r.Post("/run/{user}", c.handleRun)
	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/healthz", c.handleHealthz)
	if staticDir != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Handle("/static/*", fileServer)
	}
	return r
}

// handleHealthz reports whether the Store is reachable alongside the
// usual process liveness information.
func (c *Control) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := c.Machine.Ping(); err != nil {
		metrics.UpdateComponent("store", false, err.Error())
	} else {
		metrics.UpdateComponent("store", true, "")
	}
	metrics.HealthHandler()(w, r)
}

func (c *Control) handleChannelOpen(w http.ResponseWriter, r *http.Request) {
	id := c.Machine.ChannelOpen()
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, string(id))
}

type questionPayload struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// handleChannelEvents holds the response open as a text/event-stream
// until the request terminates, at which point the receiver detaches and
// the Machine learns the operator went away. Questions already pending
// on the channel are replayed as part of ChannelConnect, before any new
// question can arrive.
func (c *Control) handleChannelEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := machine.ChannelID(chi.URLParam(r, "id"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var writeMu sync.Mutex
	writeEvent := func(event, data string) {
		writeMu.Lock()
		defer writeMu.Unlock()
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	rid, err := c.Machine.ChannelConnect(id, func(q machine.Question) {
		payload, _ := json.Marshal(questionPayload{ID: string(q.ID), Prompt: q.Prompt, Options: q.Options})
		writeEvent("question", string(payload))
	})
	if err != nil {
		log.WithChannel(string(id)).Warn().Err(err).Msg("channel connect failed")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	writeEvent("channel_key", string(id))

	<-r.Context().Done()
	c.Machine.ChannelDisconnect(id, rid)
	log.WithChannel(string(id)).Info().Msg("operator disconnected from channel")
}

// handleRun kicks off a script run for user, blocking until it completes,
// and returns the run's stdout as the response body.
func (c *Control) handleRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	user := chi.URLParam(r, "user")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	script := r.Form.Get("script")
	channelKey := machine.ChannelID(r.Form.Get("channel_key"))

	var args []string
	if raw := r.Form.Get("args"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			http.Error(w, "args must be a JSON array of strings", http.StatusBadRequest)
			return
		}
	}

	// RunsTotal and RunDuration are fed from machine.Run's lifecycle
	// events (see pkg/metrics.Observe), not from here, so a run counts
	// once regardless of whether it was started through this façade or
	// called directly.
	result, err := c.Machine.Run(r.Context(), user, script, args, nil, channelKey, nil)
	status := "200"
	defer func() {
		metrics.APIRequestsTotal.WithLabelValues("control", "POST", status).Inc()
		metrics.APIRequestDuration.WithLabelValues("control").Observe(time.Since(start).Seconds())
	}()
	if err != nil {
		status = statusLabel(err)
		log.WithComponent("control").Error().Err(err).Str("user", user).Str("script", script).Msg("run failed")
		writeError(w, err)
		return
	}

	w.Header().Set("X-Exit-Code", strconv.Itoa(result.ExitCode))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Stdout)
}
