package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/siloscript/pkg/log"
	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/cuemby/siloscript/pkg/metrics"
	"github.com/cuemby/siloscript/pkg/silo"
	"github.com/cuemby/siloscript/pkg/store"
	"github.com/go-chi/chi/v5"
)

// Data is the façade a running script talks to through DATA_URL. Every
// handler is a thin pass-through to *machine.Machine, scoped by the
// {handle} path segment DATA_URL already carries.
type Data struct {
	Machine *machine.Machine
}

// NewData builds the Data façade's router, mounted at the root of
// whatever address serves DATA_URL.
func NewData(m *machine.Machine) chi.Router {
	d := &Data{Machine: m}
	r := chi.NewRouter()
	r.Get("/{handle}/{key}", d.handleGet)
	r.Put("/{handle}/{key}", d.handlePut)
	r.Post("/{handle}", d.handleCreateToken)
	return r
}

func (d *Data) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle := silo.Handle(chi.URLParam(r, "handle"))
	key := chi.URLParam(r, "key")

	opts := silo.GetOptions{
		Prompt:  r.URL.Query().Get("prompt"),
		Save:    parseSave(r.URL.Query().Get("save")),
		Options: parseOptions(r.URL.Query()),
	}

	value, err := d.Machine.DataGet(r.Context(), handle, key, opts)
	status := "200"
	defer func() {
		metrics.DataRequestsTotal.WithLabelValues("GET", status).Inc()
		metrics.DataRequestDuration.WithLabelValues("GET").Observe(time.Since(start).Seconds())
	}()
	if err != nil {
		status = statusLabel(err)
		log.WithHandle(string(handle)).Warn().Err(err).Str("key", key).Msg("data get failed")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (d *Data) handlePut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle := silo.Handle(chi.URLParam(r, "handle"))
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(r.Body)
	status := "200"
	defer func() {
		metrics.DataRequestsTotal.WithLabelValues("PUT", status).Inc()
		metrics.DataRequestDuration.WithLabelValues("PUT").Observe(time.Since(start).Seconds())
	}()
	if err != nil {
		status = "400"
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := d.Machine.DataPut(handle, key, store.Value(body)); err != nil {
		status = statusLabel(err)
		log.WithHandle(string(handle)).Warn().Err(err).Str("key", key).Msg("data put failed")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (d *Data) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	handle := silo.Handle(chi.URLParam(r, "handle"))
	plaintext := r.URL.Query().Get("value")

	token, err := d.Machine.DataCreateToken(handle, plaintext)
	status := "200"
	defer func() {
		metrics.DataRequestsTotal.WithLabelValues("POST", status).Inc()
		metrics.DataRequestDuration.WithLabelValues("POST").Observe(time.Since(start).Seconds())
	}()
	if err != nil {
		status = statusLabel(err)
		log.WithHandle(string(handle)).Warn().Err(err).Msg("token creation failed")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, token)
}

func parseSave(raw string) bool {
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return strings.EqualFold(raw, "true")
	}
	return v
}

func parseOptions(q map[string][]string) []string {
	values, ok := q["options"]
	if !ok || len(values) == 0 {
		return nil
	}
	if len(values) == 1 && strings.Contains(values[0], ",") {
		return strings.Split(values[0], ",")
	}
	return values
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "200"
	case errorsIsNotFound(err):
		return "404"
	case errorsIsInvalid(err):
		return "400"
	case errorsIsCrypt(err):
		return "500"
	default:
		return "500"
	}
}
