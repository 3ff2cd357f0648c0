package httpapi

import (
	"io"
	"net/http"

	"github.com/cuemby/siloscript/pkg/log"
	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/go-chi/chi/v5"
)

// Public is the façade reachable from a human operator's browser: it
// accepts the answer to exactly one question per request. CORS is
// permissive since the answering page may be served from anywhere.
type Public struct {
	Machine *machine.Machine
}

// NewPublic builds the Public façade's router.
func NewPublic(m *machine.Machine) chi.Router {
	p := &Public{Machine: m}
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Options("/answer/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/answer/{id}", p.handleAnswer)
	return r
}

func (p *Public) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id := machine.QuestionID(chi.URLParam(r, "id"))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := p.Machine.AnswerQuestion(id, string(body)); err != nil {
		log.WithComponent("public").Warn().Err(err).Str("question", string(id)).Msg("answer failed")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// corsMiddleware answers every request with a permissive
// Access-Control-Allow-Origin, covering the answer endpoint's preflight
// and actual requests alike.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}
