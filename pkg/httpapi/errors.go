package httpapi

import (
	"errors"
	"net/http"

	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/cuemby/siloscript/pkg/store"
)

// writeError translates a Machine/Silo/Store error into an HTTP status:
// not found -> 404, invalid key -> 400, crypt error -> 500 with a fixed
// retry-later body, type error -> 400, anything else -> 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, machine.ErrNotFound), errors.Is(err, store.ErrNotFound), errors.Is(err, runner.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, machine.ErrInvalidKey):
		http.Error(w, "invalid key", http.StatusBadRequest)
	case errors.Is(err, machine.ErrType):
		http.Error(w, "type error", http.StatusBadRequest)
	case errors.Is(err, store.ErrCrypt):
		http.Error(w, "storage temporarily unavailable, retry later", http.StatusInternalServerError)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, machine.ErrNotFound) || errors.Is(err, store.ErrNotFound) || errors.Is(err, runner.ErrNotFound)
}

func errorsIsInvalid(err error) bool {
	return errors.Is(err, machine.ErrInvalidKey) || errors.Is(err, machine.ErrType)
}

func errorsIsCrypt(err error) bool {
	return errors.Is(err, store.ErrCrypt)
}
