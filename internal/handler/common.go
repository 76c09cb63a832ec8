package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/diancan-pos/api/internal/binstore"
	"github.com/diancan-pos/api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// isValidationError reports whether err is a local precondition violation
// that maps to a 400 rather than a server fault.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrOutOfStock) ||
		errors.Is(err, service.ErrInvalidOption) ||
		errors.Is(err, service.ErrInvalidTransition) ||
		errors.Is(err, service.ErrNameRequired) ||
		errors.Is(err, service.ErrNegativePrice) ||
		errors.Is(err, service.ErrNegativeStock) ||
		errors.Is(err, service.ErrDuplicateOption) ||
		errors.Is(err, service.ErrEmptyOptionName)
}

// binWarning turns a post-mutation push error into the user-facing warning
// string carried alongside an otherwise successful response. Only the
// payload-too-large rejection reaches here; transient failures were
// already swallowed by the service.
func binWarning(err error) string {
	if errors.Is(err, binstore.ErrPayloadTooLarge) {
		return "remote document too large, changes kept locally only"
	}
	return ""
}
