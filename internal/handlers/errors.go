package handlers

import (
	"errors"
	"net/http"

	"github.com/encorehq/chatcore/internal/store"
)

// writeStoreError maps the permanent store errors onto 4xx responses;
// anything else is a 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrNotAParticipant):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, store.ErrInvalidParticipants), errors.Is(err, store.ErrEmptyContent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
