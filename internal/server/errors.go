package server

import (
	"net/http"

	apperrors "github.com/proxyscout/proxyscout/internal/errors"
)

// HandleError writes err as a JSON error envelope.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

func handleThrottled(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, apperrors.NewTooManyRequestsError("Too many requests, slow down"))
}
