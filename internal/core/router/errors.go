package router

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mohammed-shakir/eulerian-streets/internal/geocode"
	"github.com/mohammed-shakir/eulerian-streets/internal/locate"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
)

// StatusFor maps a pipeline error to an HTTP status. Bad input is 400, a
// network with no trail is 422 and upstream trouble is 502.
func StatusFor(err error) int {
	var se *pipeline.StageError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Stage {
	case pipeline.StageValidate:
		return http.StatusBadRequest
	case pipeline.StageEuler, pipeline.StageWalk:
		return http.StatusUnprocessableEntity
	case pipeline.StageLoad, pipeline.StageStart:
		switch {
		case errors.Is(err, geocode.ErrNoResult),
			errors.Is(err, osmgraph.ErrNoStreets),
			errors.Is(err, locate.ErrUnknownNode),
			errors.Is(err, locate.ErrEmptyGraph),
			errors.Is(err, locate.ErrNoGeocoder),
			errors.Is(err, pipeline.ErrNoPlaceLookup):
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "trail request failed", "status", code, "err", err)
	} else {
		logger.InfoContext(r.Context(), "trail request rejected", "status", code, "err", err)
	}
	http.Error(w, err.Error(), code)
}
