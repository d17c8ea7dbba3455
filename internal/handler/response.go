package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/httputil"
	"github.com/pulseofpair/pairsync/internal/middleware"
	"github.com/pulseofpair/pairsync/internal/service"
	"github.com/pulseofpair/pairsync/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// requireCaller returns the authenticated caller or writes a 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (*service.Caller, bool) {
	caller := middleware.GetCaller(r.Context())
	if caller == nil || caller.User == nil {
		writeError(w, apperrors.Unauthenticated("Unauthorized"))
		return nil, false
	}
	return caller, true
}

// decodeBody decodes a JSON body into dst and runs its validate tags.
// An empty body is accepted when allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.ValidationError("Request body too large")
		}
		return apperrors.ValidationError("Invalid request body")
	}

	if err := util.ValidateStruct(dst); err != nil {
		var ve util.ValidationErrors
		if errors.As(err, &ve) {
			return apperrors.ValidationError(ve.Error()).WithDetails(ve)
		}
		return apperrors.ValidationError(err.Error())
	}
	return nil
}
