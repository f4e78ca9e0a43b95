// Package handler implements the JSON API. Handlers read the household
// scope from the request's auth context, never from client input, so a
// caller can only ever reach rows in its own household.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hearthapp/hearth/internal/apierr"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeErr maps a classified error to its response. Unclassified errors
// are logged and surfaced as opaque 500s.
func writeErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		if ae.Status() >= 500 {
			logger.Error("request failed", "error", err)
		}
		apierr.Write(w, ae)
		return
	}
	logger.Error("unhandled error", "error", err)
	apierr.Write(w, apierr.Internal(err))
}
