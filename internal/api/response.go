package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/LoveLoop/internal/models"
)

// fallbackErrorResponse is pre-marshaled so a response can always be
// written even when encoding the real payload fails.
var fallbackErrorResponse = []byte(`{"status":"error","message":"internal server error"}`)

// writeJSONResponse writes a standardized JSON response with the given
// HTTP status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	payload, err := json.Marshal(response)
	if err != nil {
		slog.Error("api.writeJSONResponse: failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(fallbackErrorResponse)
		return
	}

	w.WriteHeader(statusCode)
	if _, err := w.Write(payload); err != nil {
		slog.Error("api.writeJSONResponse: failed to write response", "error", err)
	}
}
