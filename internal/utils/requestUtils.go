package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// RespondWithJSON writes payload with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// SendJSONError writes the {success:false, error:msg} envelope.
func SendJSONError(w http.ResponseWriter, msg string, status int) {
	RespondWithJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// SendJSONSuccess writes the {success:true, message?, data?} envelope.
func SendJSONSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	RespondWithJSON(w, status, body)
}

// DecodeJSONBody decodes a bounded request body into dst. An empty body is
// treated as an empty object so handlers report missing fields instead of
// decode errors.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
