// Package httpx holds small helpers for writing HTTP responses.
package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes resp as the JSON body of a response with the given status.
func WriteJSON(w http.ResponseWriter, status int, resp any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}
