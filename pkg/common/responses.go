package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Envelope wraps every successful response body
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes list responses
type Meta struct {
	Count int `json:"count"`
}

// RespondJSON writes data inside an Envelope
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	respond(w, status, Envelope{Success: status < 300, Data: data})
}

// RespondList writes a list and its length
func RespondList(w http.ResponseWriter, status int, data interface{}, count int) {
	respond(w, status, Envelope{Success: status < 300, Data: data, Meta: &Meta{Count: count}})
}

func respond(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure can only truncate the body.
	_ = json.NewEncoder(w).Encode(body)
}

// ParseJSONBody decodes a single JSON object of at most maxBytes and rejects
// unknown fields and trailing data
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("body must not be empty")
		}
		return err
	}
	if decoder.More() {
		return fmt.Errorf("body must contain a single JSON object")
	}
	return nil
}
