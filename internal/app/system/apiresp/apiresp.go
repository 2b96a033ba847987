// Package apiresp writes the JSON envelopes used by every /api endpoint:
//
//	{"status":"success","data":...}
//	{"status":"error","message":"...","errors":{...}}
package apiresp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Envelope is the response body shape.
type Envelope struct {
	Status   string            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Data     any               `json:"data,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Status: "success", Data: data})
}

// Error writes an error envelope. msg must be safe to show to clients.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Status: "error", Message: msg})
}

// Invalid writes a 400 with per-field messages.
func Invalid(w http.ResponseWriter, fields map[string]string) {
	JSON(w, http.StatusBadRequest, Envelope{Status: "error", Message: "validation failed", Errors: fields})
}

// Decode reads a JSON body into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// FieldErrors flattens ozzo-validation errors into field → message.
// ok is false when err is not a validation failure.
func FieldErrors(err error) (fields map[string]string, ok bool) {
	var ve validation.Errors
	if !errors.As(err, &ve) {
		return nil, false
	}
	fields = make(map[string]string, len(ve))
	for k, v := range ve {
		if v != nil {
			fields[k] = v.Error()
		}
	}
	return fields, true
}

// PathID parses the {id} URL parameter. On a malformed id it writes a 400
// and returns ok=false.
func PathID(w http.ResponseWriter, r *http.Request) (id primitive.ObjectID, ok bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
