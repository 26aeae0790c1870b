package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/noxvision/accounts-api/internal/apperr"
)

// envelope is the JSON shape of every response.
type envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, envelope{Status: true, Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, ok bool, message string) {
	writeJSON(w, status, envelope{Status: ok, Message: message})
}

// writeError maps a lifecycle failure to its HTTP status. Classified errors
// surface their message verbatim; anything else is an internal error.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		message = "Internal server error"
	}
	writeMessage(w, status, false, message)
}
