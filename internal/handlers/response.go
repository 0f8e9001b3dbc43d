package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jobtracker/apiserver/internal/logging"
)

// Client-facing messages not owned by the auth package.
const (
	MessageSignInSuccess     = "Sign-in successful"
	MessageSignedOut         = "Signed out"
	MessageSignUpSuccess     = "Profile created successfully."
	MessageDuplicateEmail    = "A profile with this email already exists"
	MessageActivationFailed  = "Account activation failed. Have you already activated your account?"
	MessageActivated         = "Account successfully activated."
	MessageForbidden         = "You are not allowed to perform this task"
	MessageProfileNotFound   = "Profile does not exist"
	MessageProfileUpdated    = "Profile updated successfully"
	MessageResumeUploaded    = "Resume uploaded successfully"
	MessageTooManyRequests   = "Too many sign-in attempts. Please try again later."
	MessageInternalError     = "Internal server error. Please try again later."
	MessageInvalidBody       = "Invalid request body."
	MessageInvalidResume     = "Resume must be a PDF file of at most 10 MiB."
	MessagePasswordsMismatch = "Passwords do not match."
)

// Envelope is the body of every API response. Message is null when Data
// carries the result.
type Envelope struct {
	Status  int     `json:"status"`
	Message *string `json:"message"`
	Data    any     `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeStatus writes a message envelope whose status mirrors the HTTP
// status code.
func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Status: status, Message: &message})
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Status: http.StatusOK, Data: data})
}

func logInternal(logger *slog.Logger, r *http.Request, msg string, err error) {
	logging.LogError(logger, msg, err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
}
