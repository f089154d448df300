package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkpress/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// APIResponse is the uniform success envelope.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

// APIError is the uniform error envelope.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, APIResponse{StatusCode: status, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIError{StatusCode: status, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// userFromContext returns the identity attached by RequireAuth.
func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok || user.ID < 1 {
		return types.User{}, errors.New("missing identity")
	}
	return user, nil
}

// sanitizeUser strips credential fields before a user record leaves
// the system, whether in a response body or on the request context.
func sanitizeUser(user types.User) types.User {
	user.PasswordHash = ""
	user.RefreshToken = ""
	user.VerificationToken = ""
	user.VerificationTokenExpiry = nil
	user.PasswordResetToken = ""
	user.PasswordResetTokenExpiry = nil
	return user
}
