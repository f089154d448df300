package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// AuthMiddleware gates access to protected routes. RequireAuth
// validates the access token and attaches the resolved identity to the
// request context; RequireAuthor and RequireVerified add role and
// verification gates on top and must run after RequireAuth.
type AuthMiddleware struct {
	users  *services.UserService
	tokens *services.TokenService
}

func NewAuthMiddleware(users *services.UserService, tokens *services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{users: users, tokens: tokens}
}

// RequireAuth enforces access-token authentication and injects the
// sanitized identity into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := accessTokenFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		userID, err := m.tokens.ParseAccess(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, sanitizeUser(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthor rejects identities without the author role.
func (m *AuthMiddleware) RequireAuthor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if user.Role != types.RoleAuthor {
			writeError(w, http.StatusForbidden, "author access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerified rejects identities that have not verified their
// email address.
func (m *AuthMiddleware) RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.Verified {
			writeError(w, http.StatusForbidden, "account is not verified")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessTokenFromRequest extracts the access token from the session
// cookie, falling back to an Authorization bearer header.
func accessTokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token, nil
		}
	}

	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
