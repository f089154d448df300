package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/mail"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	avatarField     = "avatar"
	coverImageField = "coverImage"
	avatarPrefix    = "avatar"
	coverPrefix     = "cover-image"
)

// UserHandler provides account, session, and profile endpoints.
type UserHandler struct {
	users           *services.UserService
	tokens          *services.TokenService
	mailer          mail.Mailer
	media           *storage.Storage
	verificationTTL time.Duration
	resetTTL        time.Duration
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(
	users *services.UserService,
	tokens *services.TokenService,
	mailer mail.Mailer,
	media *storage.Storage,
	cfg config.TokenConfig,
) *UserHandler {
	return &UserHandler{
		users:           users,
		tokens:          tokens,
		mailer:          mailer,
		media:           media,
		verificationTTL: cfg.VerificationTTL,
		resetTTL:        cfg.PasswordResetTTL,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, h *UserHandler, auth *AuthMiddleware) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.With(auth.RequireAuth).Post("/logout", h.Logout)
	r.Get("/verify-account", h.VerifyAccount)
	r.Patch("/resend-verify-account", h.ResendVerifyAccount)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Patch("/forgot-password-request", h.ForgotPasswordRequest)
	r.With(auth.RequireAuth).Patch("/reset-password", h.ResetPassword)
	r.With(auth.RequireAuth, auth.RequireVerified).Patch("/become-author", h.BecomeAuthor)
	r.Post("/refresh-token", h.RefreshToken)
	r.With(auth.RequireAuth).Patch("/upload-avatar", h.UploadAvatar)
	r.With(auth.RequireAuth).Patch("/remove-avatar", h.RemoveAvatar)
	r.With(auth.RequireAuth).Patch("/upload-cover-image", h.UploadCoverImage)
	r.With(auth.RequireAuth).Patch("/remove-cover-image", h.RemoveCoverImage)
	r.Get("/profile/{username}", h.Profile)
	r.With(auth.RequireAuth).Patch("/update-profile", h.UpdateProfile)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User         types.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Register creates a new unverified account and dispatches the
// verification email.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)

	if err := validateNotEmpty(req.Email, req.Username, req.FullName, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if taken, err := h.identifierTaken(r, req.Email, req.Username, 0); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check user")
		return
	} else if taken {
		writeError(w, http.StatusConflict, "user with email or username already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.users.Create(r.Context(), types.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         types.RoleUser,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "user with email or username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err = h.issueVerificationCode(r, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send verification email")
		return
	}

	writeData(w, http.StatusCreated, sanitizeUser(user), "User registered!")
}

// Login verifies credentials and starts a session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := validateNotEmpty(req.Email, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user with this email does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	pair, err := h.tokens.IssueAccessRefresh(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	setAuthCookies(w, pair)
	writeData(w, http.StatusOK, LoginResponse{
		User:         sanitizeUser(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully!")
}

// Logout clears the stored refresh token and the session cookies.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	user.RefreshToken = ""
	if _, err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w)
	writeData(w, http.StatusOK, struct{}{}, "User logged out")
}

// VerifyAccount consumes a verification code supplied as a query
// parameter and marks the account verified.
func (h *UserHandler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "verification token is missing")
		return
	}

	user, err := h.users.GetByVerificationToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found or is already verified")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to verify account")
		return
	}

	if user.VerificationTokenExpiry == nil || time.Now().After(*user.VerificationTokenExpiry) {
		writeError(w, http.StatusBadRequest, "verification token has expired")
		return
	}

	user.Verified = true
	user.VerificationToken = ""
	user.VerificationTokenExpiry = nil
	user, err = h.users.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify account")
		return
	}

	writeData(w, http.StatusOK, sanitizeUser(user), "Account verified!")
}

// ResendVerifyAccount issues a fresh verification code, overwriting
// any pending one.
func (h *UserHandler) ResendVerifyAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := validateNotEmpty(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user with this email does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resend verification email")
		return
	}

	if user.Verified {
		writeError(w, http.StatusNotFound, "user is already verified")
		return
	}

	if _, err := h.issueVerificationCode(r, user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send verification email")
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "Verification link sent to your email")
}

// ForgotPassword issues a password reset code and emails it.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := validateNotEmpty(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user with this email does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create reset code")
		return
	}

	code := services.NewOpaqueCode()
	expiry := time.Now().Add(h.resetTTL)
	user.PasswordResetToken = code
	user.PasswordResetTokenExpiry = &expiry
	if _, err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create reset code")
		return
	}

	if err := h.mailer.SendPasswordResetEmail(r.Context(), user.Email, code); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send reset email")
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "Password reset link sent to your email")
}

// ForgotPasswordRequest consumes a reset code and sets a new password.
func (h *UserHandler) ForgotPasswordRequest(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "reset token is missing")
		return
	}

	user, err := h.users.GetByPasswordResetToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "password reset request is invalid")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	if user.PasswordResetTokenExpiry == nil || time.Now().After(*user.PasswordResetTokenExpiry) {
		writeError(w, http.StatusBadRequest, "password reset token has expired")
		return
	}

	var req struct {
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := validateNotEmpty(req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	user.PasswordHash = string(hashed)
	user.PasswordResetToken = ""
	user.PasswordResetTokenExpiry = nil
	if _, err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "Password reset successfully!")
}

// ResetPassword changes the password of an authenticated user. The new
// password must differ from the old one.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := validateNotEmpty(req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid old password")
		return
	}

	if err := validatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if req.NewPassword == req.OldPassword {
		writeError(w, http.StatusBadRequest, "new password cannot be same as old password")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	user.PasswordHash = string(hashed)
	if _, err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "Password reset successfully!")
}

// BecomeAuthor elevates a verified user to the author role.
func (h *UserHandler) BecomeAuthor(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	user.Role = types.RoleAuthor
	user, err = h.users.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	writeData(w, http.StatusOK, sanitizeUser(user), "You are now an author!")
}

// RefreshToken exchanges a valid refresh token for a new access and
// refresh pair. The presented token must match the one stored on the
// user record exactly; a mismatch is rejected outright.
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	tokenString := refreshTokenFromRequest(r)
	if tokenString == "" {
		writeError(w, http.StatusUnauthorized, "refresh token is missing")
		return
	}

	userID, err := h.tokens.ParseRefresh(tokenString)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if user.RefreshToken == "" || user.RefreshToken != tokenString {
		writeError(w, http.StatusUnauthorized, "refresh token mismatch")
		return
	}

	pair, err := h.tokens.IssueAccessRefresh(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	setAuthCookies(w, pair)
	writeData(w, http.StatusOK, pair, "Token refreshed")
}

// UploadAvatar stores a new avatar image and records its key.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, avatarField, avatarPrefix, "Avatar image uploaded successfully!")
}

// UploadCoverImage stores a new profile cover image and records its key.
func (h *UserHandler) UploadCoverImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, coverImageField, coverPrefix, "Cover image uploaded successfully!")
}

func (h *UserHandler) uploadImage(w http.ResponseWriter, r *http.Request, field, prefix, message string) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, err := parseUploadedFile(r.MultipartForm, field, maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, "please upload a file")
		return
	}

	key := objectKey(prefix, identity.ID, file.Filename)
	if err := h.media.Put(r.Context(), key, bytes.NewReader(file.Data), int64(len(file.Data)), file.ContentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	oldKey := user.Avatar
	if field == coverImageField {
		oldKey = user.CoverImage
	}

	if field == coverImageField {
		user.CoverImage = key
	} else {
		user.Avatar = key
	}

	user, err = h.users.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	if oldKey != "" {
		_ = h.media.Delete(r.Context(), oldKey)
	}

	writeData(w, http.StatusOK, sanitizeUser(user), message)
}

// RemoveAvatar clears the avatar image reference.
func (h *UserHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	h.removeImage(w, r, avatarField, "Avatar image removed")
}

// RemoveCoverImage clears the cover image reference.
func (h *UserHandler) RemoveCoverImage(w http.ResponseWriter, r *http.Request) {
	h.removeImage(w, r, coverImageField, "Cover image removed")
}

func (h *UserHandler) removeImage(w http.ResponseWriter, r *http.Request, field, message string) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	var oldKey string
	if field == coverImageField {
		oldKey = user.CoverImage
		user.CoverImage = ""
	} else {
		oldKey = user.Avatar
		user.Avatar = ""
	}

	user, err = h.users.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	if oldKey != "" {
		_ = h.media.Delete(r.Context(), oldKey)
	}

	writeData(w, http.StatusOK, sanitizeUser(user), message)
}

// Profile returns the public profile for a username.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	writeData(w, http.StatusOK, sanitizeUser(user), "User profile fetched successfully!")
}

type UpdateProfileRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	FullName *string `json:"fullName"`
}

// UpdateProfile applies a partial update to the caller's profile.
// Only fields present in the request body change; absent fields retain
// their prior value.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := validateEmail(email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.Email = email
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := validateUsername(username); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.Username = username
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}

	if taken, err := h.identifierTaken(r, user.Email, user.Username, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	} else if taken {
		writeError(w, http.StatusConflict, "user with email or username already exists")
		return
	}

	user, err = h.users.Update(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "user with email or username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeData(w, http.StatusOK, sanitizeUser(user), "Profile updated successfully!")
}

// identifierTaken reports whether the email or username belongs to a
// different user than selfID.
func (h *UserHandler) identifierTaken(r *http.Request, email, username string, selfID int) (bool, error) {
	if existing, err := h.users.GetByEmail(r.Context(), email); err == nil {
		if existing.ID != selfID {
			return true, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	if existing, err := h.users.GetByUsername(r.Context(), username); err == nil {
		if existing.ID != selfID {
			return true, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	return false, nil
}

// issueVerificationCode generates and persists a fresh verification
// code and dispatches the email. Returns the updated user.
func (h *UserHandler) issueVerificationCode(r *http.Request, user types.User) (types.User, error) {
	code := services.NewOpaqueCode()
	expiry := time.Now().Add(h.verificationTTL)
	user.VerificationToken = code
	user.VerificationTokenExpiry = &expiry

	user, err := h.users.Update(r.Context(), user)
	if err != nil {
		return types.User{}, err
	}

	if err := h.mailer.SendVerificationEmail(r.Context(), user.Email, code); err != nil {
		return types.User{}, err
	}
	return user, nil
}

func setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			MaxAge:   -1,
		})
	}
}

// refreshTokenFromRequest extracts the refresh token from the session
// cookie, falling back to a JSON body field.
func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return strings.TrimSpace(body.RefreshToken)
	}
	return ""
}
