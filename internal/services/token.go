package services

import (
	"context"
	"crypto/rand"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkpress/apiserver/config"
)

const opaqueCodeLength = 20

const opaqueCodeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrInvalidToken is returned for any token that fails signature,
// expiry, or claim checks. Callers do not need to distinguish why.
var ErrInvalidToken = errors.New("invalid token")

// TokenPair is an access/refresh token set issued for one session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService issues and validates the identity-bound tokens: signed
// access and refresh JWTs, and opaque single-use codes for email
// verification and password reset. Access and refresh tokens use
// separate secrets and lifetimes. The refresh token is persisted on
// the user record so it can be revoked independently of its expiry.
type TokenService struct {
	users         UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(users UserRepository, cfg config.JWTConfig) *TokenService {
	return &TokenService{
		users:         users,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// IssueAccessRefresh signs a new access/refresh pair for the user and
// persists the refresh token on the user record, revoking any prior
// refresh token.
func (s *TokenService) IssueAccessRefresh(ctx context.Context, userID int) (TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := signToken(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	user.RefreshToken = refresh
	if _, err := s.users.Update(ctx, user); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token and returns the user id it was
// issued for.
func (s *TokenService) ParseAccess(tokenString string) (int, error) {
	return parseTokenSubject(tokenString, s.accessSecret)
}

// ParseRefresh verifies a refresh token and returns the user id it was
// issued for. Callers must additionally compare the presented token
// against the one stored on the user record.
func (s *TokenService) ParseRefresh(tokenString string) (int, error) {
	return parseTokenSubject(tokenString, s.refreshSecret)
}

// NewOpaqueCode returns a random fixed-length single-use code. Pure
// randomness generation; callers persist it with an expiry themselves.
func NewOpaqueCode() string {
	buf := make([]byte, opaqueCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = opaqueCodeCharset[int(b)%len(opaqueCodeCharset)]
	}
	return string(buf)
}

func signToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
