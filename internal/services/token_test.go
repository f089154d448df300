package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

type stubUserRepo struct {
	users map[int]types.User
}

func newStubUserRepo(users ...types.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[int]types.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *stubUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) GetByUsername(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) GetByVerificationToken(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) GetByPasswordResetToken(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.users[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int) error {
	delete(r.users, id)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	repo := newStubUserRepo(types.User{ID: 42, Email: "a@b.co"})
	svc := NewTokenService(repo, testJWTConfig())

	pair, err := svc.IssueAccessRefresh(context.Background(), 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens to be set")
	}

	userID, err := svc.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}

	userID, err = svc.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}
}

func TestIssuePersistsRefreshToken(t *testing.T) {
	repo := newStubUserRepo(types.User{ID: 7})
	svc := NewTokenService(repo, testJWTConfig())

	pair, err := svc.IssueAccessRefresh(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), 7)
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token not persisted on the user record")
	}
}

func TestIssueUnknownUser(t *testing.T) {
	svc := NewTokenService(newStubUserRepo(), testJWTConfig())

	if _, err := svc.IssueAccessRefresh(context.Background(), 99); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestTokenKindsUseSeparateSecrets(t *testing.T) {
	repo := newStubUserRepo(types.User{ID: 1})
	svc := NewTokenService(repo, testJWTConfig())

	pair, err := svc.IssueAccessRefresh(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.ParseAccess(pair.RefreshToken); err == nil {
		t.Fatalf("refresh token must not validate as an access token")
	}
	if _, err := svc.ParseRefresh(pair.AccessToken); err == nil {
		t.Fatalf("access token must not validate as a refresh token")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	repo := newStubUserRepo(types.User{ID: 1})
	svc := NewTokenService(repo, testJWTConfig())

	pair, err := svc.IssueAccessRefresh(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenService(repo, config.JWTConfig{
		AccessSecret:  "different-secret",
		RefreshSecret: "another-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if _, err := other.ParseAccess(pair.AccessToken); err == nil {
		t.Fatalf("expected token signed with a different secret to be rejected")
	}

	if _, err := svc.ParseAccess(pair.AccessToken + "x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	repo := newStubUserRepo(types.User{ID: 1})
	svc := NewTokenService(repo, config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     -time.Minute,
		RefreshTTL:    time.Hour,
	})

	pair, err := svc.IssueAccessRefresh(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.ParseAccess(pair.AccessToken); err == nil {
		t.Fatalf("expected expired access token to be rejected")
	}
}

func TestNewOpaqueCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewOpaqueCode()
		if len(code) != opaqueCodeLength {
			t.Fatalf("expected %d characters, got %d", opaqueCodeLength, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(opaqueCodeCharset, r) {
				t.Fatalf("unexpected character %q in code %q", r, code)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}
