package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/inkpress/apiserver/types"
)

func TestCreateCategoryRequiresAuth(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(env, http.MethodPost, "/api/category/", map[string]string{
		"title":       "news",
		"description": "Current events",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)
	cookie := loginCookie(t, env, author.ID)

	rec := doJSON(env, http.MethodPost, "/api/category/", map[string]string{
		"title":       "news",
		"description": "Current events",
	}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(env, http.MethodGet, "/api/category/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get failed: %d", rec.Code)
	}

	rec = doJSON(env, http.MethodPatch, "/api/category/1", map[string]string{
		"title": "world-news",
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed: %d: %s", rec.Code, rec.Body.String())
	}

	updated, _ := env.catRepo.Get(context.Background(), 1)
	if updated.Title != "world-news" || updated.Description != "Current events" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	rec = doJSON(env, http.MethodDelete, "/api/category/1", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", rec.Code)
	}

	rec = doJSON(env, http.MethodGet, "/api/category/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCategoryDuplicateTitle(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)
	cookie := loginCookie(t, env, author.ID)

	payload := map[string]string{"title": "tech", "description": "Technology"}
	if rec := doJSON(env, http.MethodPost, "/api/category/", payload, cookie); rec.Code != http.StatusCreated {
		t.Fatalf("first create failed: %d", rec.Code)
	}
	if rec := doJSON(env, http.MethodPost, "/api/category/", payload, cookie); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate category, got %d", rec.Code)
	}
}
