package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/inkpress/apiserver/types"
)

func createPostForm(t *testing.T, env *testEnv, cookie *http.Cookie, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/posts/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePostRequiresAuthorRole(t *testing.T) {
	env := newTestEnv()
	reader := seedUser(t, env, "reader@example.com", "justreads", true, types.RoleUser)

	rec := createPostForm(t, env, loginCookie(t, env, reader.ID), map[string]string{
		"title":       "First Post",
		"description": "Body text",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-author, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)

	rec := createPostForm(t, env, loginCookie(t, env, author.ID), map[string]string{
		"title":       "First Post",
		"description": "Body text",
		"excerpt":     "Short take",
		"category":    "3",
		"tags":        "2,1,5",
		"isPublic":    "false",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := decodeEnvelope(t, rec)
	var post types.Post
	if err := json.Unmarshal(data, &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}

	if post.UserID != author.ID {
		t.Fatalf("expected post to belong to creator, got user %d", post.UserID)
	}
	if !reflect.DeepEqual(post.TagIDs, []int{2, 1, 5}) {
		t.Fatalf("expected tag ids in submission order, got %v", post.TagIDs)
	}
	if post.CategoryID != 3 {
		t.Fatalf("expected category 3, got %d", post.CategoryID)
	}
	if !post.IsActive {
		t.Fatalf("isActive should default to true")
	}
	if post.IsPublic {
		t.Fatalf("explicit isPublic=false was ignored")
	}
}

func TestCreatePostDuplicateTitle(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)
	cookie := loginCookie(t, env, author.ID)

	rec := createPostForm(t, env, cookie, map[string]string{
		"title":       "Unique Title",
		"description": "Body",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create failed: %d", rec.Code)
	}

	rec = createPostForm(t, env, cookie, map[string]string{
		"title":       "Unique Title",
		"description": "Other body",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate title, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdatePostPartial(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)
	cookie := loginCookie(t, env, author.ID)

	post, err := env.postRepo.Create(context.Background(), types.Post{
		Title:       "Original",
		Description: "Original body",
		UserID:      author.ID,
		IsActive:    true,
		IsPublic:    true,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}

	rec := doJSON(env, http.MethodPatch, "/api/posts/1", map[string]any{
		"is_public": false,
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, _ := env.postRepo.Get(context.Background(), post.ID)
	if updated.IsPublic {
		t.Fatalf("explicit is_public=false was not applied")
	}
	if updated.Title != "Original" || updated.Description != "Original body" || !updated.IsActive {
		t.Fatalf("fields absent from the request must not change: %+v", updated)
	}
}

func TestUpdatePostNonOwnerForbidden(t *testing.T) {
	env := newTestEnv()
	owner := seedUser(t, env, "owner@example.com", "theowner", true, types.RoleAuthor)
	other := seedUser(t, env, "other@example.com", "theother", true, types.RoleAuthor)

	post, err := env.postRepo.Create(context.Background(), types.Post{
		Title:       "Mine",
		Description: "Owned content",
		UserID:      owner.ID,
	})
	if err != nil {
		t.Fatalf("seed post: %v", err)
	}

	rec := doJSON(env, http.MethodPatch, "/api/posts/1", map[string]string{
		"title": "Stolen",
	}, loginCookie(t, env, other.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	unchanged, _ := env.postRepo.Get(context.Background(), post.ID)
	if unchanged.Title != "Mine" {
		t.Fatalf("post must not change on forbidden update: %+v", unchanged)
	}
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)

	if _, err := env.postRepo.Create(context.Background(), types.Post{
		Title:       "Doomed",
		Description: "Soon gone",
		UserID:      author.ID,
	}); err != nil {
		t.Fatalf("seed post: %v", err)
	}

	rec := doJSON(env, http.MethodDelete, "/api/posts/1", nil, loginCookie(t, env, author.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(env, http.MethodGet, "/api/posts/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestListPostsPagination(t *testing.T) {
	env := newTestEnv()
	author := seedUser(t, env, "writer@example.com", "wordsmith", true, types.RoleAuthor)

	for _, title := range []string{"One", "Two", "Three"} {
		if _, err := env.postRepo.Create(context.Background(), types.Post{
			Title:       title,
			Description: "Body",
			UserID:      author.ID,
		}); err != nil {
			t.Fatalf("seed post: %v", err)
		}
	}

	rec := doJSON(env, http.MethodGet, "/api/posts/?page=2&limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data, _ := decodeEnvelope(t, rec)
	var resp PostListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if resp.Page != 2 || resp.Limit != 2 {
		t.Fatalf("unexpected paging echo: %+v", resp)
	}
	if resp.Total != 3 {
		t.Fatalf("expected total 3, got %d", resp.Total)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item on page 2, got %d", len(resp.Items))
	}
}

func TestListPostsBadPagination(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(env, http.MethodGet, "/api/posts/?page=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page=0, got %d", rec.Code)
	}

	rec = doJSON(env, http.MethodGet, "/api/posts/?limit=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestParseTagIDs(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "7", want: []int{7}},
		{in: "2, 1 ,5", want: []int{2, 1, 5}},
		{in: "1,,2", want: []int{1, 2}},
		{in: "1,x", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
	}

	for _, tc := range cases {
		got, err := parseTagIDs(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseTagIDs(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseTagIDs(%q): %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseTagIDs(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
