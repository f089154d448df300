package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	formFieldTitle       = "title"
	formFieldDescription = "description"
	formFieldExcerpt     = "excerpt"
	formFieldCategory    = "category"
	formFieldTags        = "tags"
	formFieldIsActive    = "isActive"
	formFieldIsPublic    = "isPublic"
	featuredImageField   = "featuredImage"
	postImagePrefix      = "posts"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	posts *services.PostService
	media *storage.Storage
}

// NewPostHandler constructs a handler with the provided dependencies.
func NewPostHandler(posts *services.PostService, media *storage.Storage) *PostHandler {
	return &PostHandler{posts: posts, media: media}
}

// PostRouter registers post routes on the given router.
func PostRouter(r chi.Router, h *PostHandler, auth *AuthMiddleware, ownership *OwnershipRegistry) {
	requireOwner := ownership.Require(ResourcePost)

	r.Get("/", h.ListPosts)
	r.With(auth.RequireAuth, auth.RequireAuthor).Post("/", h.CreatePost)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetPost)
		r.With(auth.RequireAuth, auth.RequireAuthor, requireOwner).Patch("/", h.UpdatePost)
		r.With(auth.RequireAuth, auth.RequireAuthor, requireOwner).Delete("/", h.DeletePost)
	})
}

// PostListResponse is the paginated list response payload.
type PostListResponse struct {
	Items []types.Post `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.posts.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	resp := PostListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}
	writeData(w, http.StatusOK, resp, "Fetched all posts")
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return
	}

	writeData(w, http.StatusOK, post, "Post fetched successfully!")
}

// CreatePost accepts a multipart form so the featured image can be
// uploaded alongside the post fields.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	description := strings.TrimSpace(r.FormValue(formFieldDescription))
	if err := validateNotEmpty(title, description); err != nil {
		writeError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	categoryID, err := parseOptionalInt(r.FormValue(formFieldCategory))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	tagIDs, err := parseTagIDs(r.FormValue(formFieldTags))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tags")
		return
	}

	isActive, err := parseOptionalBool(r.FormValue(formFieldIsActive), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid isActive")
		return
	}
	isPublic, err := parseOptionalBool(r.FormValue(formFieldIsPublic), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid isPublic")
		return
	}

	if _, err := h.posts.GetByTitle(r.Context(), title); err == nil {
		writeError(w, http.StatusBadRequest, "post with this title already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	var featuredImage string
	file, err := parseUploadedFile(r.MultipartForm, featuredImageField, maxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if file != nil {
		key := objectKey(postImagePrefix, identity.ID, file.Filename)
		if err := h.media.Put(r.Context(), key, bytes.NewReader(file.Data), int64(len(file.Data)), file.ContentType); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		featuredImage = key
	}

	post, err := h.posts.Create(r.Context(), types.Post{
		Title:         title,
		Description:   description,
		Excerpt:       strings.TrimSpace(r.FormValue(formFieldExcerpt)),
		CategoryID:    categoryID,
		TagIDs:        tagIDs,
		UserID:        identity.ID,
		IsActive:      isActive,
		IsPublic:      isPublic,
		FeaturedImage: featuredImage,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "post with this title already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	writeData(w, http.StatusCreated, post, "Post created successfully!")
}

// PostUpdateRequest carries a partial post update. Pointer fields
// distinguish "absent" from an explicit zero value: only non-nil
// fields are applied, so false and empty strings are valid updates.
type PostUpdateRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Excerpt       *string `json:"excerpt"`
	CategoryID    *int    `json:"category_id"`
	TagIDs        *[]int  `json:"tag_ids"`
	IsActive      *bool   `json:"is_active"`
	IsPublic      *bool   `json:"is_public"`
	FeaturedImage *string `json:"featured_image"`
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PostUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		if title != post.Title {
			if _, err := h.posts.GetByTitle(r.Context(), title); err == nil {
				writeError(w, http.StatusBadRequest, "post with this title already exists")
				return
			} else if !errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusInternalServerError, "failed to update post")
				return
			}
		}
		post.Title = title
	}
	if req.Description != nil {
		post.Description = *req.Description
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.CategoryID != nil {
		post.CategoryID = *req.CategoryID
	}
	if req.TagIDs != nil {
		post.TagIDs = *req.TagIDs
	}
	if req.IsActive != nil {
		post.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		post.IsPublic = *req.IsPublic
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = *req.FeaturedImage
	}

	post, err = h.posts.Update(r.Context(), post)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "post with this title already exists")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}

	writeData(w, http.StatusOK, post, "Post updated successfully")
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	if post.FeaturedImage != "" {
		_ = h.media.Delete(r.Context(), post.FeaturedImage)
	}

	writeData(w, http.StatusOK, struct{}{}, "Post deleted successfully")
}

func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseOptionalBool(value string, defaultValue bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(value)
}

// parseTagIDs parses a comma-separated list of tag ids, preserving
// submission order.
func parseTagIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 1 {
			return nil, errors.New("invalid tag id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
