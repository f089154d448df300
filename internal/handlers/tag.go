package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/store"
	"github.com/inkpress/apiserver/types"
)

// TagHandler provides HTTP handlers for tags.
type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// TagRouter registers tag routes on the given router.
func TagRouter(r chi.Router, h *TagHandler, auth *AuthMiddleware, ownership *OwnershipRegistry) {
	requireOwner := ownership.Require(ResourceTag)

	r.Get("/", h.ListTags)
	r.With(auth.RequireAuth, auth.RequireAuthor).Post("/", h.CreateTag)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetTag)
		r.With(auth.RequireAuth, auth.RequireAuthor, requireOwner).Patch("/", h.UpdateTag)
		r.With(auth.RequireAuth, auth.RequireAuthor, requireOwner).Delete("/", h.DeleteTag)
	})
}

// TagRequest is the create payload for a tag.
type TagRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TagUpdateRequest carries a partial tag update. Only non-nil fields
// are applied.
type TagUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	writeData(w, http.StatusOK, tags, "Fetched all tags")
}

func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tag, err := h.tags.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch tag")
		return
	}

	writeData(w, http.StatusOK, tag, "Tag fetched successfully!")
}

func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := validateNotEmpty(req.Title, req.Description); err != nil {
		writeError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	tag, err := h.tags.Create(r.Context(), types.Tag{
		Title:       req.Title,
		Description: req.Description,
		UserID:      identity.ID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "tag already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}

	writeData(w, http.StatusCreated, tag, "Tag created successfully!")
}

func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req TagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	tag, err := h.tags.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		tag.Title = title
	}
	if req.Description != nil {
		tag.Description = *req.Description
	}

	tag, err = h.tags.Update(r.Context(), tag)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "tag already exists")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}

	writeData(w, http.StatusOK, tag, "Tag updated successfully")
}

func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tags.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "Tag deleted successfully")
}
