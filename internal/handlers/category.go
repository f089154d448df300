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

// CategoryHandler provides HTTP handlers for categories.
type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// CategoryRouter registers category routes on the given router.
func CategoryRouter(r chi.Router, h *CategoryHandler, auth *AuthMiddleware, ownership *OwnershipRegistry) {
	requireOwner := ownership.Require(ResourceCategory)

	r.Get("/", h.ListCategories)
	r.With(auth.RequireAuth, auth.RequireAuthor).Post("/", h.CreateCategory)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetCategory)
		r.With(auth.RequireAuth, auth.RequireAuthor, requireOwner).Patch("/", h.UpdateCategory)
		r.With(auth.RequireAuth, auth.RequireAuthor, requireOwner).Delete("/", h.DeleteCategory)
	})
}

// CategoryRequest is the create payload for a category.
type CategoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CategoryUpdateRequest carries a partial category update. Only non-nil
// fields are applied.
type CategoryUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeData(w, http.StatusOK, categories, "Fetched all categories")
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch category")
		return
	}

	writeData(w, http.StatusOK, category, "Category fetched successfully!")
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	identity, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CategoryRequest
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

	category, err := h.categories.Create(r.Context(), types.Category{
		Title:       req.Title,
		Description: req.Description,
		UserID:      identity.ID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "category already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	writeData(w, http.StatusCreated, category, "Category created successfully!")
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CategoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		category.Title = title
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	category, err = h.categories.Update(r.Context(), category)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "category already exists")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	writeData(w, http.StatusOK, category, "Category updated successfully")
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "Category deleted successfully")
}
