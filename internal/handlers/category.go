package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"github.com/petalframe/catalog-backend/internal/services"
)

type CategoryHandler struct {
	log       *logger.Logger
	aggregate domainagg.CategoryAggregate
	browse    services.BrowseService
}

func NewCategoryHandler(log *logger.Logger, aggregate domainagg.CategoryAggregate, browse services.BrowseService) *CategoryHandler {
	return &CategoryHandler{
		log:       log.With("handler", "CategoryHandler"),
		aggregate: aggregate,
		browse:    browse,
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return 0, false
	}
	return id, true
}

// Tree serves the visible category tree. Without a path it returns visible
// roots; with ?path= it returns that node's visible children, or the whole
// visible subtree when ?deep=true.
func (h *CategoryHandler) Tree(c *gin.Context) {
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		roots, err := h.browse.VisibleRoots(c.Request.Context())
		if err != nil {
			h.log.Error("listing visible roots failed", "error", err)
			RespondError(c, http.StatusInternalServerError, "list_failed", err)
			return
		}
		RespondOK(c, gin.H{"categories": roots})
		return
	}

	var (
		categories []*catalog.Category
		err        error
	)
	if c.Query("deep") == "true" {
		categories, err = h.browse.VisibleSubtree(c.Request.Context(), path)
	} else {
		categories, err = h.browse.VisibleChildren(c.Request.Context(), path)
	}
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_path", err)
		return
	}
	RespondOK(c, gin.H{"categories": categories})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	category, err := h.browse.CategoryByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error("category load failed", "category_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	if category == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"category": category})
}

type createCategoryRequest struct {
	Name         string  `json:"name" binding:"required"`
	Slug         string  `json:"slug" binding:"required"`
	ParentID     *int64  `json:"parent_id"`
	Description  *string `json:"description"`
	ImageKey     *string `json:"image_key"`
	DisplayOrder int     `json:"display_order"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	res, err := h.aggregate.CreateCategory(c.Request.Context(), domainagg.CreateCategoryInput{
		Name:         req.Name,
		Slug:         req.Slug,
		ParentID:     req.ParentID,
		Description:  req.Description,
		ImageKey:     req.ImageKey,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": res.Category})
}

type updateCategoryRequest struct {
	ExpectedVersion int64 `json:"expected_version" binding:"required"`

	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	Description  *string `json:"description"`
	ImageKey     *string `json:"image_key"`
	DisplayOrder *int    `json:"display_order"`
	Status       *string `json:"status"`
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	in := domainagg.UpdateCategoryInput{ID: id, ExpectedVersion: req.ExpectedVersion}
	if req.Name != nil {
		in.Name = catalog.Set(*req.Name)
	}
	if req.Slug != nil {
		in.Slug = catalog.Set(*req.Slug)
	}
	if req.Description != nil {
		in.Description = catalog.Set(req.Description)
	}
	if req.ImageKey != nil {
		in.ImageKey = catalog.Set(req.ImageKey)
	}
	if req.DisplayOrder != nil {
		in.DisplayOrder = catalog.Set(*req.DisplayOrder)
	}
	if req.Status != nil {
		in.Status = catalog.Set(*req.Status)
	}

	res, err := h.aggregate.UpdateCategory(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, gin.H{"category": res.Category, "changed": res.Changed})
}

type lifecycleRequest struct {
	ExpectedVersion int64 `json:"expected_version" binding:"required"`
}

func (h *CategoryHandler) lifecycleInput(c *gin.Context) (domainagg.LifecycleInput, bool) {
	id, ok := parseID(c)
	if !ok {
		return domainagg.LifecycleInput{}, false
	}
	var req lifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return domainagg.LifecycleInput{}, false
	}
	return domainagg.LifecycleInput{ID: id, ExpectedVersion: req.ExpectedVersion, At: time.Now().UTC()}, true
}

func (h *CategoryHandler) Archive(c *gin.Context) {
	in, ok := h.lifecycleInput(c)
	if !ok {
		return
	}
	res, err := h.aggregate.ArchiveCategory(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *CategoryHandler) Restore(c *gin.Context) {
	in, ok := h.lifecycleInput(c)
	if !ok {
		return
	}
	res, err := h.aggregate.RestoreCategory(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	in, ok := h.lifecycleInput(c)
	if !ok {
		return
	}
	if err := h.aggregate.DeleteCategory(c.Request.Context(), in); err != nil {
		RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
