package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"github.com/petalframe/catalog-backend/internal/services"
)

type ProductHandler struct {
	log       *logger.Logger
	aggregate domainagg.ProductAggregate
	browse    services.BrowseService
}

func NewProductHandler(log *logger.Logger, aggregate domainagg.ProductAggregate, browse services.BrowseService) *ProductHandler {
	return &ProductHandler{
		log:       log.With("handler", "ProductHandler"),
		aggregate: aggregate,
		browse:    browse,
	}
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.browse.ProductByID(c.Request.Context(), id)
	if err != nil {
		h.log.Error("product load failed", "product_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	if product == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, gin.H{"product": product})
}

func (h *ProductHandler) ListByCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	products, err := h.browse.VisibleProducts(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.log.Error("product listing failed", "category_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"products": products})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

type createProductRequest struct {
	Name         string           `json:"name" binding:"required"`
	Slug         string           `json:"slug" binding:"required"`
	CategoryID   int64            `json:"category_id" binding:"required"`
	Price        *float64         `json:"price"`
	Availability string           `json:"availability"`
	Meta         *catalog.SEOMeta `json:"meta"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	res, err := h.aggregate.CreateProduct(c.Request.Context(), domainagg.CreateProductInput{
		Name:         req.Name,
		Slug:         req.Slug,
		CategoryID:   req.CategoryID,
		Price:        req.Price,
		Availability: req.Availability,
		Meta:         req.Meta,
	})
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": res.Product})
}

type updateProductRequest struct {
	ExpectedVersion int64 `json:"expected_version" binding:"required"`

	Name         *string          `json:"name"`
	Slug         *string          `json:"slug"`
	CategoryID   *int64           `json:"category_id"`
	Price        *float64         `json:"price"`
	Status       *string          `json:"status"`
	Availability *string          `json:"availability"`
	Meta         *catalog.SEOMeta `json:"meta"`
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	in := domainagg.UpdateProductInput{ID: id, ExpectedVersion: req.ExpectedVersion}
	if req.Name != nil {
		in.Name = catalog.Set(*req.Name)
	}
	if req.Slug != nil {
		in.Slug = catalog.Set(*req.Slug)
	}
	if req.CategoryID != nil {
		in.CategoryID = catalog.Set(*req.CategoryID)
	}
	if req.Price != nil {
		in.Price = catalog.Set(req.Price)
	}
	if req.Status != nil {
		in.Status = catalog.Set(*req.Status)
	}
	if req.Availability != nil {
		in.Availability = catalog.Set(*req.Availability)
	}
	if req.Meta != nil {
		in.Meta = catalog.Set(req.Meta)
	}

	res, err := h.aggregate.UpdateProduct(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, gin.H{"product": res.Product, "changed": res.Changed})
}

type imageCreateRequest struct {
	URL       string `json:"url" binding:"required"`
	AltText   string `json:"alt_text"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
}

type imageUpdateRequest struct {
	ID        uuid.UUID `json:"id" binding:"required"`
	URL       *string   `json:"url"`
	AltText   *string   `json:"alt_text"`
	SortOrder *int      `json:"sort_order"`
	IsPrimary *bool     `json:"is_primary"`
}

type updateImagesRequest struct {
	ExpectedVersion int64 `json:"expected_version" binding:"required"`

	Creates []imageCreateRequest `json:"creates"`
	Updates []imageUpdateRequest `json:"updates"`
	Deletes []uuid.UUID          `json:"deletes"`
}

func (h *ProductHandler) UpdateImages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	in := domainagg.UpdateProductImagesInput{
		ProductID:       id,
		ExpectedVersion: req.ExpectedVersion,
		Deletes:         req.Deletes,
	}
	for _, cr := range req.Creates {
		in.Creates = append(in.Creates, domainagg.ImageCreateOp{
			URL:       cr.URL,
			AltText:   cr.AltText,
			SortOrder: cr.SortOrder,
			IsPrimary: cr.IsPrimary,
		})
	}
	for _, up := range req.Updates {
		op := domainagg.ImageUpdateOp{ID: up.ID}
		if up.URL != nil {
			op.URL = catalog.Set(*up.URL)
		}
		if up.AltText != nil {
			op.AltText = catalog.Set(*up.AltText)
		}
		if up.SortOrder != nil {
			op.SortOrder = catalog.Set(*up.SortOrder)
		}
		if up.IsPrimary != nil {
			op.IsPrimary = catalog.Set(*up.IsPrimary)
		}
		in.Updates = append(in.Updates, op)
	}

	res, err := h.aggregate.UpdateProductImages(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, gin.H{"images": res.Images, "version": res.Version})
}

func (h *ProductHandler) lifecycleInput(c *gin.Context) (domainagg.LifecycleInput, bool) {
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

func (h *ProductHandler) Archive(c *gin.Context) {
	in, ok := h.lifecycleInput(c)
	if !ok {
		return
	}
	res, err := h.aggregate.ArchiveProduct(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *ProductHandler) Restore(c *gin.Context) {
	in, ok := h.lifecycleInput(c)
	if !ok {
		return
	}
	res, err := h.aggregate.RestoreProduct(c.Request.Context(), in)
	if err != nil {
		RespondAggregateError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	in, ok := h.lifecycleInput(c)
	if !ok {
		return
	}
	if err := h.aggregate.DeleteProduct(c.Request.Context(), in); err != nil {
		RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
