package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"github.com/petalframe/catalog-backend/internal/services"
)

type ResolveHandler struct {
	log      *logger.Logger
	resolver services.ResolverService
}

func NewResolveHandler(log *logger.Logger, resolver services.ResolverService) *ResolveHandler {
	return &ResolveHandler{
		log:      log.With("handler", "ResolveHandler"),
		resolver: resolver,
	}
}

// Resolve answers storefront slug lookups. A stale slug that still points at a
// live entity gets a permanent redirect to its canonical slug.
func (h *ResolveHandler) Resolve(c *gin.Context) {
	kind := c.Param("kind")
	slug := c.Param("slug")

	res, err := h.resolver.Resolve(c.Request.Context(), kind, slug)
	if err != nil {
		h.log.Error("slug resolution failed", "kind", kind, "slug", slug, "error", err)
		RespondError(c, http.StatusInternalServerError, "resolve_failed", err)
		return
	}

	switch res.Outcome {
	case services.ResolutionFound:
		payload := gin.H{
			"outcome": res.Outcome,
			"kind":    res.Kind,
			"slug":    res.CanonicalSlug,
		}
		if res.Category != nil {
			payload["category"] = res.Category
		}
		if res.Product != nil {
			payload["product"] = res.Product
		}
		RespondOK(c, payload)
	case services.ResolutionRedirect:
		c.Header("Location", "/resolve/"+res.Kind+"/"+res.CanonicalSlug)
		c.JSON(http.StatusMovedPermanently, gin.H{
			"outcome": res.Outcome,
			"kind":    res.Kind,
			"slug":    res.CanonicalSlug,
		})
	default:
		RespondError(c, http.StatusNotFound, "not_found", nil)
	}
}
