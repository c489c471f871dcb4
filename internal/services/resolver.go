package services

import (
	"context"
	"fmt"
	"strings"

	redisclient "github.com/petalframe/catalog-backend/internal/clients/redis"
	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ResolutionOutcome string

const (
	ResolutionFound    ResolutionOutcome = "found"
	ResolutionRedirect ResolutionOutcome = "redirect"
	ResolutionNotFound ResolutionOutcome = "not_found"
)

// Resolution is the answer to a storefront slug lookup. On a redirect the
// CanonicalSlug carries the slug the caller should move to; the entity fields
// are populated only on Found.
type Resolution struct {
	Outcome       ResolutionOutcome
	Kind          string
	CanonicalSlug string

	Category *catalog.Category
	Product  *catalog.Product
}

type ResolverService interface {
	Resolve(ctx context.Context, kind, slug string) (*Resolution, error)
}

type resolverService struct {
	db         *gorm.DB
	log        *logger.Logger
	slugs      catalogrepos.SlugEntryRepo
	categories catalogrepos.CategoryRepo
	products   catalogrepos.ProductRepo
	visibility catalogrepos.VisibilityRepo
	cache      redisclient.SlugCache
}

func NewResolverService(
	db *gorm.DB,
	log *logger.Logger,
	slugs catalogrepos.SlugEntryRepo,
	categories catalogrepos.CategoryRepo,
	products catalogrepos.ProductRepo,
	visibility catalogrepos.VisibilityRepo,
	cache redisclient.SlugCache,
) ResolverService {
	return &resolverService{
		db:         db,
		log:        log.With("service", "ResolverService"),
		slugs:      slugs,
		categories: categories,
		products:   products,
		visibility: visibility,
		cache:      cache,
	}
}

func (s *resolverService) Resolve(ctx context.Context, kind, slug string) (*Resolution, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !catalog.ValidKind(kind) {
		// Nothing is ever registered under an unknown kind.
		return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
	}
	normalized, err := catalog.NewSlug(slug)
	if err != nil {
		// A malformed slug can never have been registered.
		return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
	}

	dbc := dbctx.Context{Ctx: ctx, Tx: s.db}

	entry, err := s.slugs.GetBySlug(dbc, normalized.String())
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.EntityKind != kind {
		return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
	}

	if entry.IsActive {
		return s.resolveActive(dbc, kind, entry)
	}

	// Stale slug: the entity moved on to a newer one. Redirect to the
	// current active slug when the entity is still reachable.
	canonical := s.activeSlugFor(dbc, kind, entry.EntityID)
	if canonical == "" {
		return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
	}
	visible, err := s.entityVisible(dbc, kind, entry.EntityID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
	}
	return &Resolution{Outcome: ResolutionRedirect, Kind: kind, CanonicalSlug: canonical}, nil
}

func (s *resolverService) resolveActive(dbc dbctx.Context, kind string, entry *catalog.SlugEntry) (*Resolution, error) {
	visible, err := s.entityVisible(dbc, kind, entry.EntityID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
	}

	out := &Resolution{Outcome: ResolutionFound, Kind: kind, CanonicalSlug: entry.Slug}
	switch kind {
	case catalog.KindCategory:
		category, err := s.categories.GetByID(dbc, entry.EntityID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
		}
		out.Category = category
	case catalog.KindProduct:
		product, err := s.products.GetByIDWithImages(dbc, entry.EntityID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return &Resolution{Outcome: ResolutionNotFound, Kind: kind}, nil
		}
		out.Product = product
	}
	return out, nil
}

func (s *resolverService) entityVisible(dbc dbctx.Context, kind string, entityID int64) (bool, error) {
	switch kind {
	case catalog.KindCategory:
		category, err := s.categories.GetByID(dbc, entityID)
		if err != nil {
			return false, err
		}
		if category == nil {
			return false, nil
		}
		return s.visibility.IsCategoryVisible(dbc, category.Path)
	case catalog.KindProduct:
		return s.visibility.IsProductVisible(dbc, entityID)
	}
	return false, fmt.Errorf("unknown kind %q", kind)
}

// activeSlugFor returns the entity's current canonical slug, preferring the
// cache and falling back to the registry. Empty means the entity is gone.
func (s *resolverService) activeSlugFor(dbc dbctx.Context, kind string, entityID int64) string {
	if s.cache != nil {
		if cached, ok := s.cache.GetActiveSlug(dbc.Ctx, kind, entityID); ok {
			return cached
		}
	}
	active, err := s.slugs.GetActive(dbc, kind, entityID)
	if err != nil {
		s.log.Warn("active slug lookup failed", "kind", kind, "entity_id", entityID, "error", err)
		return ""
	}
	if active == nil {
		return ""
	}
	if s.cache != nil {
		s.cache.SetActiveSlug(dbc.Ctx, kind, entityID, active.Slug)
	}
	return active.Slug
}
