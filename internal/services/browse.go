package services

import (
	"context"
	"fmt"
	"strings"

	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// BrowseService is the public read surface of the catalog tree. Everything it
// returns has already passed the cascading visibility predicate, so handlers
// can serve results as-is.
type BrowseService interface {
	VisibleRoots(ctx context.Context) ([]*catalog.Category, error)
	VisibleChildren(ctx context.Context, path string) ([]*catalog.Category, error)
	VisibleSubtree(ctx context.Context, path string) ([]*catalog.Category, error)
	VisibleProducts(ctx context.Context, categoryID int64, limit, offset int) ([]*catalog.Product, error)
	CategoryByID(ctx context.Context, id int64) (*catalog.Category, error)
	ProductByID(ctx context.Context, id int64) (*catalog.Product, error)
}

type browseService struct {
	db         *gorm.DB
	log        *logger.Logger
	categories catalogrepos.CategoryRepo
	products   catalogrepos.ProductRepo
	visibility catalogrepos.VisibilityRepo
}

func NewBrowseService(
	db *gorm.DB,
	log *logger.Logger,
	categories catalogrepos.CategoryRepo,
	products catalogrepos.ProductRepo,
	visibility catalogrepos.VisibilityRepo,
) BrowseService {
	return &browseService{
		db:         db,
		log:        log.With("service", "BrowseService"),
		categories: categories,
		products:   products,
		visibility: visibility,
	}
}

func (s *browseService) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: s.db}
}

func (s *browseService) VisibleRoots(ctx context.Context) ([]*catalog.Category, error) {
	return s.visibility.ListVisibleRoots(s.dbc(ctx))
}

func (s *browseService) VisibleChildren(ctx context.Context, path string) ([]*catalog.Category, error) {
	parsed, err := catalog.ParsePath(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return s.visibility.ListVisibleChildren(s.dbc(ctx), parsed.String())
}

func (s *browseService) VisibleSubtree(ctx context.Context, path string) ([]*catalog.Category, error) {
	parsed, err := catalog.ParsePath(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return s.visibility.ListVisibleDescendants(s.dbc(ctx), parsed.String())
}

func (s *browseService) VisibleProducts(ctx context.Context, categoryID int64, limit, offset int) ([]*catalog.Product, error) {
	if categoryID == 0 {
		return nil, fmt.Errorf("category id required")
	}
	return s.visibility.ListVisibleProducts(s.dbc(ctx), categoryID, limit, offset)
}

func (s *browseService) CategoryByID(ctx context.Context, id int64) (*catalog.Category, error) {
	return s.categories.GetByID(s.dbc(ctx), id)
}

func (s *browseService) ProductByID(ctx context.Context, id int64) (*catalog.Product, error) {
	return s.products.GetByIDWithImages(s.dbc(ctx), id)
}
