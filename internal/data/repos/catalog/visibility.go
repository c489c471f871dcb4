package catalog

import (
	"gorm.io/gorm"

	types "github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

// VisibilityRepo answers the cascading visibility predicate with set-oriented
// queries. An entity is publicly visible only when it and every ancestor on
// its path is published and not soft-deleted. The ancestor check is an
// anti-join over path containment (prefix match on the materialized path),
// never a per-row recursive walk.
type VisibilityRepo interface {
	IsCategoryVisible(dbc dbctx.Context, path string) (bool, error)
	IsProductVisible(dbc dbctx.Context, productID int64) (bool, error)
	ListVisibleRoots(dbc dbctx.Context) ([]*types.Category, error)
	ListVisibleChildren(dbc dbctx.Context, parentPath string) ([]*types.Category, error)
	ListVisibleDescendants(dbc dbctx.Context, path string) ([]*types.Category, error)
	ListVisibleProducts(dbc dbctx.Context, categoryID int64, limit, offset int) ([]*types.Product, error)
}

type visibilityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisibilityRepo(db *gorm.DB, baseLog *logger.Logger) VisibilityRepo {
	repoLog := baseLog.With("repo", "VisibilityRepo")
	return &visibilityRepo{db: db, log: repoLog}
}

func (r *visibilityRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *visibilityRepo) IsCategoryVisible(dbc dbctx.Context, path string) (bool, error) {
	// Counts rows on the containment chain of path (self included) that break
	// visibility; zero failing ancestors means visible.
	var count int64
	err := r.base(dbc).Raw(`
		SELECT COUNT(*)
		FROM category a
		WHERE (a.path = ? OR ? LIKE a.path || '.%')
		  AND (a.deleted_at IS NOT NULL OR a.status <> 'published')`, path, path).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *visibilityRepo) IsProductVisible(dbc dbctx.Context, productID int64) (bool, error) {
	var count int64
	err := r.base(dbc).Raw(`
		SELECT COUNT(*)
		FROM product p
		JOIN category c ON c.id = p.category_id
		WHERE p.id = ?
		  AND p.deleted_at IS NULL
		  AND p.status = 'published'
		  AND NOT EXISTS (
		    SELECT 1 FROM category a
		    WHERE (a.path = c.path OR c.path LIKE a.path || '.%')
		      AND (a.deleted_at IS NOT NULL OR a.status <> 'published')
		  )`, productID).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *visibilityRepo) ListVisibleRoots(dbc dbctx.Context) ([]*types.Category, error) {
	var results []*types.Category
	err := r.base(dbc).Raw(`
		SELECT c.*
		FROM category c
		WHERE c.parent_id IS NULL
		  AND c.deleted_at IS NULL
		  AND c.status = 'published'
		ORDER BY c.display_order ASC, c.name ASC`).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListVisibleChildren returns visible categories exactly one level below
// parentPath.
func (r *visibilityRepo) ListVisibleChildren(dbc dbctx.Context, parentPath string) ([]*types.Category, error) {
	cond := `c.path LIKE ? || '.%' AND c.path NOT LIKE ? || '.%.%'`
	return r.listVisibleByContainment(dbc, cond, parentPath, parentPath)
}

// ListVisibleDescendants returns every visible category strictly below path.
func (r *visibilityRepo) ListVisibleDescendants(dbc dbctx.Context, path string) ([]*types.Category, error) {
	cond := `c.path LIKE ? || '.%'`
	return r.listVisibleByContainment(dbc, cond, path)
}

func (r *visibilityRepo) listVisibleByContainment(dbc dbctx.Context, containCond string, args ...any) ([]*types.Category, error) {
	var results []*types.Category
	err := r.base(dbc).Raw(`
		SELECT c.*
		FROM category c
		WHERE `+containCond+`
		  AND NOT EXISTS (
		    SELECT 1 FROM category a
		    WHERE (a.path = c.path OR c.path LIKE a.path || '.%')
		      AND (a.deleted_at IS NOT NULL OR a.status <> 'published')
		  )
		ORDER BY c.display_order ASC, c.name ASC`, args...).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *visibilityRepo) ListVisibleProducts(dbc dbctx.Context, categoryID int64, limit, offset int) ([]*types.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var results []*types.Product
	err := r.base(dbc).Raw(`
		SELECT p.*
		FROM product p
		JOIN category c ON c.id = p.category_id
		WHERE p.category_id = ?
		  AND p.deleted_at IS NULL
		  AND p.status = 'published'
		  AND NOT EXISTS (
		    SELECT 1 FROM category a
		    WHERE (a.path = c.path OR c.path LIKE a.path || '.%')
		      AND (a.deleted_at IS NOT NULL OR a.status <> 'published')
		  )
		ORDER BY p.name ASC
		LIMIT ? OFFSET ?`, categoryID, limit, offset).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
