package catalog

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, category *types.Category) error
	GetByID(dbc dbctx.Context, id int64) (*types.Category, error)
	CountLiveChildren(dbc dbctx.Context, parentID int64) (int64, error)
	NameExistsWithinParent(dbc dbctx.Context, parentID *int64, name string, excludeID int64) (bool, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (r *categoryRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *categoryRepo) Create(dbc dbctx.Context, category *types.Category) error {
	if category == nil {
		return nil
	}
	return r.base(dbc).Create(category).Error
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id int64) (*types.Category, error) {
	var result types.Category
	err := r.base(dbc).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CountLiveChildren counts non-deleted direct children, the guard used by
// archive and slug-change checks.
func (r *categoryRepo) CountLiveChildren(dbc dbctx.Context, parentID int64) (int64, error) {
	var count int64
	if err := r.base(dbc).
		Model(&types.Category{}).
		Where("parent_id = ? AND deleted_at IS NULL", parentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *categoryRepo) NameExistsWithinParent(dbc dbctx.Context, parentID *int64, name string, excludeID int64) (bool, error) {
	var count int64
	q := r.base(dbc).
		Model(&types.Category{}).
		Where("name = ? AND deleted_at IS NULL", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
