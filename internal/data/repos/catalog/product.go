package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

type ProductRepo interface {
	Create(dbc dbctx.Context, product *types.Product) error
	GetByID(dbc dbctx.Context, id int64) (*types.Product, error)
	GetByIDWithImages(dbc dbctx.Context, id int64) (*types.Product, error)
	CountByCategory(dbc dbctx.Context, categoryID int64) (int64, error)

	ListImages(dbc dbctx.Context, productID int64) ([]types.ProductImage, error)
	CreateImages(dbc dbctx.Context, images []types.ProductImage) error
	UpdateImage(dbc dbctx.Context, imageID uuid.UUID, updates map[string]any) error
	DeleteImages(dbc dbctx.Context, imageIDs []uuid.UUID) error
	DeleteImagesForProduct(dbc dbctx.Context, productID int64) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (r *productRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *productRepo) Create(dbc dbctx.Context, product *types.Product) error {
	if product == nil {
		return nil
	}
	return r.base(dbc).Create(product).Error
}

func (r *productRepo) GetByID(dbc dbctx.Context, id int64) (*types.Product, error) {
	var result types.Product
	err := r.base(dbc).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *productRepo) GetByIDWithImages(dbc dbctx.Context, id int64) (*types.Product, error) {
	var result types.Product
	err := r.base(dbc).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *productRepo) CountByCategory(dbc dbctx.Context, categoryID int64) (int64, error) {
	var count int64
	if err := r.base(dbc).
		Model(&types.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *productRepo) ListImages(dbc dbctx.Context, productID int64) ([]types.ProductImage, error) {
	var results []types.ProductImage
	if err := r.base(dbc).
		Where("product_id = ?", productID).
		Order("sort_order ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productRepo) CreateImages(dbc dbctx.Context, images []types.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.base(dbc).Create(&images).Error
}

func (r *productRepo) UpdateImage(dbc dbctx.Context, imageID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.base(dbc).
		Model(&types.ProductImage{}).
		Where("id = ?", imageID).
		Updates(updates).Error
}

func (r *productRepo) DeleteImages(dbc dbctx.Context, imageIDs []uuid.UUID) error {
	if len(imageIDs) == 0 {
		return nil
	}
	return r.base(dbc).
		Where("id IN ?", imageIDs).
		Delete(&types.ProductImage{}).Error
}

func (r *productRepo) DeleteImagesForProduct(dbc dbctx.Context, productID int64) error {
	return r.base(dbc).
		Where("product_id = ?", productID).
		Delete(&types.ProductImage{}).Error
}
