package catalog

import (
	"errors"

	"gorm.io/gorm"

	types "github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"github.com/petalframe/catalog-backend/internal/platform/logger"
)

// SlugEntryRepo is the slug registry table. Historical entries are kept
// forever so redirects never dangle; the unique index on slug is the store's
// last line of defense against registration races.
type SlugEntryRepo interface {
	IsSlugAvailable(dbc dbctx.Context, slug string) (bool, error)
	Register(dbc dbctx.Context, entityKind string, entityID int64, slug string) error
	Repoint(dbc dbctx.Context, entityKind string, entityID int64, oldSlug, newSlug string) error
	GetBySlug(dbc dbctx.Context, slug string) (*types.SlugEntry, error)
	GetActive(dbc dbctx.Context, entityKind string, entityID int64) (*types.SlugEntry, error)
	DeleteAllFor(dbc dbctx.Context, entityKind string, entityID int64) error
}

type slugEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSlugEntryRepo(db *gorm.DB, baseLog *logger.Logger) SlugEntryRepo {
	repoLog := baseLog.With("repo", "SlugEntryRepo")
	return &slugEntryRepo{db: db, log: repoLog}
}

func (r *slugEntryRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

// IsSlugAvailable is true only when no entry, active or historical, holds the
// slug. A slug renamed away from is gone for good, including for its original
// owner.
func (r *slugEntryRepo) IsSlugAvailable(dbc dbctx.Context, slug string) (bool, error) {
	var count int64
	if err := r.base(dbc).
		Model(&types.SlugEntry{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *slugEntryRepo) Register(dbc dbctx.Context, entityKind string, entityID int64, slug string) error {
	entry := types.SlugEntry{
		Slug:       slug,
		EntityKind: entityKind,
		EntityID:   entityID,
		IsActive:   true,
	}
	return r.base(dbc).Create(&entry).Error
}

// Repoint deactivates the old active entry and inserts the new one. Both
// writes must run inside the caller's transaction so they commit together.
func (r *slugEntryRepo) Repoint(dbc dbctx.Context, entityKind string, entityID int64, oldSlug, newSlug string) error {
	db := r.base(dbc)
	res := db.Model(&types.SlugEntry{}).
		Where("entity_kind = ? AND entity_id = ? AND slug = ? AND is_active", entityKind, entityID, oldSlug).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	entry := types.SlugEntry{
		Slug:       newSlug,
		EntityKind: entityKind,
		EntityID:   entityID,
		IsActive:   true,
	}
	return db.Create(&entry).Error
}

func (r *slugEntryRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.SlugEntry, error) {
	var result types.SlugEntry
	err := r.base(dbc).Where("slug = ?", slug).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *slugEntryRepo) GetActive(dbc dbctx.Context, entityKind string, entityID int64) (*types.SlugEntry, error) {
	var result types.SlugEntry
	err := r.base(dbc).
		Where("entity_kind = ? AND entity_id = ? AND is_active", entityKind, entityID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteAllFor removes every entry for an entity. Only legal as part of a
// hard delete of the owning row.
func (r *slugEntryRepo) DeleteAllFor(dbc dbctx.Context, entityKind string, entityID int64) error {
	return r.base(dbc).
		Where("entity_kind = ? AND entity_id = ?", entityKind, entityID).
		Delete(&types.SlugEntry{}).Error
}
