package catalog

import "time"

// Entity kinds tracked by the slug registry.
const (
	KindCategory = "category"
	KindProduct  = "product"
)

// ValidKind reports whether k is a registry entity kind.
func ValidKind(k string) bool {
	return k == KindCategory || k == KindProduct
}

// SlugEntry is one row of the slug registry: every slug ever assigned to an
// entity, across both kinds. Slugs are globally unique and never reused; old
// entries are kept inactive to serve permanent redirects and are only removed
// when the owning entity is hard-deleted. At most one entry per
// (entity_kind, entity_id) is active at a time.
type SlugEntry struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug       string    `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	EntityKind string    `gorm:"type:text;not null;index:idx_slug_entry_entity" json:"entity_kind"`
	EntityID   int64     `gorm:"not null;index:idx_slug_entry_entity" json:"entity_id"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (SlugEntry) TableName() string { return "slug_entry" }
