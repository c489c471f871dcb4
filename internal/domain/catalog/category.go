package catalog

import (
	"time"
)

// Publish statuses shared by categories and products.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is a known publish status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// Category is a tree node. Path is the materialized ancestry ending in the
// node's own slug; it is fixed at creation and only rewritten for childless
// renames. DeletedAt is a plain nullable timestamp rather than gorm.DeletedAt:
// visibility is an explicit cascading predicate, never an implicit row filter.
type Category struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"type:text;not null" json:"name"`
	Description    *string    `gorm:"type:text" json:"description,omitempty"`
	Slug           string     `gorm:"type:text;not null;index" json:"slug"`
	ImageKey       *string    `gorm:"type:text" json:"image_key,omitempty"`
	Path           string     `gorm:"type:text;not null;uniqueIndex" json:"path"`
	ParentID       *int64     `gorm:"index" json:"parent_id,omitempty"`
	DisplayOrder   int        `gorm:"not null;default:0" json:"display_order"`
	Status         string     `gorm:"type:text;not null;default:'draft';index" json:"status"`
	PreviousStatus *string    `gorm:"type:text" json:"-"`
	Version        int64      `gorm:"not null;default:1" json:"version"`
	DeletedAt      *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (Category) TableName() string { return "category" }

// TreePath parses the stored path column.
func (c *Category) TreePath() (TreePath, error) {
	return ParsePath(c.Path)
}

// IsArchived reports whether the category is soft-deleted.
func (c *Category) IsArchived() bool {
	return c.DeletedAt != nil
}
