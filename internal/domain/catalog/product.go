package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Availability statuses for products.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityPreorder   = "preorder"
)

// MaxProductImages bounds the image collection per product.
const MaxProductImages = 10

// ValidAvailability reports whether s is a known availability status.
func ValidAvailability(s string) bool {
	switch s {
	case AvailabilityInStock, AvailabilityOutOfStock, AvailabilityPreorder:
		return true
	default:
		return false
	}
}

// Product belongs to exactly one category and has no path of its own; its
// visibility derives from the owning category's ancestor chain.
type Product struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	Slug           string         `gorm:"type:text;not null;index" json:"slug"`
	CategoryID     int64          `gorm:"not null;index" json:"category_id"`
	Price          *float64       `json:"price,omitempty"`
	Status         string         `gorm:"type:text;not null;default:'draft';index" json:"status"`
	Availability   string         `gorm:"type:text;not null;default:'in_stock'" json:"availability"`
	Meta           datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"meta"`
	PreviousStatus *string        `gorm:"type:text" json:"-"`
	Version        int64          `gorm:"not null;default:1" json:"version"`
	DeletedAt      *time.Time     `gorm:"index" json:"deleted_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`

	Images []ProductImage `gorm:"foreignKey:ProductID;references:ID" json:"images,omitempty"`
}

func (Product) TableName() string { return "product" }

// IsArchived reports whether the product is soft-deleted.
func (p *Product) IsArchived() bool {
	return p.DeletedAt != nil
}

// PrimaryImage returns the image flagged primary, if any.
func (p *Product) PrimaryImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return nil
}

// SEOMeta is the shape stored in Product.Meta.
type SEOMeta struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// ProductImage is an ordered image attached to a product. At most one image
// per product carries IsPrimary, enforced by the product aggregate.
type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	AltText   string    `gorm:"type:text;not null;default:''" json:"alt_text"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ProductImage) TableName() string { return "product_image" }
