package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
)

var ProductAggregateContract = Contract{
	Name:             "Catalog.ProductAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns atomic product mutations, image collection invariants, and accompanying slug registry effects.",
}

// ProductAggregate owns product consistency invariants. Lifecycle mirrors the
// category aggregate but products carry no path of their own.
type ProductAggregate interface {
	Aggregate

	CreateProduct(ctx context.Context, in CreateProductInput) (CreateProductResult, error)
	UpdateProduct(ctx context.Context, in UpdateProductInput) (UpdateProductResult, error)

	// UpdateProductImages applies create/update/delete sub-operations in one
	// call and one transaction. Referenced ids must exist, ids may not repeat
	// across sub-operations, the resulting count is bounded, and at most one
	// image ends up primary.
	UpdateProductImages(ctx context.Context, in UpdateProductImagesInput) (UpdateProductImagesResult, error)

	ArchiveProduct(ctx context.Context, in LifecycleInput) (LifecycleResult, error)
	RestoreProduct(ctx context.Context, in LifecycleInput) (LifecycleResult, error)
	DeleteProduct(ctx context.Context, in LifecycleInput) error
}

type CreateProductInput struct {
	Name         string
	Slug         string
	CategoryID   int64
	Price        *float64
	Availability string
	Meta         *catalog.SEOMeta
}

type CreateProductResult struct {
	Product *catalog.Product
}

type UpdateProductInput struct {
	ID              int64
	ExpectedVersion int64

	Name         catalog.Patch[string]
	Slug         catalog.Patch[string]
	CategoryID   catalog.Patch[int64]
	Price        catalog.Patch[*float64]
	Status       catalog.Patch[string]
	Availability catalog.Patch[string]
	Meta         catalog.Patch[*catalog.SEOMeta]
}

type UpdateProductResult struct {
	Product *catalog.Product
	Changed bool
}

type ImageCreateOp struct {
	URL       string
	AltText   string
	SortOrder int
	IsPrimary bool
}

type ImageUpdateOp struct {
	ID        uuid.UUID
	URL       catalog.Patch[string]
	AltText   catalog.Patch[string]
	SortOrder catalog.Patch[int]
	IsPrimary catalog.Patch[bool]
}

type UpdateProductImagesInput struct {
	ProductID       int64
	ExpectedVersion int64

	Creates []ImageCreateOp
	Updates []ImageUpdateOp
	Deletes []uuid.UUID
}

type UpdateProductImagesResult struct {
	Images  []catalog.ProductImage
	Version int64
}
