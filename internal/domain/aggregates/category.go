package aggregates

import (
	"context"
	"time"

	"github.com/petalframe/catalog-backend/internal/domain/catalog"
)

var CategoryAggregateContract = Contract{
	Name:             "Catalog.CategoryAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns atomic category tree mutations and the slug registry effects that accompany them.",
}

// CategoryAggregate owns category tree consistency invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation,
// CodePreconditionFailed, CodeRetryable, CodeInternal. Rule errors from the
// catalog package are reachable through errors.Is on the wrapped cause.
type CategoryAggregate interface {
	Aggregate

	// CreateCategory validates the slug, derives the materialized path from
	// the optional parent, reserves the slug in the registry, and inserts the
	// category — all in one transaction.
	CreateCategory(ctx context.Context, in CreateCategoryInput) (CreateCategoryResult, error)

	// UpdateCategory applies set-or-leave patches under optimistic locking.
	// A slug change on a category with live children is rejected; otherwise a
	// slug change rewrites the path for the node and repoints the registry.
	UpdateCategory(ctx context.Context, in UpdateCategoryInput) (UpdateCategoryResult, error)

	// ArchiveCategory soft-deletes a childless category, remembering the
	// prior publish status for Restore.
	ArchiveCategory(ctx context.Context, in LifecycleInput) (LifecycleResult, error)

	// RestoreCategory clears the soft-delete mark and reverts to the publish
	// status held before archival.
	RestoreCategory(ctx context.Context, in LifecycleInput) (LifecycleResult, error)

	// DeleteCategory hard-deletes an archived category together with all of
	// its slug registry entries.
	DeleteCategory(ctx context.Context, in LifecycleInput) error
}

type CreateCategoryInput struct {
	Name         string
	Slug         string
	ParentID     *int64
	Description  *string
	ImageKey     *string
	DisplayOrder int
}

type CreateCategoryResult struct {
	Category *catalog.Category
}

type UpdateCategoryInput struct {
	ID              int64
	ExpectedVersion int64

	Name         catalog.Patch[string]
	Slug         catalog.Patch[string]
	Description  catalog.Patch[*string]
	ImageKey     catalog.Patch[*string]
	DisplayOrder catalog.Patch[int]
	Status       catalog.Patch[string]
}

type UpdateCategoryResult struct {
	Category *catalog.Category
	// Changed is false when every supplied patch matched the stored state and
	// no write was issued.
	Changed bool
}

// LifecycleInput drives archive/restore/delete transitions.
type LifecycleInput struct {
	ID              int64
	ExpectedVersion int64
	At              time.Time
}

type LifecycleResult struct {
	ID      int64
	Status  string
	Version int64
}
