package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	"github.com/petalframe/catalog-backend/internal/data/repos/testutil"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

type catalogFixture struct {
	tx         *gorm.DB
	categories catalogrepos.CategoryRepo
	products   catalogrepos.ProductRepo
	slugs      catalogrepos.SlugEntryRepo
	visibility catalogrepos.VisibilityRepo
	cache      *recordingInvalidator

	categoryAgg domainagg.CategoryAggregate
	productAgg  domainagg.ProductAggregate
}

type recordedEviction struct {
	kind string
	id   int64
}

type recordingInvalidator struct {
	evictions []recordedEviction
}

func (r *recordingInvalidator) Invalidate(_ context.Context, kind string, entityID int64) {
	r.evictions = append(r.evictions, recordedEviction{kind: kind, id: entityID})
}

func (r *recordingInvalidator) evicted(kind string, id int64) bool {
	for _, e := range r.evictions {
		if e.kind == kind && e.id == id {
			return true
		}
	}
	return false
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)

	f := &catalogFixture{
		tx:         tx,
		categories: catalogrepos.NewCategoryRepo(tx, log),
		products:   catalogrepos.NewProductRepo(tx, log),
		slugs:      catalogrepos.NewSlugEntryRepo(tx, log),
		visibility: catalogrepos.NewVisibilityRepo(tx, log),
		cache:      &recordingInvalidator{},
	}
	base := BaseDeps{DB: tx, Log: log}
	f.categoryAgg = NewCategoryAggregate(CategoryAggregateDeps{
		Base:       base,
		Categories: f.categories,
		Products:   f.products,
		Slugs:      f.slugs,
		Cache:      f.cache,
	})
	f.productAgg = NewProductAggregate(ProductAggregateDeps{
		Base:       base,
		Products:   f.products,
		Categories: f.categories,
		Slugs:      f.slugs,
		Cache:      f.cache,
	})
	return f
}

func (f *catalogFixture) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: f.tx}
}

func (f *catalogFixture) createCategory(t *testing.T, name, slug string, parentID *int64) *catalog.Category {
	t.Helper()
	res, err := f.categoryAgg.CreateCategory(context.Background(), domainagg.CreateCategoryInput{
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("CreateCategory(%s): %v", slug, err)
	}
	return res.Category
}

func (f *catalogFixture) publishCategory(t *testing.T, c *catalog.Category) *catalog.Category {
	t.Helper()
	res, err := f.categoryAgg.UpdateCategory(context.Background(), domainagg.UpdateCategoryInput{
		ID:              c.ID,
		ExpectedVersion: c.Version,
		Status:          catalog.Set(catalog.StatusPublished),
	})
	if err != nil {
		t.Fatalf("publish category %d: %v", c.ID, err)
	}
	return res.Category
}

func TestCreateCategory_BuildsMaterializedPath(t *testing.T) {
	f := newCatalogFixture(t)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	if flowers.Path != "flowers" {
		t.Fatalf("expected root path flowers got %q", flowers.Path)
	}
	if flowers.Status != catalog.StatusDraft || flowers.Version != 1 {
		t.Fatalf("new category must start draft at version 1, got %s v%d", flowers.Status, flowers.Version)
	}

	roses := f.createCategory(t, "Roses", "roses", &flowers.ID)
	if roses.Path != "flowers.roses" {
		t.Fatalf("expected flowers.roses got %q", roses.Path)
	}

	entry, err := f.slugs.GetActive(f.dbc(context.Background()), catalog.KindCategory, roses.ID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if entry == nil || entry.Slug != "roses" {
		t.Fatalf("expected active registry entry for roses, got %+v", entry)
	}
}

func TestCreateCategory_ReportsAllViolationsTogether(t *testing.T) {
	f := newCatalogFixture(t)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	f.createCategory(t, "Roses", "roses", &flowers.ID)

	_, err := f.categoryAgg.CreateCategory(context.Background(), domainagg.CreateCategoryInput{
		Name:     "Roses",
		Slug:     "roses",
		ParentID: &flowers.ID,
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("expected invariant_violation got %v", err)
	}
	if !errors.Is(err, catalog.ErrSlugNotAvailable) {
		t.Fatalf("expected slug violation in %v", err)
	}
	if !errors.Is(err, catalog.ErrNameNotUniqueWithinParent) {
		t.Fatalf("expected name violation in %v", err)
	}
}

func TestCreateCategory_RejectsMissingParent(t *testing.T) {
	f := newCatalogFixture(t)

	missing := int64(999999)
	_, err := f.categoryAgg.CreateCategory(context.Background(), domainagg.CreateCategoryInput{
		Name:     "Orphan",
		Slug:     "orphan",
		ParentID: &missing,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition_failed got %v", err)
	}
	if !errors.Is(err, catalog.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound in %v", err)
	}
}

func TestUpdateCategory_SlugChangeBlockedWithChildren(t *testing.T) {
	f := newCatalogFixture(t)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	f.createCategory(t, "Roses", "roses", &flowers.ID)

	_, err := f.categoryAgg.UpdateCategory(context.Background(), domainagg.UpdateCategoryInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
		Slug:            catalog.Set("blooms"),
	})
	if !errors.Is(err, catalog.ErrHierarchyChangeNotAllowed) {
		t.Fatalf("expected ErrHierarchyChangeNotAllowed got %v", err)
	}
}

func TestUpdateCategory_SlugChangeRepointsRegistry(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	bouquet := f.createCategory(t, "Red Rose Bouquet", "red-rose-bouquet", nil)

	res, err := f.categoryAgg.UpdateCategory(ctx, domainagg.UpdateCategoryInput{
		ID:              bouquet.ID,
		ExpectedVersion: bouquet.Version,
		Slug:            catalog.Set("rose-bouquet"),
	})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if res.Category.Slug != "rose-bouquet" || res.Category.Path != "rose-bouquet" {
		t.Fatalf("slug change must rewrite the leaf path, got %q / %q", res.Category.Slug, res.Category.Path)
	}
	if res.Category.Version != bouquet.Version+1 {
		t.Fatalf("expected version bump to %d got %d", bouquet.Version+1, res.Category.Version)
	}

	old, err := f.slugs.GetBySlug(f.dbc(ctx), "red-rose-bouquet")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if old == nil || old.IsActive {
		t.Fatalf("old slug must remain registered but inactive, got %+v", old)
	}
	active, err := f.slugs.GetActive(f.dbc(ctx), catalog.KindCategory, bouquet.ID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if active == nil || active.Slug != "rose-bouquet" {
		t.Fatalf("expected single active slug rose-bouquet, got %+v", active)
	}

	// The retired slug stays reserved forever.
	available, err := f.slugs.IsSlugAvailable(f.dbc(ctx), "red-rose-bouquet")
	if err != nil {
		t.Fatalf("IsSlugAvailable: %v", err)
	}
	if available {
		t.Fatalf("retired slug must not be reusable")
	}

	if !f.cache.evicted(catalog.KindCategory, bouquet.ID) {
		t.Fatal("repoint must evict the cached canonical slug")
	}
}

func TestUpdateCategory_NoopWhenNothingChanges(t *testing.T) {
	f := newCatalogFixture(t)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	res, err := f.categoryAgg.UpdateCategory(context.Background(), domainagg.UpdateCategoryInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
		Name:            catalog.Set("Flowers"),
	})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if res.Changed {
		t.Fatalf("identical values must be a no-op")
	}
	if res.Category.Version != flowers.Version {
		t.Fatalf("no-op must not advance the version")
	}
}

func TestUpdateCategory_StaleVersionConflicts(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)

	if _, err := f.categoryAgg.UpdateCategory(ctx, domainagg.UpdateCategoryInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
		Name:            catalog.Set("Fresh Flowers"),
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Second writer still holds the original version.
	_, err := f.categoryAgg.UpdateCategory(ctx, domainagg.UpdateCategoryInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
		Name:            catalog.Set("Dried Flowers"),
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestArchiveCategory_Lifecycle(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	roses := f.createCategory(t, "Roses", "roses", &flowers.ID)

	_, err := f.categoryAgg.ArchiveCategory(ctx, domainagg.LifecycleInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
		At:              time.Now().UTC(),
	})
	if !errors.Is(err, catalog.ErrCannotArchiveWithChildren) {
		t.Fatalf("expected ErrCannotArchiveWithChildren got %v", err)
	}

	roses = f.publishCategory(t, roses)
	archived, err := f.categoryAgg.ArchiveCategory(ctx, domainagg.LifecycleInput{
		ID:              roses.ID,
		ExpectedVersion: roses.Version,
		At:              time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("ArchiveCategory: %v", err)
	}
	if archived.Status != catalog.StatusArchived {
		t.Fatalf("expected archived got %s", archived.Status)
	}

	restored, err := f.categoryAgg.RestoreCategory(ctx, domainagg.LifecycleInput{
		ID:              roses.ID,
		ExpectedVersion: archived.Version,
		At:              time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RestoreCategory: %v", err)
	}
	if restored.Status != catalog.StatusPublished {
		t.Fatalf("restore must return to the pre-archive status, got %s", restored.Status)
	}
}

func TestDeleteCategory_RequiresArchiveFirst(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)

	err := f.categoryAgg.DeleteCategory(ctx, domainagg.LifecycleInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
	})
	if !errors.Is(err, catalog.ErrCategoryNotArchived) {
		t.Fatalf("expected ErrCategoryNotArchived got %v", err)
	}

	archived, err := f.categoryAgg.ArchiveCategory(ctx, domainagg.LifecycleInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
	})
	if err != nil {
		t.Fatalf("ArchiveCategory: %v", err)
	}
	if err := f.categoryAgg.DeleteCategory(ctx, domainagg.LifecycleInput{
		ID:              flowers.ID,
		ExpectedVersion: archived.Version,
	}); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	gone, err := f.categories.GetByID(f.dbc(ctx), flowers.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gone != nil {
		t.Fatalf("deleted category must be gone, got %+v", gone)
	}
	entry, err := f.slugs.GetBySlug(f.dbc(ctx), "flowers")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if entry != nil {
		t.Fatalf("hard delete must remove registry entries, got %+v", entry)
	}
	if !f.cache.evicted(catalog.KindCategory, flowers.ID) {
		t.Fatal("hard delete must evict the cached canonical slug")
	}
}

func TestVisibility_CascadesThroughAncestors(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	dbc := f.dbc(ctx)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	roses := f.createCategory(t, "Roses", "roses", &flowers.ID)
	f.publishCategory(t, roses)

	// Parent still draft: the published child is not publicly visible.
	visible, err := f.visibility.IsCategoryVisible(dbc, "flowers.roses")
	if err != nil {
		t.Fatalf("IsCategoryVisible: %v", err)
	}
	if visible {
		t.Fatalf("child must be hidden while an ancestor is unpublished")
	}

	f.publishCategory(t, flowers)
	visible, err = f.visibility.IsCategoryVisible(dbc, "flowers.roses")
	if err != nil {
		t.Fatalf("IsCategoryVisible: %v", err)
	}
	if !visible {
		t.Fatalf("child must be visible once the whole chain is published")
	}

	children, err := f.visibility.ListVisibleChildren(dbc, "flowers")
	if err != nil {
		t.Fatalf("ListVisibleChildren: %v", err)
	}
	if len(children) != 1 || children[0].Slug != "roses" {
		t.Fatalf("expected [roses] got %+v", children)
	}
}
