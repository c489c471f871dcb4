package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
)

func (f *catalogFixture) createProduct(t *testing.T, name, slug string, categoryID int64) *catalog.Product {
	t.Helper()
	price := 19.99
	res, err := f.productAgg.CreateProduct(context.Background(), domainagg.CreateProductInput{
		Name:       name,
		Slug:       slug,
		CategoryID: categoryID,
		Price:      &price,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", slug, err)
	}
	return res.Product
}

func TestCreateProduct_RegistersSlugAndDefaults(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	product := f.createProduct(t, "Rose Bouquet", "rose-bouquet", flowers.ID)

	if product.Status != catalog.StatusDraft || product.Version != 1 {
		t.Fatalf("new product must start draft at version 1, got %s v%d", product.Status, product.Version)
	}
	if product.Availability != catalog.AvailabilityInStock {
		t.Fatalf("expected default availability in_stock got %s", product.Availability)
	}
	entry, err := f.slugs.GetActive(f.dbc(ctx), catalog.KindProduct, product.ID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if entry == nil || entry.Slug != "rose-bouquet" {
		t.Fatalf("expected active product slug entry, got %+v", entry)
	}
}

func TestCreateProduct_Rejections(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)

	badPrice := -1.0
	_, err := f.productAgg.CreateProduct(ctx, domainagg.CreateProductInput{
		Name:       "Broken",
		Slug:       "broken",
		CategoryID: flowers.ID,
		Price:      &badPrice,
	})
	if !errors.Is(err, catalog.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice got %v", err)
	}

	_, err = f.productAgg.CreateProduct(ctx, domainagg.CreateProductInput{
		Name:         "Broken",
		Slug:         "broken",
		CategoryID:   flowers.ID,
		Availability: "maybe",
	})
	if !errors.Is(err, catalog.ErrInvalidAvailability) {
		t.Fatalf("expected ErrInvalidAvailability got %v", err)
	}

	_, err = f.productAgg.CreateProduct(ctx, domainagg.CreateProductInput{
		Name:       "Orphan",
		Slug:       "orphan-product",
		CategoryID: 999999,
	})
	if !errors.Is(err, catalog.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound got %v", err)
	}
}

func TestCreateProduct_SlugSharedNamespaceWithCategories(t *testing.T) {
	f := newCatalogFixture(t)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)

	// The registry is global: a product cannot claim a category's slug.
	_, err := f.productAgg.CreateProduct(context.Background(), domainagg.CreateProductInput{
		Name:       "Flowers The Product",
		Slug:       "flowers",
		CategoryID: flowers.ID,
	})
	if !errors.Is(err, catalog.ErrSlugNotAvailable) {
		t.Fatalf("expected ErrSlugNotAvailable got %v", err)
	}
}

func TestUpdateProduct_SlugRepointAndCategoryMove(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	gifts := f.createCategory(t, "Gifts", "gifts", nil)
	product := f.createProduct(t, "Red Rose Bouquet", "red-rose-bouquet", flowers.ID)

	res, err := f.productAgg.UpdateProduct(ctx, domainagg.UpdateProductInput{
		ID:              product.ID,
		ExpectedVersion: product.Version,
		Slug:            catalog.Set("rose-bouquet"),
		CategoryID:      catalog.Set(gifts.ID),
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if res.Product.Slug != "rose-bouquet" || res.Product.CategoryID != gifts.ID {
		t.Fatalf("unexpected product after update: %+v", res.Product)
	}
	if res.Product.Version != product.Version+1 {
		t.Fatalf("expected version bump got %d", res.Product.Version)
	}

	old, err := f.slugs.GetBySlug(f.dbc(ctx), "red-rose-bouquet")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if old == nil || old.IsActive {
		t.Fatalf("old product slug must stay registered but inactive, got %+v", old)
	}
	if !f.cache.evicted(catalog.KindProduct, product.ID) {
		t.Fatal("repoint must evict the cached canonical slug")
	}
}

func TestUpdateProductImages_EnforcesCollectionInvariants(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	product := f.createProduct(t, "Rose Bouquet", "rose-bouquet", flowers.ID)

	creates := make([]domainagg.ImageCreateOp, 0, catalog.MaxProductImages+1)
	for i := 0; i <= catalog.MaxProductImages; i++ {
		creates = append(creates, domainagg.ImageCreateOp{URL: "https://img.example/x.jpg", SortOrder: i})
	}
	_, err := f.productAgg.UpdateProductImages(ctx, domainagg.UpdateProductImagesInput{
		ProductID:       product.ID,
		ExpectedVersion: product.Version,
		Creates:         creates,
	})
	if !errors.Is(err, catalog.ErrTooManyImages) {
		t.Fatalf("expected ErrTooManyImages got %v", err)
	}

	_, err = f.productAgg.UpdateProductImages(ctx, domainagg.UpdateProductImagesInput{
		ProductID:       product.ID,
		ExpectedVersion: product.Version,
		Creates: []domainagg.ImageCreateOp{
			{URL: "https://img.example/a.jpg", IsPrimary: true},
			{URL: "https://img.example/b.jpg", IsPrimary: true},
		},
	})
	if !errors.Is(err, catalog.ErrMultiplePrimaryImages) {
		t.Fatalf("expected ErrMultiplePrimaryImages got %v", err)
	}

	missing := uuid.New()
	_, err = f.productAgg.UpdateProductImages(ctx, domainagg.UpdateProductImagesInput{
		ProductID:       product.ID,
		ExpectedVersion: product.Version,
		Updates:         []domainagg.ImageUpdateOp{{ID: missing, SortOrder: catalog.Set(1)}},
		Deletes:         []uuid.UUID{missing},
	})
	if !errors.Is(err, catalog.ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound got %v", err)
	}
	if !errors.Is(err, catalog.ErrDuplicateImageIDs) {
		t.Fatalf("expected ErrDuplicateImageIDs in the same report, got %v", err)
	}
}

func TestUpdateProductImages_AppliesBatchAtomically(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	product := f.createProduct(t, "Rose Bouquet", "rose-bouquet", flowers.ID)

	res, err := f.productAgg.UpdateProductImages(ctx, domainagg.UpdateProductImagesInput{
		ProductID:       product.ID,
		ExpectedVersion: product.Version,
		Creates: []domainagg.ImageCreateOp{
			{URL: "https://img.example/a.jpg", SortOrder: 0, IsPrimary: true},
			{URL: "https://img.example/b.jpg", SortOrder: 1},
		},
	})
	if err != nil {
		t.Fatalf("UpdateProductImages: %v", err)
	}
	if len(res.Images) != 2 {
		t.Fatalf("expected 2 images got %d", len(res.Images))
	}
	if res.Version != product.Version+1 {
		t.Fatalf("image batch must advance the product version, got %d", res.Version)
	}

	var primary *catalog.ProductImage
	var secondary *catalog.ProductImage
	for i := range res.Images {
		if res.Images[i].IsPrimary {
			primary = &res.Images[i]
		} else {
			secondary = &res.Images[i]
		}
	}
	if primary == nil || secondary == nil {
		t.Fatalf("expected one primary and one secondary image")
	}

	// Move primary and prune the old one in a single batch.
	res2, err := f.productAgg.UpdateProductImages(ctx, domainagg.UpdateProductImagesInput{
		ProductID:       product.ID,
		ExpectedVersion: res.Version,
		Updates: []domainagg.ImageUpdateOp{
			{ID: secondary.ID, IsPrimary: catalog.Set(true), SortOrder: catalog.Set(0)},
		},
		Deletes: []uuid.UUID{primary.ID},
	})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if len(res2.Images) != 1 || !res2.Images[0].IsPrimary {
		t.Fatalf("expected single primary image, got %+v", res2.Images)
	}
}

func TestProduct_LifecycleAndDelete(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	product := f.createProduct(t, "Rose Bouquet", "rose-bouquet", flowers.ID)

	// Delete requires an archive first.
	err := f.productAgg.DeleteProduct(ctx, domainagg.LifecycleInput{
		ID:              product.ID,
		ExpectedVersion: product.Version,
	})
	if !errors.Is(err, catalog.ErrProductNotArchived) {
		t.Fatalf("expected ErrProductNotArchived got %v", err)
	}

	published, err := f.productAgg.UpdateProduct(ctx, domainagg.UpdateProductInput{
		ID:              product.ID,
		ExpectedVersion: product.Version,
		Status:          catalog.Set(catalog.StatusPublished),
	})
	if err != nil {
		t.Fatalf("publish product: %v", err)
	}

	archived, err := f.productAgg.ArchiveProduct(ctx, domainagg.LifecycleInput{
		ID:              product.ID,
		ExpectedVersion: published.Product.Version,
		At:              time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("ArchiveProduct: %v", err)
	}

	restored, err := f.productAgg.RestoreProduct(ctx, domainagg.LifecycleInput{
		ID:              product.ID,
		ExpectedVersion: archived.Version,
		At:              time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("RestoreProduct: %v", err)
	}
	if restored.Status != catalog.StatusPublished {
		t.Fatalf("restore must return to pre-archive status, got %s", restored.Status)
	}

	rearchived, err := f.productAgg.ArchiveProduct(ctx, domainagg.LifecycleInput{
		ID:              product.ID,
		ExpectedVersion: restored.Version,
	})
	if err != nil {
		t.Fatalf("re-archive: %v", err)
	}
	if err := f.productAgg.DeleteProduct(ctx, domainagg.LifecycleInput{
		ID:              product.ID,
		ExpectedVersion: rearchived.Version,
	}); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	gone, err := f.products.GetByID(f.dbc(ctx), product.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gone != nil {
		t.Fatalf("deleted product must be gone")
	}
	entry, err := f.slugs.GetBySlug(f.dbc(ctx), "rose-bouquet")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if entry != nil {
		t.Fatalf("hard delete must remove registry entries, got %+v", entry)
	}
	if !f.cache.evicted(catalog.KindProduct, product.ID) {
		t.Fatal("hard delete must evict the cached canonical slug")
	}
}

func TestDeleteCategory_BlockedWhileProductsRemain(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	f.createProduct(t, "Rose Bouquet", "rose-bouquet", flowers.ID)

	archived, err := f.categoryAgg.ArchiveCategory(ctx, domainagg.LifecycleInput{
		ID:              flowers.ID,
		ExpectedVersion: flowers.Version,
	})
	if err != nil {
		t.Fatalf("ArchiveCategory: %v", err)
	}
	err = f.categoryAgg.DeleteCategory(ctx, domainagg.LifecycleInput{
		ID:              flowers.ID,
		ExpectedVersion: archived.Version,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition_failed while products remain, got %v", err)
	}
}

func TestProductVisibility_FollowsCategoryChain(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	dbc := f.dbc(ctx)

	flowers := f.createCategory(t, "Flowers", "flowers", nil)
	product := f.createProduct(t, "Rose Bouquet", "rose-bouquet", flowers.ID)

	if _, err := f.productAgg.UpdateProduct(ctx, domainagg.UpdateProductInput{
		ID:              product.ID,
		ExpectedVersion: product.Version,
		Status:          catalog.Set(catalog.StatusPublished),
	}); err != nil {
		t.Fatalf("publish product: %v", err)
	}

	visible, err := f.visibility.IsProductVisible(dbc, product.ID)
	if err != nil {
		t.Fatalf("IsProductVisible: %v", err)
	}
	if visible {
		t.Fatalf("product must be hidden while its category is unpublished")
	}

	f.publishCategory(t, flowers)
	visible, err = f.visibility.IsProductVisible(dbc, product.ID)
	if err != nil {
		t.Fatalf("IsProductVisible: %v", err)
	}
	if !visible {
		t.Fatalf("product must be visible once the category chain is published")
	}

	products, err := f.visibility.ListVisibleProducts(dbc, flowers.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListVisibleProducts: %v", err)
	}
	if len(products) != 1 || products[0].Slug != "rose-bouquet" {
		t.Fatalf("expected [rose-bouquet] got %+v", products)
	}
}
