package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

type ProductAggregateDeps struct {
	Base BaseDeps

	Products   catalogrepos.ProductRepo
	Categories catalogrepos.CategoryRepo
	Slugs      catalogrepos.SlugEntryRepo
	Cache      SlugCacheInvalidator
}

type productAggregate struct {
	deps ProductAggregateDeps
}

func NewProductAggregate(deps ProductAggregateDeps) domainagg.ProductAggregate {
	deps.Base = deps.Base.withDefaults()
	return &productAggregate{deps: deps}
}

func (a *productAggregate) Contract() domainagg.Contract {
	return domainagg.ProductAggregateContract
}

func (a *productAggregate) CreateProduct(ctx context.Context, in domainagg.CreateProductInput) (domainagg.CreateProductResult, error) {
	const op = "Catalog.Product.Create"
	var out domainagg.CreateProductResult

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing name", nil)
	}
	slug, err := catalog.NewSlug(in.Slug)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}
	if in.CategoryID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing category id", nil)
	}
	if in.Price != nil && *in.Price <= 0 {
		return out, domainagg.Wrap(domainagg.CodeValidation, op,
			fmt.Errorf("%w: %v", catalog.ErrInvalidPrice, *in.Price))
	}
	availability := in.Availability
	if availability == "" {
		availability = catalog.AvailabilityInStock
	}
	if !catalog.ValidAvailability(availability) {
		return out, domainagg.Wrap(domainagg.CodeValidation, op,
			fmt.Errorf("%w: %q", catalog.ErrInvalidAvailability, availability))
	}
	if a.deps.Products == nil || a.deps.Categories == nil || a.deps.Slugs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "product aggregate repos not configured", nil)
	}

	meta := datatypes.JSON([]byte("{}"))
	if in.Meta != nil {
		raw, err := json.Marshal(in.Meta)
		if err != nil {
			return out, domainagg.Wrap(domainagg.CodeValidation, op, err)
		}
		meta = datatypes.JSON(raw)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		category, err := a.deps.Categories.GetByID(dbc, in.CategoryID)
		if err != nil {
			return err
		}
		if category == nil || category.IsArchived() {
			return domainagg.Wrap(domainagg.CodePreconditionFailed, op,
				fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, in.CategoryID))
		}

		available, err := a.deps.Slugs.IsSlugAvailable(dbc, slug.String())
		if err != nil {
			return err
		}
		if !available {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op,
				fmt.Errorf("%w: %s", catalog.ErrSlugNotAvailable, slug))
		}

		now := time.Now().UTC()
		product := &catalog.Product{
			Name:         name,
			Slug:         slug.String(),
			CategoryID:   in.CategoryID,
			Price:        in.Price,
			Status:       catalog.StatusDraft,
			Availability: availability,
			Meta:         meta,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := a.deps.Products.Create(dbc, product); err != nil {
			return err
		}
		if err := a.deps.Slugs.Register(dbc, catalog.KindProduct, product.ID, slug.String()); err != nil {
			return err
		}
		out.Product = product
		return nil
	})
	return out, err
}

func (a *productAggregate) UpdateProduct(ctx context.Context, in domainagg.UpdateProductInput) (domainagg.UpdateProductResult, error) {
	const op = "Catalog.Product.Update"
	var out domainagg.UpdateProductResult

	if in.ID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing product id", nil)
	}
	if in.ExpectedVersion < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}

	repointed := false
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Products.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrProductNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}

		updates := map[string]any{}
		var violations []error

		if v, ok := in.Name.Value(); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				return domainagg.NewError(domainagg.CodeValidation, op, "name cannot be empty", nil)
			}
			if v != current.Name {
				updates["name"] = v
			}
		}
		if v, ok := in.Price.Value(); ok {
			if v != nil && *v <= 0 {
				return domainagg.Wrap(domainagg.CodeValidation, op,
					fmt.Errorf("%w: %v", catalog.ErrInvalidPrice, *v))
			}
			updates["price"] = v
		}
		if v, ok := in.Status.Value(); ok {
			if v != catalog.StatusDraft && v != catalog.StatusPublished {
				return domainagg.Wrap(domainagg.CodeValidation, op,
					fmt.Errorf("%w: %q (archival has its own transition)", catalog.ErrInvalidStatus, v))
			}
			if v != current.Status {
				updates["status"] = v
			}
		}
		if v, ok := in.Availability.Value(); ok {
			if !catalog.ValidAvailability(v) {
				return domainagg.Wrap(domainagg.CodeValidation, op,
					fmt.Errorf("%w: %q", catalog.ErrInvalidAvailability, v))
			}
			if v != current.Availability {
				updates["availability"] = v
			}
		}
		if v, ok := in.Meta.Value(); ok {
			raw := []byte("{}")
			if v != nil {
				raw, err = json.Marshal(v)
				if err != nil {
					return domainagg.Wrap(domainagg.CodeValidation, op, err)
				}
			}
			updates["meta"] = datatypes.JSON(raw)
		}
		if v, ok := in.CategoryID.Value(); ok && v != current.CategoryID {
			category, err := a.deps.Categories.GetByID(dbc, v)
			if err != nil {
				return err
			}
			if category == nil || category.IsArchived() {
				return domainagg.Wrap(domainagg.CodePreconditionFailed, op,
					fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, v))
			}
			updates["category_id"] = v
		}

		var newSlug *catalog.Slug
		if v, ok := in.Slug.Value(); ok {
			s, err := catalog.NewSlug(v)
			if err != nil {
				return domainagg.Wrap(domainagg.CodeValidation, op, err)
			}
			if s.String() != current.Slug {
				available, err := a.deps.Slugs.IsSlugAvailable(dbc, s.String())
				if err != nil {
					return err
				}
				if !available {
					violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrSlugNotAvailable, s))
				}
				newSlug = &s
			}
		}
		if len(violations) > 0 {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, errors.Join(violations...))
		}
		if newSlug != nil {
			updates["slug"] = newSlug.String()
		}

		if len(updates) == 0 {
			out.Product = current
			out.Changed = false
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "product changed since it was read"); err != nil {
			return err
		}
		if newSlug != nil {
			if err := a.deps.Slugs.Repoint(dbc, catalog.KindProduct, current.ID, current.Slug, newSlug.String()); err != nil {
				return err
			}
			repointed = true
		}

		updated, err := a.deps.Products.GetByID(dbc, current.ID)
		if err != nil {
			return err
		}
		out.Product = updated
		out.Changed = true
		return nil
	})
	if err == nil && repointed {
		evictActiveSlug(ctx, a.deps.Cache, catalog.KindProduct, in.ID)
	}
	return out, err
}

func (a *productAggregate) UpdateProductImages(ctx context.Context, in domainagg.UpdateProductImagesInput) (domainagg.UpdateProductImagesResult, error) {
	const op = "Catalog.Product.UpdateImages"
	var out domainagg.UpdateProductImagesResult

	if in.ProductID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing product id", nil)
	}
	if in.ExpectedVersion < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}
	if len(in.Creates) == 0 && len(in.Updates) == 0 && len(in.Deletes) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no image operations supplied", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Products.GetByID(dbc, in.ProductID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrProductNotFound, in.ProductID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}

		existing, err := a.deps.Products.ListImages(dbc, current.ID)
		if err != nil {
			return err
		}
		existingByID := make(map[uuid.UUID]*catalog.ProductImage, len(existing))
		for i := range existing {
			existingByID[existing[i].ID] = &existing[i]
		}

		var violations []error

		// Every referenced id must be unique across operations and exist on
		// this product.
		seen := map[uuid.UUID]bool{}
		for _, u := range in.Updates {
			if seen[u.ID] {
				violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrDuplicateImageIDs, u.ID))
				continue
			}
			seen[u.ID] = true
			if _, ok := existingByID[u.ID]; !ok {
				violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrImageNotFound, u.ID))
			}
		}
		deleted := map[uuid.UUID]bool{}
		for _, id := range in.Deletes {
			if seen[id] || deleted[id] {
				violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrDuplicateImageIDs, id))
				continue
			}
			deleted[id] = true
			if _, ok := existingByID[id]; !ok {
				violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrImageNotFound, id))
			}
		}

		finalCount := len(existing) - len(deleted) + len(in.Creates)
		if finalCount > catalog.MaxProductImages {
			violations = append(violations, fmt.Errorf("%w: %d exceeds maximum %d",
				catalog.ErrTooManyImages, finalCount, catalog.MaxProductImages))
		}

		// Project the resulting primary flags before touching anything.
		primaries := 0
		for i := range existing {
			img := existing[i]
			if deleted[img.ID] {
				continue
			}
			isPrimary := img.IsPrimary
			for _, u := range in.Updates {
				if u.ID == img.ID {
					isPrimary = u.IsPrimary.Or(isPrimary)
				}
			}
			if isPrimary {
				primaries++
			}
		}
		for _, c := range in.Creates {
			if c.IsPrimary {
				primaries++
			}
		}
		if primaries > 1 {
			violations = append(violations, catalog.ErrMultiplePrimaryImages)
		}

		if len(violations) > 0 {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, errors.Join(violations...))
		}

		if err := a.deps.Products.DeleteImages(dbc, in.Deletes); err != nil {
			return err
		}
		for _, u := range in.Updates {
			imgUpdates := map[string]any{}
			if v, ok := u.URL.Value(); ok {
				if strings.TrimSpace(v) == "" {
					return domainagg.NewError(domainagg.CodeValidation, op, "image url cannot be empty", nil)
				}
				imgUpdates["url"] = v
			}
			if v, ok := u.AltText.Value(); ok {
				imgUpdates["alt_text"] = v
			}
			if v, ok := u.SortOrder.Value(); ok {
				imgUpdates["sort_order"] = v
			}
			if v, ok := u.IsPrimary.Value(); ok {
				imgUpdates["is_primary"] = v
			}
			if err := a.deps.Products.UpdateImage(dbc, u.ID, imgUpdates); err != nil {
				return err
			}
		}
		if len(in.Creates) > 0 {
			now := time.Now().UTC()
			images := make([]catalog.ProductImage, 0, len(in.Creates))
			for _, c := range in.Creates {
				if strings.TrimSpace(c.URL) == "" {
					return domainagg.NewError(domainagg.CodeValidation, op, "image url cannot be empty", nil)
				}
				images = append(images, catalog.ProductImage{
					ID:        uuid.New(),
					ProductID: current.ID,
					URL:       c.URL,
					AltText:   c.AltText,
					SortOrder: c.SortOrder,
					IsPrimary: c.IsPrimary,
					CreatedAt: now,
				})
			}
			if err := a.deps.Products.CreateImages(dbc, images); err != nil {
				return err
			}
		}

		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion, map[string]any{
			"updated_at": time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "product changed since it was read"); err != nil {
			return err
		}

		final, err := a.deps.Products.ListImages(dbc, current.ID)
		if err != nil {
			return err
		}
		out.Images = final
		out.Version = in.ExpectedVersion + 1
		return nil
	})
	return out, err
}

func (a *productAggregate) ArchiveProduct(ctx context.Context, in domainagg.LifecycleInput) (domainagg.LifecycleResult, error) {
	const op = "Catalog.Product.Archive"
	var out domainagg.LifecycleResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Products.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrProductNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}
		if current.IsArchived() {
			return InvariantError("product already archived")
		}

		at := in.At.UTC()
		if at.IsZero() {
			at = time.Now().UTC()
		}
		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion, map[string]any{
			"status":          catalog.StatusArchived,
			"previous_status": current.Status,
			"deleted_at":      at,
			"updated_at":      at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "product changed since it was read"); err != nil {
			return err
		}
		out = domainagg.LifecycleResult{ID: current.ID, Status: catalog.StatusArchived, Version: in.ExpectedVersion + 1}
		return nil
	})
	return out, err
}

func (a *productAggregate) RestoreProduct(ctx context.Context, in domainagg.LifecycleInput) (domainagg.LifecycleResult, error) {
	const op = "Catalog.Product.Restore"
	var out domainagg.LifecycleResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Products.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrProductNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}
		if !current.IsArchived() {
			return InvariantError("product is not archived")
		}

		prior := catalog.StatusDraft
		if current.PreviousStatus != nil && catalog.ValidStatus(*current.PreviousStatus) {
			prior = *current.PreviousStatus
		}
		at := in.At.UTC()
		if at.IsZero() {
			at = time.Now().UTC()
		}
		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion, map[string]any{
			"status":          prior,
			"previous_status": nil,
			"deleted_at":      nil,
			"updated_at":      at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "product changed since it was read"); err != nil {
			return err
		}
		out = domainagg.LifecycleResult{ID: current.ID, Status: prior, Version: in.ExpectedVersion + 1}
		return nil
	})
	return out, err
}

func (a *productAggregate) DeleteProduct(ctx context.Context, in domainagg.LifecycleInput) error {
	const op = "Catalog.Product.Delete"

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Products.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrProductNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}
		if !current.IsArchived() || current.Status != catalog.StatusArchived {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, catalog.ErrProductNotArchived)
		}

		if err := a.deps.Products.DeleteImagesForProduct(dbc, current.ID); err != nil {
			return err
		}
		ok, err := a.deps.Base.CASGuard.DeleteByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "product changed since it was read"); err != nil {
			return err
		}
		return a.deps.Slugs.DeleteAllFor(dbc, catalog.KindProduct, current.ID)
	})
	if err == nil {
		evictActiveSlug(ctx, a.deps.Cache, catalog.KindProduct, in.ID)
	}
	return err
}
