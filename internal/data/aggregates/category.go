package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
)

type CategoryAggregateDeps struct {
	Base BaseDeps

	Categories catalogrepos.CategoryRepo
	Products   catalogrepos.ProductRepo
	Slugs      catalogrepos.SlugEntryRepo
	Cache      SlugCacheInvalidator
}

type categoryAggregate struct {
	deps CategoryAggregateDeps
}

func NewCategoryAggregate(deps CategoryAggregateDeps) domainagg.CategoryAggregate {
	deps.Base = deps.Base.withDefaults()
	return &categoryAggregate{deps: deps}
}

func (a *categoryAggregate) Contract() domainagg.Contract {
	return domainagg.CategoryAggregateContract
}

func (a *categoryAggregate) CreateCategory(ctx context.Context, in domainagg.CreateCategoryInput) (domainagg.CreateCategoryResult, error) {
	const op = "Catalog.Category.Create"
	var out domainagg.CreateCategoryResult

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing name", nil)
	}
	slug, err := catalog.NewSlug(in.Slug)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}
	if a.deps.Categories == nil || a.deps.Slugs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "category aggregate repos not configured", nil)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var path catalog.TreePath
		if in.ParentID != nil {
			parent, err := a.deps.Categories.GetByID(dbc, *in.ParentID)
			if err != nil {
				return err
			}
			if parent == nil || parent.IsArchived() {
				return domainagg.Wrap(domainagg.CodePreconditionFailed, op,
					fmt.Errorf("%w: parent %d", catalog.ErrCategoryNotFound, *in.ParentID))
			}
			parentPath, err := parent.TreePath()
			if err != nil {
				return err
			}
			path, err = catalog.PathFromParent(parentPath, slug.String())
			if err != nil {
				return domainagg.Wrap(domainagg.CodeValidation, op, err)
			}
		} else {
			var err error
			path, err = catalog.PathFromSlug(slug.String())
			if err != nil {
				return domainagg.Wrap(domainagg.CodeValidation, op, err)
			}
		}

		// Business rules run together before any write so callers see every
		// violation at once.
		var violations []error
		available, err := a.deps.Slugs.IsSlugAvailable(dbc, slug.String())
		if err != nil {
			return err
		}
		if !available {
			violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrSlugNotAvailable, slug))
		}
		nameTaken, err := a.deps.Categories.NameExistsWithinParent(dbc, in.ParentID, name, 0)
		if err != nil {
			return err
		}
		if nameTaken {
			violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrNameNotUniqueWithinParent, name))
		}
		if len(violations) > 0 {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, errors.Join(violations...))
		}

		now := time.Now().UTC()
		category := &catalog.Category{
			Name:         name,
			Description:  in.Description,
			Slug:         slug.String(),
			ImageKey:     in.ImageKey,
			Path:         path.String(),
			ParentID:     in.ParentID,
			DisplayOrder: in.DisplayOrder,
			Status:       catalog.StatusDraft,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := a.deps.Categories.Create(dbc, category); err != nil {
			return err
		}
		if err := a.deps.Slugs.Register(dbc, catalog.KindCategory, category.ID, slug.String()); err != nil {
			return err
		}
		out.Category = category
		return nil
	})
	return out, err
}

func (a *categoryAggregate) UpdateCategory(ctx context.Context, in domainagg.UpdateCategoryInput) (domainagg.UpdateCategoryResult, error) {
	const op = "Catalog.Category.Update"
	var out domainagg.UpdateCategoryResult

	if in.ID == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing category id", nil)
	}
	if in.ExpectedVersion < 1 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing expected version", nil)
	}

	repointed := false
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Categories.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}

		updates := map[string]any{}
		var violations []error

		newName := current.Name
		if v, ok := in.Name.Value(); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				return domainagg.NewError(domainagg.CodeValidation, op, "name cannot be empty", nil)
			}
			if v != current.Name {
				newName = v
				updates["name"] = v
			}
		}
		if v, ok := in.Description.Value(); ok {
			updates["description"] = v
		}
		if v, ok := in.ImageKey.Value(); ok {
			updates["image_key"] = v
		}
		if v, ok := in.DisplayOrder.Value(); ok && v != current.DisplayOrder {
			updates["display_order"] = v
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

		var newSlug *catalog.Slug
		if v, ok := in.Slug.Value(); ok {
			s, err := catalog.NewSlug(v)
			if err != nil {
				return domainagg.Wrap(domainagg.CodeValidation, op, err)
			}
			if s.String() != current.Slug {
				childCount, err := a.deps.Categories.CountLiveChildren(dbc, current.ID)
				if err != nil {
					return err
				}
				if childCount > 0 {
					// No cascading path rewrites: renaming a node would
					// invalidate every descendant's materialized path.
					return domainagg.Wrap(domainagg.CodeInvariantViolation, op, catalog.ErrHierarchyChangeNotAllowed)
				}
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

		if newName != current.Name {
			nameTaken, err := a.deps.Categories.NameExistsWithinParent(dbc, current.ParentID, newName, current.ID)
			if err != nil {
				return err
			}
			if nameTaken {
				violations = append(violations, fmt.Errorf("%w: %s", catalog.ErrNameNotUniqueWithinParent, newName))
			}
		}
		if len(violations) > 0 {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, errors.Join(violations...))
		}

		if newSlug != nil {
			currentPath, err := current.TreePath()
			if err != nil {
				return err
			}
			segs := currentPath.Segments()
			segs[len(segs)-1] = newSlug.String()
			newPath, err := catalog.ParsePath(strings.Join(segs, catalog.PathSeparator))
			if err != nil {
				return err
			}
			updates["slug"] = newSlug.String()
			updates["path"] = newPath.String()
		}

		if len(updates) == 0 {
			out.Category = current
			out.Changed = false
			return nil
		}
		updates["updated_at"] = time.Now().UTC()

		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "category changed since it was read"); err != nil {
			return err
		}
		if newSlug != nil {
			if err := a.deps.Slugs.Repoint(dbc, catalog.KindCategory, current.ID, current.Slug, newSlug.String()); err != nil {
				return err
			}
			repointed = true
		}

		updated, err := a.deps.Categories.GetByID(dbc, current.ID)
		if err != nil {
			return err
		}
		out.Category = updated
		out.Changed = true
		return nil
	})
	// Evict after commit so a concurrent resolve cannot re-prime the cache
	// with the slug the transaction is about to retire.
	if err == nil && repointed {
		evictActiveSlug(ctx, a.deps.Cache, catalog.KindCategory, in.ID)
	}
	return out, err
}

func (a *categoryAggregate) ArchiveCategory(ctx context.Context, in domainagg.LifecycleInput) (domainagg.LifecycleResult, error) {
	const op = "Catalog.Category.Archive"
	var out domainagg.LifecycleResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Categories.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}
		if current.IsArchived() {
			return InvariantError("category already archived")
		}
		childCount, err := a.deps.Categories.CountLiveChildren(dbc, current.ID)
		if err != nil {
			return err
		}
		if childCount > 0 {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, catalog.ErrCannotArchiveWithChildren)
		}

		at := in.At.UTC()
		if at.IsZero() {
			at = time.Now().UTC()
		}
		prior := current.Status
		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion, map[string]any{
			"status":          catalog.StatusArchived,
			"previous_status": prior,
			"deleted_at":      at,
			"updated_at":      at,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "category changed since it was read"); err != nil {
			return err
		}
		out = domainagg.LifecycleResult{ID: current.ID, Status: catalog.StatusArchived, Version: in.ExpectedVersion + 1}
		return nil
	})
	return out, err
}

func (a *categoryAggregate) RestoreCategory(ctx context.Context, in domainagg.LifecycleInput) (domainagg.LifecycleResult, error) {
	const op = "Catalog.Category.Restore"
	var out domainagg.LifecycleResult

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Categories.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}
		if !current.IsArchived() {
			return InvariantError("category is not archived")
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
		if err := RequireCASSuccess(ok, "category changed since it was read"); err != nil {
			return err
		}
		out = domainagg.LifecycleResult{ID: current.ID, Status: prior, Version: in.ExpectedVersion + 1}
		return nil
	})
	return out, err
}

func (a *categoryAggregate) DeleteCategory(ctx context.Context, in domainagg.LifecycleInput) error {
	const op = "Catalog.Category.Delete"

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		current, err := a.deps.Categories.GetByID(dbc, in.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.Wrap(domainagg.CodeNotFound, op,
				fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, in.ID))
		}
		if err := RequireVersionMatch(current.Version, in.ExpectedVersion); err != nil {
			return err
		}
		if !current.IsArchived() || current.Status != catalog.StatusArchived {
			return domainagg.Wrap(domainagg.CodeInvariantViolation, op, catalog.ErrCategoryNotArchived)
		}
		if a.deps.Products != nil {
			productCount, err := a.deps.Products.CountByCategory(dbc, current.ID)
			if err != nil {
				return err
			}
			if productCount > 0 {
				return domainagg.NewError(domainagg.CodePreconditionFailed, op, "category still has products", nil)
			}
		}

		ok, err := a.deps.Base.CASGuard.DeleteByVersion(dbc, current.TableName(), current.ID, in.ExpectedVersion)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "category changed since it was read"); err != nil {
			return err
		}
		return a.deps.Slugs.DeleteAllFor(dbc, catalog.KindCategory, current.ID)
	})
	if err == nil {
		evictActiveSlug(ctx, a.deps.Cache, catalog.KindCategory, in.ID)
	}
	return err
}
