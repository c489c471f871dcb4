package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/petalframe/catalog-backend/internal/data/aggregates"
	aggtest "github.com/petalframe/catalog-backend/internal/data/aggregates/testutil"
	catalogrepos "github.com/petalframe/catalog-backend/internal/data/repos/catalog"
	repotest "github.com/petalframe/catalog-backend/internal/data/repos/testutil"
	domainagg "github.com/petalframe/catalog-backend/internal/domain/aggregates"
	"github.com/petalframe/catalog-backend/internal/domain/catalog"
	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
)

// Recording stubs let transaction-failure paths run without a database. Any
// repo method the path under test must not reach is left to the embedded nil
// interface, so an unexpected call panics the test.
type recordingCategoryRepo struct {
	catalogrepos.CategoryRepo
	created []*catalog.Category
}

func (r *recordingCategoryRepo) Create(_ dbctx.Context, category *catalog.Category) error {
	category.ID = int64(len(r.created) + 1)
	r.created = append(r.created, category)
	return nil
}

func (r *recordingCategoryRepo) NameExistsWithinParent(_ dbctx.Context, _ *int64, _ string, _ int64) (bool, error) {
	return false, nil
}

type recordingSlugRepo struct {
	catalogrepos.SlugEntryRepo
	registered []string
}

func (r *recordingSlugRepo) IsSlugAvailable(_ dbctx.Context, _ string) (bool, error) {
	return true, nil
}

func (r *recordingSlugRepo) Register(_ dbctx.Context, _ string, _ int64, slug string) error {
	r.registered = append(r.registered, slug)
	return nil
}

func failingRunnerAggregate(t *testing.T, runner *aggtest.InjectedTxRunner) (domainagg.CategoryAggregate, *recordingCategoryRepo, *recordingSlugRepo) {
	t.Helper()
	cats := &recordingCategoryRepo{}
	slugs := &recordingSlugRepo{}
	agg := aggregates.NewCategoryAggregate(aggregates.CategoryAggregateDeps{
		Base:       aggregates.BaseDeps{Log: repotest.Logger(t), Runner: runner},
		Categories: cats,
		Slugs:      slugs,
	})
	return agg, cats, slugs
}

func TestCreateCategory_TxBeginFailure(t *testing.T) {
	runner := &aggtest.InjectedTxRunner{FailBegin: errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")}
	agg, cats, slugs := failingRunnerAggregate(t, runner)

	_, err := agg.CreateCategory(context.Background(), domainagg.CreateCategoryInput{Name: "Flowers", Slug: "flowers"})
	if err == nil {
		t.Fatal("expected error when transaction cannot begin")
	}
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal code, got %v", err)
	}
	if runner.BeginCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("unexpected runner accounting: begins=%d commits=%d", runner.BeginCalls, runner.CommitCalls)
	}
	if len(cats.created) != 0 || len(slugs.registered) != 0 {
		t.Fatalf("no writes may happen when the transaction never begins: %d categories, %d slugs",
			len(cats.created), len(slugs.registered))
	}
}

func TestCreateCategory_TxFailsBeforeBody(t *testing.T) {
	runner := &aggtest.InjectedTxRunner{FailBeforeBody: context.DeadlineExceeded}
	agg, cats, slugs := failingRunnerAggregate(t, runner)

	_, err := agg.CreateCategory(context.Background(), domainagg.CreateCategoryInput{Name: "Flowers", Slug: "flowers"})
	if err == nil {
		t.Fatal("expected error when the transaction dies before the body runs")
	}
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("deadline failures should map to the retryable code, got %v", err)
	}
	if runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("unexpected runner accounting: rollbacks=%d commits=%d", runner.RollbackCalls, runner.CommitCalls)
	}
	if len(cats.created) != 0 || len(slugs.registered) != 0 {
		t.Fatal("body must not run when the transaction is already dead")
	}
}

func TestCreateCategory_CommitFailureSurfacesError(t *testing.T) {
	runner := &aggtest.InjectedTxRunner{FailCommit: errors.New("driver: bad connection")}
	agg, cats, slugs := failingRunnerAggregate(t, runner)

	_, err := agg.CreateCategory(context.Background(), domainagg.CreateCategoryInput{Name: "Flowers", Slug: "flowers"})
	if err == nil {
		t.Fatal("expected error when commit fails")
	}
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal code, got %v", err)
	}
	if runner.CommitCalls != 0 || runner.RollbackCalls != 1 {
		t.Fatalf("commit failure must roll back: commits=%d rollbacks=%d", runner.CommitCalls, runner.RollbackCalls)
	}
	// The body ran and staged its writes; surfacing the commit error is what
	// lets the real runner discard them.
	if len(cats.created) != 1 || len(slugs.registered) != 1 {
		t.Fatalf("expected staged writes from the body: %d categories, %d slugs",
			len(cats.created), len(slugs.registered))
	}
}
