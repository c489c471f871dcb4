package aggregates

import (
	"strings"

	"github.com/petalframe/catalog-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// CASGuard provides optimistic concurrency helpers for aggregate writes. The
// version column is an opaque token: domain logic only ever compares it for
// equality and advances it on commit.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByVersion updates a row only when id+version still match the version
// the caller observed at load time, advancing the version on success. A false
// return means a concurrent writer got there first.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id int64, expectedVersion int64, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == 0 {
		return false, ValidationError("table and id are required for UpdateByVersion")
	}
	if expectedVersion < 1 {
		return false, ValidationError("expectedVersion must be >= 1")
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["version"] = expectedVersion + 1
	res := db.Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByVersion removes a row only when id+version still match.
func (g CASGuard) DeleteByVersion(dbc dbctx.Context, table string, id int64, expectedVersion int64) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == 0 {
		return false, ValidationError("table and id are required for DeleteByVersion")
	}
	res := db.Exec("DELETE FROM "+table+" WHERE id = ? AND version = ?", id, expectedVersion)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireVersionMatch validates version equality for optimistic locking flows.
func RequireVersionMatch(current, expected int64) error {
	if expected < 1 {
		return ValidationError("expected version must be >= 1")
	}
	if current != expected {
		return ConflictError("version mismatch")
	}
	return nil
}
