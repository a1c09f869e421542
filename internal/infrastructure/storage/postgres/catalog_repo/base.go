// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/infrastructure/storage/postgres"
)

// SQLSTATEs mapped to AppErrors.
const (
	pgUniqueViolation   = "23505"
	pgNumericOutOfRange = "22003"
)

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	// readOnlyCols are never written by Update
	readOnlyCols map[string]bool
	newFn        func() T
}

// NewBaseCatalogRepo creates a base repository. Columns come from the "db" tags of T.
func NewBaseCatalogRepo[T any](
	txm *postgres.TxManager,
	tableName, entityName string,
	readOnlyCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	ro := map[string]bool{"id": true, "version": true, "created_at": true}
	for _, c := range readOnlyCols {
		ro[c] = true
	}
	return &BaseCatalogRepo[T]{
		txm:          txm,
		tableName:    tableName,
		entityName:   entityName,
		selectCols:   postgres.ExtractDBColumns[T](),
		readOnlyCols: ro,
		newFn:        newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Querier returns the transaction in ctx or the pool.
func (r *BaseCatalogRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteError(err, "insert")
	}
	return nil
}

// Update modifies an existing entity with optimistic locking and returns the new version.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) (int, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return 0, fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return 0, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	set := make(map[string]any, len(data))
	for col, val := range data {
		if !r.readOnlyCols[col] {
			set[col] = val
		}
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var newVersion int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or somebody else updated it first.
		exists, existsErr := r.Exists(ctx, entityID.(id.ID))
		if existsErr == nil && !exists {
			return 0, apperror.NewNotFound(r.entityName, fmt.Sprint(entityID))
		}
		return 0, apperror.NewConcurrentModification(r.entityName, entityID)
	}
	if err != nil {
		return 0, r.mapWriteError(err, "update")
	}
	return newVersion, nil
}

// SelectBuilder starts a SELECT over all columns.
func (r *BaseCatalogRepo[T]) SelectBuilder() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.SelectBuilder().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// GetBy retrieves the entity whose column equals value.
func (r *BaseCatalogRepo[T]) GetBy(ctx context.Context, column string, value any) (T, error) {
	return r.FindOne(ctx, r.SelectBuilder().Where(squirrel.Eq{column: value}).Limit(1), fmt.Sprint(value))
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// List runs q with paging and returns the total count before paging.
// q must already carry the entity-specific filters; orderBy is a trusted column expression.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, orderBy string) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	result.Items = make([]T, 0)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

// Exists checks if entity exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// Delete performs physical removal from the database.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict("Cannot delete: the record is still referenced").
				WithDetail("entity", r.entityName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// OrderBy resolves the filter's OrderBy against allowed (api name -> column) with a
// stable tiebreaker column.
func OrderBy(f domain.ListFilter, allowed map[string]string, def, tiebreak string) string {
	col, desc := f.SortField(allowed, def)
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s ASC", col, dir, tiebreak)
}

// mapWriteError turns constraint violations into AppErrors.
func (r *BaseCatalogRepo[T]) mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperror.NewDuplicate(r.entityName, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	}
	return fmt.Errorf("%s %s: %w", op, r.tableName, err)
}
