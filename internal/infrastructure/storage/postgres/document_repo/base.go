// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides the shared header operations for document tables.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	numberCol  string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a base document repository. numberCol holds the
// human-readable document number (invoice_id, order_no).
func NewBaseDocumentRepo[T any](
	txm *postgres.TxManager,
	tableName, entityName, numberCol string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		numberCol:  numberCol,
		selectCols: postgres.ExtractDBColumns[T](),
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts the document header.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate(r.entityName, r.numberCol, fmt.Sprint(data[r.numberCol]))
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// updateVersioned writes set when the stored version still equals version and
// returns the bumped version.
func (r *BaseDocumentRepo[T]) updateVersioned(ctx context.Context, docID id.ID, version int, set map[string]any) (int, error) {
	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID, "version": version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var next int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !pgxscan.NotFound(err) {
		return 0, fmt.Errorf("update %s: %w", r.tableName, err)
	}

	var exists bool
	if err := r.querier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+r.tableName+" WHERE id = $1)", docID,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check %s: %w", r.tableName, err)
	}
	if !exists {
		return 0, apperror.NewNotFound(r.entityName, docID.String())
	}
	return 0, apperror.NewConcurrentModification(r.entityName, docID.String())
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.getOne(ctx, squirrel.Eq{"id": docID}, docID.String())
}

// GetByNumber retrieves a document header by its human-readable number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.getOne(ctx, squirrel.Eq{r.numberCol: number}, number)
}

func (r *BaseDocumentRepo[T]) getOne(ctx context.Context, where squirrel.Eq, key string) (T, error) {
	entity := r.newFn()
	sql, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// list counts and pages q; orderBy must come from a whitelist.
func (r *BaseDocumentRepo[T]) list(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, orderBy string) (domain.ListResult[T], error) {
	filter = filter.Normalize()
	result := domain.ListResult[T]{Items: []T{}, Limit: filter.Limit, Offset: filter.Offset}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	sql, args, err := q.OrderBy(orderBy).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}

// orderBy resolves the requested sort against allowed; documents default to newest first.
func orderBy(f domain.ListFilter, allowed map[string]string, tiebreak string) string {
	col, desc := f.SortField(allowed, "created_at")
	if f.OrderBy == "" {
		desc = true
	}
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return col + dir + ", " + tiebreak + dir
}
