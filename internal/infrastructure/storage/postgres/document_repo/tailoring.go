package document_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/documents/tailoring"
	"uniformshop/internal/infrastructure/storage/postgres"
)

var _ tailoring.Repository = (*TailoringRepo)(nil)

var tailoringSortColumns = map[string]string{
	"createdAt": "created_at",
	"dueDate":   "due_date",
	"orderNo":   "order_no",
}

// immutable columns of a tailoring order
var tailoringFixed = map[string]bool{
	"id": true, "order_no": true, "customer_ref": true, "created_by": true, "created_at": true, "version": true,
}

// TailoringRepo implements tailoring.Repository.
type TailoringRepo struct {
	*BaseDocumentRepo[*tailoring.Order]
}

// NewTailoringRepo creates a new tailoring order repository.
func NewTailoringRepo(txm *postgres.TxManager) *TailoringRepo {
	return &TailoringRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, "tailoring_orders", "tailoring order", "order_no",
			func() *tailoring.Order { return &tailoring.Order{} }),
	}
}

// GetByID implements tailoring.Repository.
func (r *TailoringRepo) GetByID(ctx context.Context, oid id.ID) (*tailoring.Order, error) {
	return r.BaseDocumentRepo.GetByID(ctx, oid)
}

// Update implements tailoring.Repository.
func (r *TailoringRepo) Update(ctx context.Context, o *tailoring.Order) error {
	o.UpdatedAt = time.Now().UTC()
	set := make(map[string]any)
	for col, val := range postgres.StructToMap(o) {
		if !tailoringFixed[col] {
			set[col] = val
		}
	}
	next, err := r.updateVersioned(ctx, o.ID, o.Version, set)
	if err != nil {
		return err
	}
	o.Version = next
	return nil
}

// List implements tailoring.Repository.
func (r *TailoringRepo) List(ctx context.Context, f tailoring.ListFilter) (domain.ListResult[*tailoring.Order], error) {
	q := r.baseSelect()
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"order_no": pattern},
			squirrel.ILike{"garment": pattern},
		})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.CustomerRef != nil {
		q = q.Where(squirrel.Eq{"customer_ref": *f.CustomerRef})
	}
	return r.list(ctx, q, f.ListFilter, orderBy(f.ListFilter, tailoringSortColumns, "order_no"))
}
