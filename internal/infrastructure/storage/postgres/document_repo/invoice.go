package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/documents/invoice"
	"uniformshop/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceLinesTable = "invoice_lines"
)

var invoiceLineColumns = []string{
	"invoice_ref", "line_no", "product_ref", "product_code", "name", "size",
	"unit_price", "quantity", "discount", "amount",
}

var invoiceSortColumns = map[string]string{
	"createdAt":  "created_at",
	"invoiceId":  "invoice_id",
	"grandTotal": "grand_total",
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
	batch *postgres.BatchInserter
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(txm, invoicesTable, "invoice", "invoice_id",
			func() *invoice.Invoice { return &invoice.Invoice{} }),
		batch: postgres.NewBatchInserter(txm),
	}
}

// Create implements invoice.Repository. Header and lines are written in the caller's transaction.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := r.BaseDocumentRepo.Create(ctx, inv); err != nil {
		return err
	}

	rows := make([][]any, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		rows = append(rows, []any{
			inv.ID, l.LineNo, l.ProductRef, l.ProductCode, l.Name, l.Size,
			l.UnitPrice, l.Quantity, l.Discount, l.Amount,
		})
	}
	if _, err := r.batch.CopyFromSlice(ctx, invoiceLinesTable, invoiceLineColumns, rows); err != nil {
		return fmt.Errorf("insert invoice lines: %w", err)
	}
	return nil
}

// GetByID implements invoice.Repository.
func (r *InvoiceRepo) GetByID(ctx context.Context, invID id.ID) (*invoice.Invoice, error) {
	inv, err := r.BaseDocumentRepo.GetByID(ctx, invID)
	if err != nil {
		return nil, err
	}
	return r.withLines(ctx, inv)
}

// GetByInvoiceID implements invoice.Repository.
func (r *InvoiceRepo) GetByInvoiceID(ctx context.Context, number string) (*invoice.Invoice, error) {
	inv, err := r.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return r.withLines(ctx, inv)
}

func (r *InvoiceRepo) withLines(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	sql, args, err := r.Builder().
		Select(invoiceLineColumns[1:]...).
		From(invoiceLinesTable).
		Where(squirrel.Eq{"invoice_ref": inv.ID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &inv.Lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get invoice lines: %w", err)
	}
	return inv, nil
}

// UpdateStatus implements invoice.Repository.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	next, err := r.updateVersioned(ctx, inv.ID, inv.Version, map[string]any{
		"status":       inv.Status,
		"paid_at":      inv.PaidAt,
		"delivered_at": inv.DeliveredAt,
		"cancelled_at": inv.CancelledAt,
	})
	if err != nil {
		return err
	}
	inv.Version = next
	return nil
}

// List implements invoice.Repository.
func (r *InvoiceRepo) List(ctx context.Context, f invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	q := r.baseSelect()
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"invoice_id": "%" + f.Search + "%"})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.CustomerRef != nil {
		q = q.Where(squirrel.Eq{"customer_ref": *f.CustomerRef})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *f.To})
	}
	return r.list(ctx, q, f.ListFilter, orderBy(f.ListFilter, invoiceSortColumns, "invoice_id"))
}
