package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
	"uniformshop/internal/domain/documents/invoice"
)

var _ invoice.Repository = (*InvoiceRepo)(nil)

// InvoiceRepo stores invoices in memory.
type InvoiceRepo struct {
	mu       sync.RWMutex
	items    map[id.ID]*invoice.Invoice
	byNumber map[string]id.ID
}

// NewInvoiceRepo creates an empty invoice repository.
func NewInvoiceRepo() *InvoiceRepo {
	return &InvoiceRepo{
		items:    make(map[id.ID]*invoice.Invoice),
		byNumber: make(map[string]id.ID),
	}
}

func cloneInvoice(inv *invoice.Invoice, withLines bool) *invoice.Invoice {
	c := *inv
	c.Lines = nil
	if withLines {
		c.Lines = slices.Clone(inv.Lines)
	}
	return &c
}

// Create implements invoice.Repository.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNumber[inv.InvoiceID]; ok {
		return apperror.NewDuplicate("invoice", "invoiceId", inv.InvoiceID)
	}
	r.items[inv.ID] = cloneInvoice(inv, true)
	r.byNumber[inv.InvoiceID] = inv.ID

	invID, number := inv.ID, inv.InvoiceID
	onRollback(ctx, func() {
		r.mu.Lock()
		delete(r.items, invID)
		delete(r.byNumber, number)
		r.mu.Unlock()
	})
	return nil
}

// GetByID implements invoice.Repository.
func (r *InvoiceRepo) GetByID(_ context.Context, invID id.ID) (*invoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.items[invID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invID.String())
	}
	return cloneInvoice(inv, true), nil
}

// GetByInvoiceID implements invoice.Repository.
func (r *InvoiceRepo) GetByInvoiceID(ctx context.Context, number string) (*invoice.Invoice, error) {
	r.mu.RLock()
	invID, ok := r.byNumber[number]
	r.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFound("invoice", number)
	}
	return r.GetByID(ctx, invID)
}

// UpdateStatus implements invoice.Repository.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[inv.ID]
	if !ok {
		return apperror.NewNotFound("invoice", inv.ID.String())
	}
	if cur.Version != inv.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID.String())
	}

	prev := cloneInvoice(cur, true)
	cur.Status = inv.Status
	cur.PaidAt = inv.PaidAt
	cur.DeliveredAt = inv.DeliveredAt
	cur.CancelledAt = inv.CancelledAt
	cur.Version++
	inv.Version = cur.Version

	onRollback(ctx, func() {
		r.mu.Lock()
		r.items[prev.ID] = prev
		r.mu.Unlock()
	})
	return nil
}

// List implements invoice.Repository.
func (r *InvoiceRepo) List(_ context.Context, f invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	r.mu.RLock()
	search := strings.ToLower(f.Search)
	items := make([]*invoice.Invoice, 0, len(r.items))
	for _, inv := range r.items {
		if !matchInvoice(inv, f, search) {
			continue
		}
		items = append(items, cloneInvoice(inv, false))
	}
	r.mu.RUnlock()

	col, desc := f.SortField(map[string]string{
		"createdAt": "created_at", "invoiceId": "invoice_id", "grandTotal": "grand_total",
	}, "created_at")
	if f.OrderBy == "" {
		desc = true
	}
	slices.SortFunc(items, func(a, b *invoice.Invoice) int {
		var c int
		switch col {
		case "invoice_id":
			c = cmp.Compare(a.InvoiceID, b.InvoiceID)
		case "grand_total":
			c = a.GrandTotal.Cmp(b.GrandTotal)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.InvoiceID, b.InvoiceID)
		}
		if desc {
			return -c
		}
		return c
	})
	return domain.Page(items, f.ListFilter), nil
}

func matchInvoice(inv *invoice.Invoice, f invoice.ListFilter, search string) bool {
	if search != "" && !strings.Contains(strings.ToLower(inv.InvoiceID), search) {
		return false
	}
	if f.Status != nil && inv.Status != *f.Status {
		return false
	}
	if f.CustomerRef != nil && (inv.CustomerRef == nil || *inv.CustomerRef != *f.CustomerRef) {
		return false
	}
	if f.From != nil && inv.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !inv.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

// snapshot returns copies of all invoices with lines for reports.
func (r *InvoiceRepo) snapshot() []*invoice.Invoice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*invoice.Invoice, 0, len(r.items))
	for _, inv := range r.items {
		out = append(out, cloneInvoice(inv, true))
	}
	return out
}
