package memory

import "time"

// Store bundles every in-memory repository behind one transaction manager.
type Store struct {
	TxManager   *TxManager
	Sequences   *SequenceStore
	Products    *ProductRepo
	Customers   *CustomerRepo
	Invoices    *InvoiceRepo
	Tailoring   *TailoringRepo
	Users       *UserRepo
	Outbox      *Outbox
	Audit       *AuditLog
	Idempotency *IdempotencyStore
	Reports     *ReportRepo
}

// NewStore creates an empty store.
func NewStore(idempotencyTTL time.Duration) *Store {
	s := &Store{
		TxManager:   NewTxManager(),
		Sequences:   NewSequenceStore(),
		Products:    NewProductRepo(),
		Customers:   NewCustomerRepo(),
		Invoices:    NewInvoiceRepo(),
		Tailoring:   NewTailoringRepo(),
		Users:       NewUserRepo(),
		Outbox:      NewOutbox(),
		Audit:       NewAuditLog(),
		Idempotency: NewIdempotencyStore(idempotencyTTL),
	}
	s.Reports = &ReportRepo{
		products:  s.Products,
		customers: s.Customers,
		invoices:  s.Invoices,
		tailoring: s.Tailoring,
	}
	return s
}
