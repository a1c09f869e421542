package dto

import (
	"time"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/internal/core/types"
	"uniformshop/internal/domain/documents/tailoring"
)

// CreateTailoringOrderRequest opens a tailoring job. orderNo is allocated by the server.
type CreateTailoringOrderRequest struct {
	CustomerRef  string            `json:"customerRef" binding:"required,uuid"`
	Garment      string            `json:"garment" binding:"required,max=200"`
	Measurements map[string]string `json:"measurements"`
	Notes        *string           `json:"notes"`
	Price        types.Money       `json:"price"`
	AdvancePaid  types.Money       `json:"advancePaid"`
	DueDate      *time.Time        `json:"dueDate"`
}

// ToEntity converts to the domain model.
func (r *CreateTailoringOrderRequest) ToEntity() (*tailoring.Order, error) {
	ref, err := id.Parse(r.CustomerRef)
	if err != nil {
		return nil, apperror.NewValidation("invalid customer reference").WithDetail("field", "customerRef")
	}
	return &tailoring.Order{
		ID:           id.New(),
		CustomerRef:  ref,
		Garment:      r.Garment,
		Measurements: r.Measurements,
		Notes:        r.Notes,
		Price:        r.Price,
		AdvancePaid:  r.AdvancePaid,
		DueDate:      r.DueDate,
	}, nil
}

// UpdateTailoringStatusRequest advances the workflow; payment is added to the advance.
type UpdateTailoringStatusRequest struct {
	Status  string      `json:"status" binding:"required,oneof=Received InProgress Ready Delivered Cancelled"`
	Payment types.Money `json:"payment"`
}

// TailoringListQuery adds tailoring filters to ListQuery.
type TailoringListQuery struct {
	ListQuery
	Status      string `form:"status" binding:"omitempty,oneof=Received InProgress Ready Delivered Cancelled"`
	CustomerRef string `form:"customerRef" binding:"omitempty,uuid"`
}

// ToFilter converts to the tailoring filter.
func (q TailoringListQuery) ToFilter() (tailoring.ListFilter, error) {
	f := tailoring.ListFilter{ListFilter: q.ListQuery.ToFilter()}
	if q.Status != "" {
		s := tailoring.Status(q.Status)
		f.Status = &s
	}
	if q.CustomerRef != "" {
		ref, err := id.Parse(q.CustomerRef)
		if err != nil {
			return f, apperror.NewValidation("invalid customer reference").WithDetail("field", "customerRef")
		}
		f.CustomerRef = &ref
	}
	return f, nil
}

// TailoringOrderResponse is a tailoring job.
type TailoringOrderResponse struct {
	ID           string            `json:"id"`
	OrderNo      string            `json:"orderNo"`
	CustomerRef  string            `json:"customerRef"`
	Garment      string            `json:"garment"`
	Measurements map[string]string `json:"measurements,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	Price        types.Money       `json:"price"`
	AdvancePaid  types.Money       `json:"advancePaid"`
	Balance      types.Money       `json:"balance"`
	DueDate      *time.Time        `json:"dueDate,omitempty"`
	Status       string            `json:"status"`
	CreatedBy    string            `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	DeliveredAt  *time.Time        `json:"deliveredAt,omitempty"`
	Version      int               `json:"version"`
}

// FromTailoringOrder creates response from domain order.
func FromTailoringOrder(o *tailoring.Order) TailoringOrderResponse {
	return TailoringOrderResponse{
		ID:           o.ID.String(),
		OrderNo:      o.OrderNo,
		CustomerRef:  o.CustomerRef.String(),
		Garment:      o.Garment,
		Measurements: o.Measurements,
		Notes:        o.Notes,
		Price:        o.Price,
		AdvancePaid:  o.AdvancePaid,
		Balance:      o.Balance(),
		DueDate:      o.DueDate,
		Status:       string(o.Status),
		CreatedBy:    o.CreatedBy,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		DeliveredAt:  o.DeliveredAt,
		Version:      o.Version,
	}
}
