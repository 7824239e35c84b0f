package receipt

import "time"

// AllocationRequest applies part of the receipt to one faktur.
type AllocationRequest struct {
	FakturID int64   `json:"faktur_id" validate:"required,gt=0"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
}

// CreateReceiptRequest records a customer payment. Leaving ReceiptNumber empty
// lets the service assign one from the monthly sequence.
type CreateReceiptRequest struct {
	ReceiptNumber string              `json:"receipt_number" validate:"max=50"`
	ReceiptDate   time.Time           `json:"receipt_date" validate:"required"`
	CustomerID    int64               `json:"customer_id" validate:"required,gt=0"`
	BankAccountID int64               `json:"bank_account_id" validate:"required,gt=0"`
	TotalAmount   float64             `json:"total_amount" validate:"required,gt=0"`
	Notes         string              `json:"notes" validate:"max=1000"`
	Lines         []AllocationRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateReceiptRequest replaces a receipt's content. The receipt number is
// immutable.
type UpdateReceiptRequest struct {
	ReceiptDate   time.Time           `json:"receipt_date" validate:"required"`
	CustomerID    int64               `json:"customer_id" validate:"required,gt=0"`
	BankAccountID int64               `json:"bank_account_id" validate:"required,gt=0"`
	TotalAmount   float64             `json:"total_amount" validate:"required,gt=0"`
	Notes         string              `json:"notes" validate:"max=1000"`
	Lines         []AllocationRequest `json:"lines" validate:"required,min=1,dive"`
}

// ListReceiptRequest filters the receipt listing.
type ListReceiptRequest struct {
	CustomerID int64
	Page       int
	PerPage    int
}
