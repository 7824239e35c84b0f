package receipt

import "time"

// AllocationTolerance is how far the receipt total may drift from the sum of
// its allocations. Deliberately coarse: amounts are whole-currency in practice
// and legacy receipts carry small rounding differences.
const AllocationTolerance = 100.0

// Receipt is a customer payment applied across one or more fakturs.
type Receipt struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"company_id"`
	ReceiptNumber string    `json:"receipt_number"`
	ReceiptDate   time.Time `json:"receipt_date"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name,omitempty"`
	BankAccountID int64     `json:"bank_account_id"`
	TotalAmount   float64   `json:"total_amount"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Lines []ReceiptLine `json:"lines,omitempty"`
}

// ReceiptLine allocates part of the receipt to one faktur.
type ReceiptLine struct {
	ID            int64   `json:"id"`
	ReceiptID     int64   `json:"receipt_id"`
	FakturID      int64   `json:"faktur_id"`
	FakturNumber  string  `json:"faktur_number,omitempty"`
	AmountApplied float64 `json:"amount_applied"`
}

// AllocTarget is the slice of a faktur the allocator needs: identity, payment
// position and status, loaded under row lock.
type AllocTarget struct {
	ID           int64
	FakturNumber string
	CustomerID   int64
	TotalAmount  float64
	AmountPaid   float64
	Status       string
}
