package invoice

import "time"

// Status is the lifecycle state of a faktur.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusUnpaid    Status = "UNPAID"
	StatusPartial   Status = "PARTIAL"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// Posted reports whether the status carries stock and journal effects.
// DRAFT and CANCELLED fakturs have none.
func (s Status) Posted() bool {
	return s != StatusDraft && s != StatusCancelled
}

// RecomputeStatus derives the payment status from amounts. The stored status is
// never trusted from a client payload; it is always recomputed here or flipped
// to OVERDUE by the scheduled scan.
func RecomputeStatus(amountPaid, totalAmount float64) Status {
	switch {
	case amountPaid <= 0:
		return StatusUnpaid
	case amountPaid >= totalAmount && totalAmount > 0:
		return StatusPaid
	default:
		return StatusPartial
	}
}

// Faktur is a sales invoice header.
type Faktur struct {
	ID           int64      `json:"id"`
	CompanyID    int64      `json:"company_id"`
	FakturNumber string     `json:"faktur_number"`
	FakturDate   time.Time  `json:"faktur_date"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CustomerID   int64      `json:"customer_id"`
	CustomerName string     `json:"customer_name,omitempty"`
	PaymentTerms string     `json:"payment_terms,omitempty"`
	Subtotal     float64    `json:"subtotal"`
	TaxAmount    float64    `json:"tax_amount"`
	TaxInclusive bool       `json:"tax_inclusive"`
	TotalAmount  float64    `json:"total_amount"`
	AmountPaid   float64    `json:"amount_paid"`
	BalanceDue   float64    `json:"balance_due"`
	Status       Status     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Lines []FakturLine `json:"lines,omitempty"`
	Costs []FakturCost `json:"costs,omitempty"`
}

// FakturLine is one invoice line. ItemID is nil for free-form service lines.
type FakturLine struct {
	ID             int64   `json:"id"`
	FakturID       int64   `json:"faktur_id"`
	ItemID         *int64  `json:"item_id,omitempty"`
	WarehouseID    *int64  `json:"warehouse_id,omitempty"`
	Description    string  `json:"description,omitempty"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	DiscountAmount float64 `json:"discount_amount"`
	Amount         float64 `json:"amount"`
}

// FakturCost is an additional cost row attached to a faktur. Costs are stored
// and reported but excluded from TotalAmount.
type FakturCost struct {
	ID        int64   `json:"id"`
	FakturID  int64   `json:"faktur_id"`
	AccountID int64   `json:"account_id"`
	Amount    float64 `json:"amount"`
	Notes     string  `json:"notes,omitempty"`
}
