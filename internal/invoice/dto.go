package invoice

import (
	"math"
	"time"

	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/stock"
)

// LineRequest is one invoice line in a create or update payload. Amount is
// recomputed server side from quantity, unit price and discount; the client
// value is ignored.
type LineRequest struct {
	ItemID         *int64  `json:"item_id" validate:"omitempty,gt=0"`
	WarehouseID    *int64  `json:"warehouse_id" validate:"omitempty,gt=0"`
	Description    string  `json:"description" validate:"max=500"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice      float64 `json:"unit_price" validate:"gte=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
}

// CostRequest is one additional cost row in a payload.
type CostRequest struct {
	AccountID int64   `json:"account_id" validate:"required,gt=0"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Notes     string  `json:"notes" validate:"max=500"`
}

// CreateFakturRequest creates a faktur. Leaving FakturNumber empty lets the
// service assign one.
type CreateFakturRequest struct {
	FakturNumber string        `json:"faktur_number" validate:"max=50"`
	FakturDate   time.Time     `json:"faktur_date" validate:"required"`
	DueDate      *time.Time    `json:"due_date"`
	CustomerID   int64         `json:"customer_id" validate:"required,gt=0"`
	PaymentTerms string        `json:"payment_terms" validate:"max=100"`
	TaxAmount    float64       `json:"tax_amount" validate:"gte=0"`
	TaxInclusive bool          `json:"tax_inclusive"`
	Draft        bool          `json:"draft"`
	Notes        string        `json:"notes" validate:"max=1000"`
	Lines        []LineRequest `json:"lines" validate:"required,min=1,dive"`
	Costs        []CostRequest `json:"costs" validate:"omitempty,dive"`
}

// UpdateFakturRequest replaces a faktur's content. The faktur number is
// immutable; payment fields are owned by the receipt side and ignored here.
type UpdateFakturRequest struct {
	FakturDate   time.Time     `json:"faktur_date" validate:"required"`
	DueDate      *time.Time    `json:"due_date"`
	CustomerID   int64         `json:"customer_id" validate:"required,gt=0"`
	PaymentTerms string        `json:"payment_terms" validate:"max=100"`
	TaxAmount    float64       `json:"tax_amount" validate:"gte=0"`
	TaxInclusive bool          `json:"tax_inclusive"`
	Draft        bool          `json:"draft"`
	Notes        string        `json:"notes" validate:"max=1000"`
	Lines        []LineRequest `json:"lines" validate:"required,min=1,dive"`
	Costs        []CostRequest `json:"costs" validate:"omitempty,dive"`
}

// ListFakturRequest filters the faktur listing.
type ListFakturRequest struct {
	Status     Status
	CustomerID int64
	Page       int
	PerPage    int
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// buildLines materialises request lines with server-computed amounts and
// returns them with the subtotal.
func buildLines(reqs []LineRequest) ([]FakturLine, float64) {
	lines := make([]FakturLine, 0, len(reqs))
	var subtotal float64
	for _, req := range reqs {
		amount := round2(req.Quantity*req.UnitPrice - req.DiscountAmount)
		lines = append(lines, FakturLine{
			ItemID:         req.ItemID,
			WarehouseID:    req.WarehouseID,
			Description:    req.Description,
			Quantity:       req.Quantity,
			UnitPrice:      req.UnitPrice,
			DiscountAmount: req.DiscountAmount,
			Amount:         amount,
		})
		subtotal = round2(subtotal + amount)
	}
	return lines, subtotal
}

func buildCosts(reqs []CostRequest) []FakturCost {
	costs := make([]FakturCost, 0, len(reqs))
	for _, req := range reqs {
		costs = append(costs, FakturCost{AccountID: req.AccountID, Amount: req.Amount, Notes: req.Notes})
	}
	return costs
}

// totalOf returns the invoice total for a subtotal and tax. Inclusive tax is
// already inside the line amounts.
func totalOf(subtotal, taxAmount float64, taxInclusive bool) float64 {
	if taxInclusive {
		return subtotal
	}
	return round2(subtotal + taxAmount)
}

func movementLines(lines []FakturLine) []stock.MovementLine {
	out := make([]stock.MovementLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, stock.MovementLine{
			ItemID:      line.ItemID,
			WarehouseID: line.WarehouseID,
			Quantity:    line.Quantity,
		})
	}
	return out
}

func salesLines(lines []FakturLine) []journal.SalesLine {
	out := make([]journal.SalesLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, journal.SalesLine{
			ItemID:      line.ItemID,
			Amount:      line.Amount,
			Description: line.Description,
		})
	}
	return out
}

func cogsLines(lines []FakturLine) []journal.COGSLine {
	out := make([]journal.COGSLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, journal.COGSLine{ItemID: line.ItemID, Quantity: line.Quantity})
	}
	return out
}
