package reports

import "time"

// ARAgingRow buckets one customer's outstanding balances by days past due.
type ARAgingRow struct {
	CustomerID   int64   `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Current      float64 `json:"current"`
	Days30       float64 `json:"days_30"`
	Days60       float64 `json:"days_60"`
	Days90       float64 `json:"days_90"`
	Days120      float64 `json:"days_120"`
	Total        float64 `json:"total"`
	TotalDisplay string  `json:"total_display"`
}

// ARAgingReport is the full receivable aging snapshot.
type ARAgingReport struct {
	AsOf   time.Time    `json:"as_of"`
	Rows   []ARAgingRow `json:"rows"`
	Totals ARAgingRow   `json:"totals"`
}

// SalesSummaryRow aggregates posted fakturs for one calendar month.
type SalesSummaryRow struct {
	Period             string  `json:"period"`
	FakturCount        int64   `json:"faktur_count"`
	Subtotal           float64 `json:"subtotal"`
	TaxAmount          float64 `json:"tax_amount"`
	TotalAmount        float64 `json:"total_amount"`
	AmountPaid         float64 `json:"amount_paid"`
	Outstanding        float64 `json:"outstanding"`
	TotalDisplay       string  `json:"total_display"`
	OutstandingDisplay string  `json:"outstanding_display"`
}

// SalesSummaryReport covers an inclusive month range.
type SalesSummaryReport struct {
	From time.Time         `json:"from"`
	To   time.Time         `json:"to"`
	Rows []SalesSummaryRow `json:"rows"`
}

// OutstandingFaktur is the raw aging input row. Fakturs without a due date age
// from the faktur date instead.
type OutstandingFaktur struct {
	CustomerID   int64
	CustomerName string
	FakturDate   time.Time
	DueDate      *time.Time
	BalanceDue   float64
}
