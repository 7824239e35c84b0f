package journal

import "time"

// SourceType ties a journal entry back to the document that caused it.
type SourceType string

const (
	SourceFaktur       SourceType = "FAKTUR"
	SourceSalesReceipt SourceType = "SALES_RECEIPT"
)

// JournalEntry captures a balanced set of ledger postings.
type JournalEntry struct {
	ID              int64         `json:"id"`
	CompanyID       int64         `json:"company_id"`
	TransactionNo   string        `json:"transaction_no"`
	TransactionDate time.Time     `json:"transaction_date"`
	Reference       string        `json:"reference,omitempty"`
	SourceType      SourceType    `json:"source_type"`
	SourceID        int64         `json:"source_id"`
	CreatedBy       int64         `json:"created_by"`
	CreatedAt       time.Time     `json:"created_at"`
	Lines           []JournalLine `json:"lines,omitempty"`
}

// JournalLine stores a debit or credit amount for an account.
type JournalLine struct {
	ID          int64   `json:"id"`
	EntryID     int64   `json:"entry_id"`
	AccountID   int64   `json:"account_id"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description,omitempty"`
}

// CustomerAccounts holds the posting accounts configured for one customer.
type CustomerAccounts struct {
	ReceivableAccountID *int64
	SalesAccountID      *int64
	COGSAccountID       *int64
}

// ItemAccounts holds the posting accounts resolved for one item, including the
// category-level COGS fallback.
type ItemAccounts struct {
	SalesAccountID        *int64
	InventoryAccountID    *int64
	COGSAccountID         *int64
	CategoryCOGSAccountID *int64
}

// CompanySettings carries company-level posting configuration.
type CompanySettings struct {
	TaxAccountID *int64
}

// ItemCost carries what is needed to value one invoice line.
type ItemCost struct {
	Name          string
	StockTracked  bool
	PurchasePrice float64
	SupplierPrice float64
}
