package accounts

import "time"

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Account models a chart of accounts node. Level is derived from the parent
// chain; header accounts group children and never take postings.
type Account struct {
	ID        int64       `json:"id"`
	CompanyID int64       `json:"company_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	ParentID  *int64      `json:"parent_id,omitempty"`
	Level     int         `json:"level"`
	IsHeader  bool        `json:"is_header"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OwnerType says what an account mapping is attached to.
type OwnerType string

const (
	OwnerItem     OwnerType = "ITEM"
	OwnerCategory OwnerType = "CATEGORY"
	OwnerCustomer OwnerType = "CUSTOMER"
)

// AccountMapping binds an owner to its posting accounts. Unused slots stay nil.
type AccountMapping struct {
	ID                  int64     `json:"id"`
	OwnerType           OwnerType `json:"owner_type"`
	OwnerID             int64     `json:"owner_id"`
	SalesAccountID      *int64    `json:"sales_account_id,omitempty"`
	InventoryAccountID  *int64    `json:"inventory_account_id,omitempty"`
	COGSAccountID       *int64    `json:"cogs_account_id,omitempty"`
	ReceivableAccountID *int64    `json:"receivable_account_id,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Settings holds per-company posting configuration. Tax postings refuse to
// guess: without an explicit tax account, taxed fakturs fail.
type Settings struct {
	CompanyID    int64     `json:"company_id"`
	TaxAccountID *int64    `json:"tax_account_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PostingConfigReport lists the gaps that would make postings fail at runtime.
type PostingConfigReport struct {
	TaxAccountConfigured       bool    `json:"tax_account_configured"`
	CustomersWithoutReceivable []int64 `json:"customers_without_receivable,omitempty"`
	ItemsWithoutInventory      []int64 `json:"items_without_inventory,omitempty"`
}

// Ready reports whether every posting path has the accounts it needs.
func (r PostingConfigReport) Ready() bool {
	return r.TaxAccountConfigured &&
		len(r.CustomersWithoutReceivable) == 0 &&
		len(r.ItemsWithoutInventory) == 0
}
