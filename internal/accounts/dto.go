package accounts

// CreateAccountRequest adds a chart-of-accounts node.
type CreateAccountRequest struct {
	Code     string      `json:"code" validate:"required,max=20"`
	Name     string      `json:"name" validate:"required,max=200"`
	Type     AccountType `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID *int64      `json:"parent_id" validate:"omitempty,gt=0"`
	IsHeader bool        `json:"is_header"`
}

// UpdateAccountRequest renames or retires an account. Code, type and position
// in the tree are immutable once created.
type UpdateAccountRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	IsActive bool   `json:"is_active"`
}

// SetMappingRequest binds posting accounts to an item, category or customer.
type SetMappingRequest struct {
	OwnerType           OwnerType `json:"owner_type" validate:"required,oneof=ITEM CATEGORY CUSTOMER"`
	OwnerID             int64     `json:"owner_id" validate:"required,gt=0"`
	SalesAccountID      *int64    `json:"sales_account_id" validate:"omitempty,gt=0"`
	InventoryAccountID  *int64    `json:"inventory_account_id" validate:"omitempty,gt=0"`
	COGSAccountID       *int64    `json:"cogs_account_id" validate:"omitempty,gt=0"`
	ReceivableAccountID *int64    `json:"receivable_account_id" validate:"omitempty,gt=0"`
}

// UpdateSettingsRequest sets per-company posting configuration.
type UpdateSettingsRequest struct {
	TaxAccountID *int64 `json:"tax_account_id" validate:"omitempty,gt=0"`
}
