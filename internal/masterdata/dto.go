package masterdata

// CustomerRequest creates or updates a customer.
type CustomerRequest struct {
	Code     string `json:"code" validate:"required,max=30"`
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=30"`
	Address  string `json:"address" validate:"max=500"`
	IsActive bool   `json:"is_active"`
}

// ItemRequest creates or updates an item.
type ItemRequest struct {
	CategoryID     *int64   `json:"category_id" validate:"omitempty,gt=0"`
	Code           string   `json:"code" validate:"required,max=30"`
	Name           string   `json:"name" validate:"required,max=200"`
	Unit           string   `json:"unit" validate:"max=20"`
	SalePrice      float64  `json:"sale_price" validate:"gte=0"`
	PurchasePrice  float64  `json:"purchase_price" validate:"gte=0"`
	SupplierPrice  *float64 `json:"supplier_price" validate:"omitempty,gte=0"`
	IsStockTracked bool     `json:"is_stock_tracked"`
	IsActive       bool     `json:"is_active"`
}

// WarehouseRequest creates or updates a warehouse.
type WarehouseRequest struct {
	Code     string `json:"code" validate:"required,max=30"`
	Name     string `json:"name" validate:"required,max=200"`
	IsActive bool   `json:"is_active"`
}
