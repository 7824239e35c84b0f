package masterdata

import "time"

// Customer is a party fakturs are billed to.
type Customer struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a sellable good or service. Only stock-tracked items move inventory;
// service items post revenue only.
type Item struct {
	ID             int64     `json:"id"`
	CompanyID      int64     `json:"company_id"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit,omitempty"`
	SalePrice      float64   `json:"sale_price"`
	PurchasePrice  float64   `json:"purchase_price"`
	SupplierPrice  *float64  `json:"supplier_price,omitempty"`
	IsStockTracked bool      `json:"is_stock_tracked"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Warehouse is a stock location. The lowest-id warehouse acts as the company
// default for lines that name no warehouse.
type Warehouse struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
