package stock

// Direction selects whether a movement adds to or draws from stock. IN is used to
// undo a prior OUT during edits and deletes; the two are exact inverses.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// MovementLine is a raw document line before warehouse resolution. Lines without
// an item, or whose item is not stock tracked, carry no stock effect.
type MovementLine struct {
	ItemID      *int64
	WarehouseID *int64
	Quantity    float64
}

// Movement is a resolved quantity against one item at one warehouse.
type Movement struct {
	ItemID      int64
	WarehouseID int64
	Quantity    float64
}

// Pair keys a stock row.
type Pair struct {
	ItemID      int64
	WarehouseID int64
}

// Item is the subset of item master data the ledger needs.
type Item struct {
	ID           int64
	Name         string
	StockTracked bool
}

// ItemStock is the quantity record for one item at one warehouse.
type ItemStock struct {
	ItemID         int64   `json:"item_id"`
	WarehouseID    int64   `json:"warehouse_id"`
	CurrentStock   float64 `json:"current_stock"`
	ReservedStock  float64 `json:"reserved_stock"`
	AvailableStock float64 `json:"available_stock"`
}
