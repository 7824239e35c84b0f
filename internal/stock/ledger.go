package stock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Ledger validates and applies signed quantity deltas to per-item-per-warehouse
// stock rows. Like the journal engine it holds no database handle; every call
// works through the transaction-scoped Store.
type Ledger struct {
	logger *slog.Logger
}

// NewLedger constructs the stock ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Resolve turns raw document lines into movements: non-stock lines drop out and
// lines without a warehouse fall back to the company's first warehouse. The
// default warehouse is only looked up when some line actually needs it.
func (l *Ledger) Resolve(ctx context.Context, st Store, companyID int64, lines []MovementLine) ([]Movement, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool)
	for _, line := range lines {
		if line.ItemID != nil && !seen[*line.ItemID] {
			seen[*line.ItemID] = true
			ids = append(ids, *line.ItemID)
		}
	}
	items, err := st.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("stock: load items: %w", err)
	}

	var defaultWarehouse int64
	movements := make([]Movement, 0, len(lines))
	for _, line := range lines {
		if line.ItemID == nil {
			continue
		}
		item, ok := items[*line.ItemID]
		if !ok {
			return nil, shared.NotFound("item", *line.ItemID)
		}
		if !item.StockTracked {
			continue
		}

		warehouseID := int64(0)
		if line.WarehouseID != nil {
			warehouseID = *line.WarehouseID
		} else {
			if defaultWarehouse == 0 {
				defaultWarehouse, err = st.FirstWarehouseID(ctx, companyID)
				if err != nil {
					return nil, err
				}
			}
			warehouseID = defaultWarehouse
		}

		movements = append(movements, Movement{
			ItemID:      item.ID,
			WarehouseID: warehouseID,
			Quantity:    line.Quantity,
		})
	}
	return movements, nil
}

// Validate fails with an insufficient-stock error when any stock-tracked line
// requests more than the row's available quantity. Rows are locked for the rest
// of the transaction.
func (l *Ledger) Validate(ctx context.Context, st Store, companyID int64, lines []MovementLine) error {
	movements, err := l.Resolve(ctx, st, companyID, lines)
	if err != nil {
		return err
	}
	return l.checkAvailability(ctx, st, Aggregate(movements))
}

// ValidateForUpdate checks an edited document: per row only the positive delta
// (newQty - oldQty) is held against availability, so shrinking a line never
// triggers a stock failure. Must run before the old effects are reverted, while
// availability still reflects the committed state.
func (l *Ledger) ValidateForUpdate(ctx context.Context, st Store, companyID int64, newLines, oldLines []MovementLine) error {
	newMovements, err := l.Resolve(ctx, st, companyID, newLines)
	if err != nil {
		return err
	}
	oldMovements, err := l.Resolve(ctx, st, companyID, oldLines)
	if err != nil {
		return err
	}

	increases := make(map[Pair]float64)
	for pair, delta := range ComputeDelta(newMovements, oldMovements) {
		if delta > 0 {
			increases[pair] = delta
		}
	}
	return l.checkAvailability(ctx, st, increases)
}

// Apply moves quantities in the given direction, creating stock rows as needed.
// IN(lines) exactly undoes OUT(lines), which is what edit and delete rely on.
func (l *Ledger) Apply(ctx context.Context, st Store, companyID int64, lines []MovementLine, direction Direction) error {
	movements, err := l.Resolve(ctx, st, companyID, lines)
	if err != nil {
		return err
	}
	for pair, qty := range Aggregate(movements) {
		delta := qty
		if direction == DirectionOut {
			delta = -qty
		}
		if err := st.UpsertDelta(ctx, pair, delta); err != nil {
			return fmt.Errorf("stock: apply delta: %w", err)
		}
		l.logger.Debug("stock updated",
			slog.Int64("item_id", pair.ItemID),
			slog.Int64("warehouse_id", pair.WarehouseID),
			slog.Float64("delta", delta))
	}
	return nil
}

func (l *Ledger) checkAvailability(ctx context.Context, st Store, requested map[Pair]float64) error {
	if len(requested) == 0 {
		return nil
	}
	pairs := make([]Pair, 0, len(requested))
	for pair := range requested {
		pairs = append(pairs, pair)
	}
	stocks, err := st.StocksForUpdate(ctx, pairs)
	if err != nil {
		return fmt.Errorf("stock: load stock rows: %w", err)
	}

	for pair, qty := range requested {
		available := stocks[pair].AvailableStock
		if available < qty {
			itemName, warehouseName, err := l.names(ctx, st, pair)
			if err != nil {
				return err
			}
			return shared.InsufficientStock(itemName, warehouseName, available, qty)
		}
	}
	return nil
}

func (l *Ledger) names(ctx context.Context, st Store, pair Pair) (string, string, error) {
	items, err := st.ItemsByIDs(ctx, []int64{pair.ItemID})
	if err != nil {
		return "", "", err
	}
	warehouses, err := st.WarehousesByIDs(ctx, []int64{pair.WarehouseID})
	if err != nil {
		return "", "", err
	}
	itemName := fmt.Sprintf("item %d", pair.ItemID)
	if item, ok := items[pair.ItemID]; ok {
		itemName = item.Name
	}
	warehouseName := fmt.Sprintf("warehouse %d", pair.WarehouseID)
	if name, ok := warehouses[pair.WarehouseID]; ok {
		warehouseName = name
	}
	return itemName, warehouseName, nil
}
