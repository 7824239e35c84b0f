package stock

// Aggregate sums movements per stock row. Multiple document lines hitting the same
// (item, warehouse) accumulate into one quantity.
func Aggregate(movements []Movement) map[Pair]float64 {
	out := make(map[Pair]float64, len(movements))
	for _, m := range movements {
		out[Pair{ItemID: m.ItemID, WarehouseID: m.WarehouseID}] += m.Quantity
	}
	return out
}

// ComputeDelta returns per-row quantity change between a document's new and old
// lines: delta = newQty - oldQty. A positive delta means extra stock is being
// drawn; a negative delta means stock is being given back. Pure, so the
// revert/reapply symmetry is testable without a database.
func ComputeDelta(newMovements, oldMovements []Movement) map[Pair]float64 {
	delta := Aggregate(newMovements)
	for pair, qty := range Aggregate(oldMovements) {
		delta[pair] -= qty
		if delta[pair] == 0 {
			delete(delta, pair)
		}
	}
	return delta
}
