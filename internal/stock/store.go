package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Store exposes the persistence operations the ledger needs, scoped to the
// caller's transaction.
type Store interface {
	FirstWarehouseID(ctx context.Context, companyID int64) (int64, error)
	ItemsByIDs(ctx context.Context, ids []int64) (map[int64]Item, error)
	WarehousesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
	StocksForUpdate(ctx context.Context, pairs []Pair) (map[Pair]ItemStock, error)
	UpsertDelta(ctx context.Context, pair Pair, delta float64) error
}

// NewStore wraps a pgx transaction as a Store.
func NewStore(tx pgx.Tx) Store {
	return &pgxStore{tx: tx}
}

type pgxStore struct {
	tx pgx.Tx
}

func (s *pgxStore) FirstWarehouseID(ctx context.Context, companyID int64) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `SELECT id FROM warehouses WHERE company_id=$1 ORDER BY id ASC LIMIT 1`, companyID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.Validation("stock: company %d has no warehouse", companyID)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *pgxStore) ItemsByIDs(ctx context.Context, ids []int64) (map[int64]Item, error) {
	out := make(map[int64]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.tx.Query(ctx, `SELECT id, name, is_stock_tracked FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.StockTracked); err != nil {
			return nil, err
		}
		out[item.ID] = item
	}
	return out, rows.Err()
}

func (s *pgxStore) WarehousesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.tx.Query(ctx, `SELECT id, name FROM warehouses WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// StocksForUpdate batch-loads and row-locks the stock rows for every pair in one
// round trip. Pairs without a row are simply absent from the result.
func (s *pgxStore) StocksForUpdate(ctx context.Context, pairs []Pair) (map[Pair]ItemStock, error) {
	out := make(map[Pair]ItemStock, len(pairs))
	if len(pairs) == 0 {
		return out, nil
	}

	placeholders := make([]string, 0, len(pairs))
	args := make([]any, 0, len(pairs)*2)
	for i, pair := range pairs {
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d)", i*2+1, i*2+2))
		args = append(args, pair.ItemID, pair.WarehouseID)
	}

	query := fmt.Sprintf(`SELECT item_id, warehouse_id, current_stock, reserved_stock, available_stock
FROM item_stocks WHERE (item_id, warehouse_id) IN (%s) FOR UPDATE`, strings.Join(placeholders, ","))
	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st ItemStock
		if err := rows.Scan(&st.ItemID, &st.WarehouseID, &st.CurrentStock, &st.ReservedStock, &st.AvailableStock); err != nil {
			return nil, err
		}
		out[Pair{ItemID: st.ItemID, WarehouseID: st.WarehouseID}] = st
	}
	return out, rows.Err()
}

func (s *pgxStore) UpsertDelta(ctx context.Context, pair Pair, delta float64) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO item_stocks (item_id, warehouse_id, current_stock, reserved_stock, available_stock)
VALUES ($1,$2,$3,0,$3)
ON CONFLICT (item_id, warehouse_id) DO UPDATE
SET current_stock = item_stocks.current_stock + $3,
    available_stock = item_stocks.available_stock + $3,
    updated_at = NOW()`, pair.ItemID, pair.WarehouseID, delta)
	return err
}
