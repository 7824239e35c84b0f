package stock

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// fakeStore is an in-memory Store for ledger tests.
type fakeStore struct {
	items          map[int64]Item
	warehouses     map[int64]string
	firstWarehouse int64
	stocks         map[Pair]ItemStock
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:          make(map[int64]Item),
		warehouses:     make(map[int64]string),
		stocks:         make(map[Pair]ItemStock),
		firstWarehouse: 1,
	}
}

func (f *fakeStore) FirstWarehouseID(ctx context.Context, companyID int64) (int64, error) {
	return f.firstWarehouse, nil
}

func (f *fakeStore) ItemsByIDs(ctx context.Context, ids []int64) (map[int64]Item, error) {
	out := make(map[int64]Item)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (f *fakeStore) WarehousesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string)
	for _, id := range ids {
		if name, ok := f.warehouses[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeStore) StocksForUpdate(ctx context.Context, pairs []Pair) (map[Pair]ItemStock, error) {
	out := make(map[Pair]ItemStock)
	for _, pair := range pairs {
		if st, ok := f.stocks[pair]; ok {
			out[pair] = st
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertDelta(ctx context.Context, pair Pair, delta float64) error {
	st, ok := f.stocks[pair]
	if !ok {
		st = ItemStock{ItemID: pair.ItemID, WarehouseID: pair.WarehouseID}
	}
	st.CurrentStock += delta
	st.AvailableStock += delta
	f.stocks[pair] = st
	return nil
}

func ptr(v int64) *int64 { return &v }

func testLedger() *Ledger {
	return NewLedger(slog.Default())
}

func seededStore() *fakeStore {
	st := newFakeStore()
	st.items[10] = Item{ID: 10, Name: "Widget", StockTracked: true}
	st.items[20] = Item{ID: 20, Name: "Consulting", StockTracked: false}
	st.warehouses[1] = "Main"
	st.stocks[Pair{10, 1}] = ItemStock{ItemID: 10, WarehouseID: 1, CurrentStock: 10, AvailableStock: 10}
	return st
}

func TestValidatePasses(t *testing.T) {
	st := seededStore()
	lines := []MovementLine{{ItemID: ptr(10), Quantity: 5}}
	assert.NoError(t, testLedger().Validate(context.Background(), st, 1, lines))
}

func TestValidateFailsWhenShort(t *testing.T) {
	st := seededStore()
	st.stocks[Pair{10, 1}] = ItemStock{ItemID: 10, WarehouseID: 1, CurrentStock: 2, AvailableStock: 2}

	err := testLedger().Validate(context.Background(), st, 1, []MovementLine{{ItemID: ptr(10), Quantity: 5}})
	require.Error(t, err)
	assert.Equal(t, shared.CodeInsufficientStock, shared.CodeOf(err))

	var de *shared.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Widget", de.Fields["item"])
	assert.Equal(t, "Main", de.Fields["warehouse"])
	assert.Equal(t, 2.0, de.Fields["available"])
	assert.Equal(t, 5.0, de.Fields["requested"])
}

func TestValidateIgnoresNonStockLines(t *testing.T) {
	st := seededStore()
	lines := []MovementLine{
		{ItemID: ptr(20), Quantity: 999}, // service item
		{Quantity: 5},                    // no item at all
	}
	assert.NoError(t, testLedger().Validate(context.Background(), st, 1, lines))
}

func TestValidateMissingRowMeansZeroAvailable(t *testing.T) {
	st := seededStore()
	st.items[30] = Item{ID: 30, Name: "Gadget", StockTracked: true}

	err := testLedger().Validate(context.Background(), st, 1, []MovementLine{{ItemID: ptr(30), Quantity: 1}})
	assert.Equal(t, shared.CodeInsufficientStock, shared.CodeOf(err))
}

func TestValidateAggregatesDuplicateLines(t *testing.T) {
	st := seededStore()
	lines := []MovementLine{
		{ItemID: ptr(10), Quantity: 6},
		{ItemID: ptr(10), Quantity: 6},
	}
	// 12 > 10 even though each line alone fits.
	err := testLedger().Validate(context.Background(), st, 1, lines)
	assert.Equal(t, shared.CodeInsufficientStock, shared.CodeOf(err))
}

func TestValidateForUpdateOnlyChecksIncreases(t *testing.T) {
	st := seededStore()
	st.stocks[Pair{10, 1}] = ItemStock{ItemID: 10, WarehouseID: 1, CurrentStock: 2, AvailableStock: 2}

	oldLines := []MovementLine{{ItemID: ptr(10), Quantity: 5}}

	// Shrinking never fails, regardless of availability.
	newLines := []MovementLine{{ItemID: ptr(10), Quantity: 3}}
	assert.NoError(t, testLedger().ValidateForUpdate(context.Background(), st, 1, newLines, oldLines))

	// Growing checks only the extra quantity.
	newLines = []MovementLine{{ItemID: ptr(10), Quantity: 7}}
	assert.NoError(t, testLedger().ValidateForUpdate(context.Background(), st, 1, newLines, oldLines))

	newLines = []MovementLine{{ItemID: ptr(10), Quantity: 8}}
	err := testLedger().ValidateForUpdate(context.Background(), st, 1, newLines, oldLines)
	assert.Equal(t, shared.CodeInsufficientStock, shared.CodeOf(err))
}

func TestApplyOutThenInRoundTrips(t *testing.T) {
	st := seededStore()
	ledger := testLedger()
	lines := []MovementLine{{ItemID: ptr(10), Quantity: 5}}

	require.NoError(t, ledger.Apply(context.Background(), st, 1, lines, DirectionOut))
	assert.Equal(t, 5.0, st.stocks[Pair{10, 1}].AvailableStock)
	assert.Equal(t, 5.0, st.stocks[Pair{10, 1}].CurrentStock)

	require.NoError(t, ledger.Apply(context.Background(), st, 1, lines, DirectionIn))
	assert.Equal(t, 10.0, st.stocks[Pair{10, 1}].AvailableStock)
	assert.Equal(t, 10.0, st.stocks[Pair{10, 1}].CurrentStock)
}

func TestApplyCreatesMissingRow(t *testing.T) {
	st := seededStore()
	st.items[30] = Item{ID: 30, Name: "Gadget", StockTracked: true}

	require.NoError(t, testLedger().Apply(context.Background(), st, 1,
		[]MovementLine{{ItemID: ptr(30), Quantity: 4}}, DirectionIn))
	assert.Equal(t, 4.0, st.stocks[Pair{30, 1}].AvailableStock)
}

func TestResolveDefaultsWarehouse(t *testing.T) {
	st := seededStore()
	st.firstWarehouse = 9

	movements, err := testLedger().Resolve(context.Background(), st, 1,
		[]MovementLine{{ItemID: ptr(10), Quantity: 2}, {ItemID: ptr(10), WarehouseID: ptr(3), Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, int64(9), movements[0].WarehouseID)
	assert.Equal(t, int64(3), movements[1].WarehouseID)
}

func TestResolveUnknownItem(t *testing.T) {
	st := seededStore()
	_, err := testLedger().Resolve(context.Background(), st, 1, []MovementLine{{ItemID: ptr(77), Quantity: 1}})
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
}
