package masterdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artha-erp/artha-erp/internal/shared"
)

type mockRepository struct {
	customers  map[int64]*Customer
	items      map[int64]*Item
	warehouses map[int64]*Warehouse
	nextID     int64

	customerFakturs map[int64]bool
	itemMovements   map[int64]bool
	warehouseStock  map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		customers:       make(map[int64]*Customer),
		items:           make(map[int64]*Item),
		warehouses:      make(map[int64]*Warehouse),
		customerFakturs: make(map[int64]bool),
		itemMovements:   make(map[int64]bool),
		warehouseStock:  make(map[int64]bool),
	}
}

func (m *mockRepository) ListCustomers(ctx context.Context, companyID int64) ([]Customer, error) {
	var out []Customer
	for _, c := range m.customers {
		if c.CompanyID == companyID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockRepository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, shared.NotFound("customer", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) InsertCustomer(ctx context.Context, c *Customer) error {
	for _, other := range m.customers {
		if other.CompanyID == c.CompanyID && other.Code == c.Code {
			return shared.Duplicate("customer code %s already exists", c.Code)
		}
	}
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateCustomer(ctx context.Context, c *Customer) error {
	stored, ok := m.customers[c.ID]
	if !ok {
		return shared.NotFound("customer", c.ID)
	}
	*stored = *c
	return nil
}

func (m *mockRepository) DeleteCustomer(ctx context.Context, id int64) error {
	delete(m.customers, id)
	return nil
}

func (m *mockRepository) CustomerHasFakturs(ctx context.Context, id int64) (bool, error) {
	return m.customerFakturs[id], nil
}

func (m *mockRepository) ListItems(ctx context.Context, companyID int64) ([]Item, error) {
	var out []Item
	for _, i := range m.items {
		if i.CompanyID == companyID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (m *mockRepository) GetItem(ctx context.Context, id int64) (*Item, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, shared.NotFound("item", id)
	}
	cp := *i
	return &cp, nil
}

func (m *mockRepository) InsertItem(ctx context.Context, i *Item) error {
	m.nextID++
	i.ID = m.nextID
	cp := *i
	m.items[i.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateItem(ctx context.Context, i *Item) error {
	stored, ok := m.items[i.ID]
	if !ok {
		return shared.NotFound("item", i.ID)
	}
	*stored = *i
	return nil
}

func (m *mockRepository) DeleteItem(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepository) ItemHasMovements(ctx context.Context, id int64) (bool, error) {
	return m.itemMovements[id], nil
}

func (m *mockRepository) ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error) {
	var out []Warehouse
	for _, wh := range m.warehouses {
		if wh.CompanyID == companyID {
			out = append(out, *wh)
		}
	}
	return out, nil
}

func (m *mockRepository) GetWarehouse(ctx context.Context, id int64) (*Warehouse, error) {
	wh, ok := m.warehouses[id]
	if !ok {
		return nil, shared.NotFound("warehouse", id)
	}
	cp := *wh
	return &cp, nil
}

func (m *mockRepository) InsertWarehouse(ctx context.Context, wh *Warehouse) error {
	m.nextID++
	wh.ID = m.nextID
	cp := *wh
	m.warehouses[wh.ID] = &cp
	return nil
}

func (m *mockRepository) UpdateWarehouse(ctx context.Context, wh *Warehouse) error {
	stored, ok := m.warehouses[wh.ID]
	if !ok {
		return shared.NotFound("warehouse", wh.ID)
	}
	*stored = *wh
	return nil
}

func (m *mockRepository) DeleteWarehouse(ctx context.Context, id int64) error {
	delete(m.warehouses, id)
	return nil
}

func (m *mockRepository) WarehouseHasStock(ctx context.Context, id int64) (bool, error) {
	return m.warehouseStock[id], nil
}

func TestCreateCustomerValidatesPayload(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.CreateCustomer(context.Background(), 1, CustomerRequest{Name: "No Code"})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = svc.CreateCustomer(context.Background(), 1, CustomerRequest{
		Code: "CUST-1", Name: "PT Maju", Email: "not-an-email",
	})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	c, err := svc.CreateCustomer(context.Background(), 1, CustomerRequest{
		Code: "CUST-1", Name: "PT Maju", Email: "finance@maju.co.id", IsActive: true,
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, int64(1), c.CompanyID)
}

func TestDeleteCustomerBlockedByFakturs(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	c, err := svc.CreateCustomer(context.Background(), 1, CustomerRequest{Code: "CUST-1", Name: "PT Maju", IsActive: true})
	require.NoError(t, err)

	repo.customerFakturs[c.ID] = true
	err = svc.DeleteCustomer(context.Background(), c.ID)
	assert.Equal(t, shared.CodeReferentialIntegrity, shared.CodeOf(err))

	repo.customerFakturs[c.ID] = false
	require.NoError(t, svc.DeleteCustomer(context.Background(), c.ID))
	_, err = svc.GetCustomer(context.Background(), c.ID)
	assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
}

func TestUpdateItemKeepsStockTrackingWhenMoved(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	item, err := svc.CreateItem(context.Background(), 1, ItemRequest{
		Code: "WID-1", Name: "Widget", Unit: "pcs",
		SalePrice: 500000, PurchasePrice: 300000,
		IsStockTracked: true, IsActive: true,
	})
	require.NoError(t, err)

	repo.itemMovements[item.ID] = true
	req := ItemRequest{
		Code: "WID-1", Name: "Widget", Unit: "pcs",
		SalePrice: 500000, PurchasePrice: 300000,
		IsStockTracked: false, IsActive: true,
	}
	_, err = svc.UpdateItem(context.Background(), item.ID, req)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	repo.itemMovements[item.ID] = false
	updated, err := svc.UpdateItem(context.Background(), item.ID, req)
	require.NoError(t, err)
	assert.False(t, updated.IsStockTracked)
}

func TestDeleteItemBlockedByMovements(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	item, err := svc.CreateItem(context.Background(), 1, ItemRequest{
		Code: "WID-1", Name: "Widget", SalePrice: 500000, IsStockTracked: true, IsActive: true,
	})
	require.NoError(t, err)

	repo.itemMovements[item.ID] = true
	err = svc.DeleteItem(context.Background(), item.ID)
	assert.Equal(t, shared.CodeReferentialIntegrity, shared.CodeOf(err))
}

func TestDeleteWarehouseBlockedByStock(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	wh, err := svc.CreateWarehouse(context.Background(), 1, WarehouseRequest{Code: "MAIN", Name: "Main", IsActive: true})
	require.NoError(t, err)

	repo.warehouseStock[wh.ID] = true
	err = svc.DeleteWarehouse(context.Background(), wh.ID)
	assert.Equal(t, shared.CodeReferentialIntegrity, shared.CodeOf(err))

	repo.warehouseStock[wh.ID] = false
	require.NoError(t, svc.DeleteWarehouse(context.Background(), wh.ID))
}
