package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Repository defines persistence operations for master data.
type Repository interface {
	ListCustomers(ctx context.Context, companyID int64) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	InsertCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	CustomerHasFakturs(ctx context.Context, id int64) (bool, error)

	ListItems(ctx context.Context, companyID int64) ([]Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	InsertItem(ctx context.Context, i *Item) error
	UpdateItem(ctx context.Context, i *Item) error
	DeleteItem(ctx context.Context, id int64) error
	ItemHasMovements(ctx context.Context, id int64) (bool, error)

	ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, id int64) (*Warehouse, error)
	InsertWarehouse(ctx context.Context, wh *Warehouse) error
	UpdateWarehouse(ctx context.Context, wh *Warehouse) error
	DeleteWarehouse(ctx context.Context, id int64) error
	WarehouseHasStock(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListCustomers(ctx context.Context, companyID int64) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, COALESCE(email,''), COALESCE(phone,''),
COALESCE(address,''), is_active, created_at, updated_at
FROM customers WHERE company_id=$1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone,
			&c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, COALESCE(email,''), COALESCE(phone,''),
COALESCE(address,''), is_active, created_at, updated_at
FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone,
			&c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("customer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: get customer: %w", err)
	}
	return &c, nil
}

func (r *repository) InsertCustomer(ctx context.Context, c *Customer) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO customers (company_id, code, name, email, phone, address, is_active)
VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),NULLIF($6,''),$7) RETURNING id, created_at, updated_at`,
		c.CompanyID, c.Code, c.Name, c.Email, c.Phone, c.Address, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapPgError("masterdata: insert customer", err)
}

func (r *repository) UpdateCustomer(ctx context.Context, c *Customer) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE customers SET code=$2, name=$3, email=NULLIF($4,''), phone=NULLIF($5,''),
address=NULLIF($6,''), is_active=$7, updated_at=NOW() WHERE id=$1`,
		c.ID, c.Code, c.Name, c.Email, c.Phone, c.Address, c.IsActive)
	if err != nil {
		return mapPgError("masterdata: update customer", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("customer", c.ID)
	}
	return nil
}

func (r *repository) DeleteCustomer(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	return mapPgError("masterdata: delete customer", err)
}

func (r *repository) CustomerHasFakturs(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fakturs WHERE customer_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) ListItems(ctx context.Context, companyID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, category_id, code, name, COALESCE(unit,''),
sale_price, purchase_price, supplier_price, is_stock_tracked, is_active, created_at, updated_at
FROM items WHERE company_id=$1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.CompanyID, &i.CategoryID, &i.Code, &i.Name, &i.Unit,
			&i.SalePrice, &i.PurchasePrice, &i.SupplierPrice, &i.IsStockTracked, &i.IsActive,
			&i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	var i Item
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, category_id, code, name, COALESCE(unit,''),
sale_price, purchase_price, supplier_price, is_stock_tracked, is_active, created_at, updated_at
FROM items WHERE id=$1`, id).
		Scan(&i.ID, &i.CompanyID, &i.CategoryID, &i.Code, &i.Name, &i.Unit,
			&i.SalePrice, &i.PurchasePrice, &i.SupplierPrice, &i.IsStockTracked, &i.IsActive,
			&i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: get item: %w", err)
	}
	return &i, nil
}

func (r *repository) InsertItem(ctx context.Context, i *Item) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO items (company_id, category_id, code, name, unit, sale_price,
purchase_price, supplier_price, is_stock_tracked, is_active)
VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7,$8,$9,$10) RETURNING id, created_at, updated_at`,
		i.CompanyID, i.CategoryID, i.Code, i.Name, i.Unit, i.SalePrice,
		i.PurchasePrice, i.SupplierPrice, i.IsStockTracked, i.IsActive).
		Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	return mapPgError("masterdata: insert item", err)
}

func (r *repository) UpdateItem(ctx context.Context, i *Item) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE items SET category_id=$2, code=$3, name=$4, unit=NULLIF($5,''),
sale_price=$6, purchase_price=$7, supplier_price=$8, is_stock_tracked=$9, is_active=$10, updated_at=NOW()
WHERE id=$1`,
		i.ID, i.CategoryID, i.Code, i.Name, i.Unit,
		i.SalePrice, i.PurchasePrice, i.SupplierPrice, i.IsStockTracked, i.IsActive)
	if err != nil {
		return mapPgError("masterdata: update item", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("item", i.ID)
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
	return mapPgError("masterdata: delete item", err)
}

func (r *repository) ItemHasMovements(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM faktur_lines WHERE item_id=$1)
OR EXISTS (SELECT 1 FROM item_stocks WHERE item_id=$1 AND current_stock <> 0)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, code, name, is_active, created_at, updated_at
FROM warehouses WHERE company_id=$1 ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.CompanyID, &wh.Code, &wh.Name, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, rows.Err()
}

func (r *repository) GetWarehouse(ctx context.Context, id int64) (*Warehouse, error) {
	var wh Warehouse
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, code, name, is_active, created_at, updated_at
FROM warehouses WHERE id=$1`, id).
		Scan(&wh.ID, &wh.CompanyID, &wh.Code, &wh.Name, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NotFound("warehouse", id)
	}
	if err != nil {
		return nil, fmt.Errorf("masterdata: get warehouse: %w", err)
	}
	return &wh, nil
}

func (r *repository) InsertWarehouse(ctx context.Context, wh *Warehouse) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO warehouses (company_id, code, name, is_active)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`,
		wh.CompanyID, wh.Code, wh.Name, wh.IsActive).
		Scan(&wh.ID, &wh.CreatedAt, &wh.UpdatedAt)
	return mapPgError("masterdata: insert warehouse", err)
}

func (r *repository) UpdateWarehouse(ctx context.Context, wh *Warehouse) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE warehouses SET code=$2, name=$3, is_active=$4, updated_at=NOW() WHERE id=$1`,
		wh.ID, wh.Code, wh.Name, wh.IsActive)
	if err != nil {
		return mapPgError("masterdata: update warehouse", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("warehouse", wh.ID)
	}
	return nil
}

func (r *repository) DeleteWarehouse(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM warehouses WHERE id=$1`, id)
	return mapPgError("masterdata: delete warehouse", err)
}

func (r *repository) WarehouseHasStock(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM item_stocks WHERE warehouse_id=$1 AND current_stock <> 0)`, id).Scan(&exists)
	return exists, err
}

func mapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.Duplicate("%s: %s", op, pgErr.ConstraintName)
		case "23503":
			return shared.ReferentialIntegrity("%s: %s", op, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
