package masterdata

import (
	"context"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Service manages customers, items and warehouses.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Customers

func (s *Service) ListCustomers(ctx context.Context, companyID int64) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, companyID)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, companyID int64, req CustomerRequest) (*Customer, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	c := &Customer{
		CompanyID: companyID,
		Code:      req.Code,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		IsActive:  req.IsActive,
	}
	if err := s.repo.InsertCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, req CustomerRequest) (*Customer, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Code = req.Code
	c.Name = req.Name
	c.Email = req.Email
	c.Phone = req.Phone
	c.Address = req.Address
	c.IsActive = req.IsActive
	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCustomer refuses while fakturs still reference the customer.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	has, err := s.repo.CustomerHasFakturs(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return shared.ReferentialIntegrity("customer %s has fakturs", c.Code)
	}
	return s.repo.DeleteCustomer(ctx, id)
}

// Items

func (s *Service) ListItems(ctx context.Context, companyID int64) ([]Item, error) {
	return s.repo.ListItems(ctx, companyID)
}

func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, companyID int64, req ItemRequest) (*Item, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	i := &Item{
		CompanyID:      companyID,
		CategoryID:     req.CategoryID,
		Code:           req.Code,
		Name:           req.Name,
		Unit:           req.Unit,
		SalePrice:      req.SalePrice,
		PurchasePrice:  req.PurchasePrice,
		SupplierPrice:  req.SupplierPrice,
		IsStockTracked: req.IsStockTracked,
		IsActive:       req.IsActive,
	}
	if err := s.repo.InsertItem(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req ItemRequest) (*Item, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	i, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	// An item that has moved cannot stop being stock-tracked; its ledger rows
	// would orphan.
	if i.IsStockTracked && !req.IsStockTracked {
		has, err := s.repo.ItemHasMovements(ctx, id)
		if err != nil {
			return nil, err
		}
		if has {
			return nil, shared.Validation("item %s has stock movements and must stay stock-tracked", i.Code)
		}
	}

	i.CategoryID = req.CategoryID
	i.Code = req.Code
	i.Name = req.Name
	i.Unit = req.Unit
	i.SalePrice = req.SalePrice
	i.PurchasePrice = req.PurchasePrice
	i.SupplierPrice = req.SupplierPrice
	i.IsStockTracked = req.IsStockTracked
	i.IsActive = req.IsActive
	if err := s.repo.UpdateItem(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

// DeleteItem refuses while faktur lines or stock reference the item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	i, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return err
	}
	has, err := s.repo.ItemHasMovements(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return shared.ReferentialIntegrity("item %s has stock movements or faktur lines", i.Code)
	}
	return s.repo.DeleteItem(ctx, id)
}

// Warehouses

func (s *Service) ListWarehouses(ctx context.Context, companyID int64) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx, companyID)
}

func (s *Service) GetWarehouse(ctx context.Context, id int64) (*Warehouse, error) {
	return s.repo.GetWarehouse(ctx, id)
}

func (s *Service) CreateWarehouse(ctx context.Context, companyID int64, req WarehouseRequest) (*Warehouse, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	wh := &Warehouse{CompanyID: companyID, Code: req.Code, Name: req.Name, IsActive: req.IsActive}
	if err := s.repo.InsertWarehouse(ctx, wh); err != nil {
		return nil, err
	}
	return wh, nil
}

func (s *Service) UpdateWarehouse(ctx context.Context, id int64, req WarehouseRequest) (*Warehouse, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	wh, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	wh.Code = req.Code
	wh.Name = req.Name
	wh.IsActive = req.IsActive
	if err := s.repo.UpdateWarehouse(ctx, wh); err != nil {
		return nil, err
	}
	return wh, nil
}

// DeleteWarehouse refuses while the warehouse still holds stock.
func (s *Service) DeleteWarehouse(ctx context.Context, id int64) error {
	wh, err := s.repo.GetWarehouse(ctx, id)
	if err != nil {
		return err
	}
	has, err := s.repo.WarehouseHasStock(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return shared.ReferentialIntegrity("warehouse %s still holds stock", wh.Code)
	}
	return s.repo.DeleteWarehouse(ctx, id)
}
