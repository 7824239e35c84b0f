package accounts

import (
	"context"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// Service manages the chart of accounts and posting configuration.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the company's chart of accounts ordered by code.
func (s *Service) List(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.List(ctx, companyID)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Get(ctx, id)
}

// Create adds an account under an optional parent. The level is derived from
// the parent, never taken from the caller.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateAccountRequest) (*Account, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	account := &Account{
		CompanyID: companyID,
		Code:      req.Code,
		Name:      req.Name,
		Type:      req.Type,
		ParentID:  req.ParentID,
		Level:     1,
		IsHeader:  req.IsHeader,
	}
	if req.ParentID != nil {
		parent, err := s.repo.Get(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.CompanyID != companyID {
			return nil, shared.Validation("parent account belongs to another company")
		}
		if !parent.IsHeader {
			return nil, shared.Validation("parent account %s is not a header", parent.Code)
		}
		if parent.Type != req.Type {
			return nil, shared.Validation("account type must match parent type %s", parent.Type)
		}
		account.Level = parent.Level + 1
	}

	if err := s.repo.Insert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update renames or (de)activates an account.
func (s *Service) Update(ctx context.Context, id int64, req UpdateAccountRequest) (*Account, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Name = req.Name
	account.IsActive = req.IsActive
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes an account that has no children and no postings.
func (s *Service) Delete(ctx context.Context, id int64) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.ReferentialIntegrity("account %s has child accounts", account.Code)
	}
	hasLines, err := s.repo.HasJournalLines(ctx, id)
	if err != nil {
		return err
	}
	if hasLines {
		return shared.ReferentialIntegrity("account %s has journal postings", account.Code)
	}
	return s.repo.Delete(ctx, id)
}

// GetMapping returns the posting accounts bound to an owner.
func (s *Service) GetMapping(ctx context.Context, ownerType OwnerType, ownerID int64) (*AccountMapping, error) {
	return s.repo.GetMapping(ctx, ownerType, ownerID)
}

// SetMapping binds posting accounts to an item, category or customer. Every
// referenced account must exist and be postable.
func (s *Service) SetMapping(ctx context.Context, req SetMappingRequest) (*AccountMapping, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	for _, id := range []*int64{req.SalesAccountID, req.InventoryAccountID, req.COGSAccountID, req.ReceivableAccountID} {
		if id == nil {
			continue
		}
		account, err := s.repo.Get(ctx, *id)
		if err != nil {
			return nil, err
		}
		if account.IsHeader {
			return nil, shared.Validation("account %s is a header and cannot take postings", account.Code)
		}
	}

	mapping := &AccountMapping{
		OwnerType:           req.OwnerType,
		OwnerID:             req.OwnerID,
		SalesAccountID:      req.SalesAccountID,
		InventoryAccountID:  req.InventoryAccountID,
		COGSAccountID:       req.COGSAccountID,
		ReceivableAccountID: req.ReceivableAccountID,
	}
	if err := s.repo.UpsertMapping(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// DeleteMapping unbinds an owner's posting accounts.
func (s *Service) DeleteMapping(ctx context.Context, ownerType OwnerType, ownerID int64) error {
	return s.repo.DeleteMapping(ctx, ownerType, ownerID)
}

// GetSettings returns the company's posting configuration.
func (s *Service) GetSettings(ctx context.Context, companyID int64) (*Settings, error) {
	return s.repo.GetSettings(ctx, companyID)
}

// UpdateSettings sets the company's posting configuration.
func (s *Service) UpdateSettings(ctx context.Context, companyID int64, req UpdateSettingsRequest) (*Settings, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if req.TaxAccountID != nil {
		account, err := s.repo.Get(ctx, *req.TaxAccountID)
		if err != nil {
			return nil, err
		}
		if account.IsHeader {
			return nil, shared.Validation("account %s is a header and cannot take postings", account.Code)
		}
	}

	settings := &Settings{CompanyID: companyID, TaxAccountID: req.TaxAccountID}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ValidatePostingConfig reports every gap that would make an invoice or
// receipt posting fail: customers without a receivable mapping, stock items
// without an inventory account, and a missing tax account.
func (s *Service) ValidatePostingConfig(ctx context.Context, companyID int64) (*PostingConfigReport, error) {
	settings, err := s.repo.GetSettings(ctx, companyID)
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.CustomersWithoutReceivable(ctx, companyID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.StockItemsWithoutInventory(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &PostingConfigReport{
		TaxAccountConfigured:       settings.TaxAccountID != nil,
		CustomersWithoutReceivable: customers,
		ItemsWithoutInventory:      items,
	}, nil
}
