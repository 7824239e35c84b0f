package accounts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artha-erp/artha-erp/internal/shared"
)

type mockRepository struct {
	accounts map[int64]*Account
	nextID   int64
	mappings map[string]*AccountMapping
	settings map[int64]*Settings

	journalLines    map[int64]bool
	noReceivable    []int64
	noInventoryItem []int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts:     make(map[int64]*Account),
		mappings:     make(map[string]*AccountMapping),
		settings:     make(map[int64]*Settings),
		journalLines: make(map[int64]bool),
	}
}

func mappingKey(ownerType OwnerType, ownerID int64) string {
	return fmt.Sprintf("%s/%d", ownerType, ownerID)
}

func (m *mockRepository) List(ctx context.Context, companyID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, shared.NotFound("account", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepository) Insert(ctx context.Context, account *Account) error {
	for _, a := range m.accounts {
		if a.CompanyID == account.CompanyID && a.Code == account.Code {
			return shared.Duplicate("account code %s already exists", account.Code)
		}
	}
	m.nextID++
	account.ID = m.nextID
	account.IsActive = true
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *mockRepository) Update(ctx context.Context, account *Account) error {
	stored, ok := m.accounts[account.ID]
	if !ok {
		return shared.NotFound("account", account.ID)
	}
	*stored = *account
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockRepository) HasChildren(ctx context.Context, id int64) (bool, error) {
	for _, a := range m.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) HasJournalLines(ctx context.Context, id int64) (bool, error) {
	return m.journalLines[id], nil
}

func (m *mockRepository) GetMapping(ctx context.Context, ownerType OwnerType, ownerID int64) (*AccountMapping, error) {
	mp, ok := m.mappings[mappingKey(ownerType, ownerID)]
	if !ok {
		return nil, shared.NotFound("account mapping", mappingKey(ownerType, ownerID))
	}
	cp := *mp
	return &cp, nil
}

func (m *mockRepository) UpsertMapping(ctx context.Context, mapping *AccountMapping) error {
	m.nextID++
	mapping.ID = m.nextID
	cp := *mapping
	m.mappings[mappingKey(mapping.OwnerType, mapping.OwnerID)] = &cp
	return nil
}

func (m *mockRepository) DeleteMapping(ctx context.Context, ownerType OwnerType, ownerID int64) error {
	delete(m.mappings, mappingKey(ownerType, ownerID))
	return nil
}

func (m *mockRepository) GetSettings(ctx context.Context, companyID int64) (*Settings, error) {
	s, ok := m.settings[companyID]
	if !ok {
		return &Settings{CompanyID: companyID}, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepository) UpsertSettings(ctx context.Context, settings *Settings) error {
	cp := *settings
	m.settings[settings.CompanyID] = &cp
	return nil
}

func (m *mockRepository) CustomersWithoutReceivable(ctx context.Context, companyID int64) ([]int64, error) {
	return m.noReceivable, nil
}

func (m *mockRepository) StockItemsWithoutInventory(ctx context.Context, companyID int64) ([]int64, error) {
	return m.noInventoryItem, nil
}

func TestCreateDerivesLevelFromParent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	root, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1000", Name: "Assets", Type: AccountTypeAsset, IsHeader: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, root.Level)

	child, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1100", Name: "Bank", Type: AccountTypeAsset, ParentID: &root.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, child.Level)
}

func TestCreateRejectsNonHeaderParent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	leaf, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1100", Name: "Bank", Type: AccountTypeAsset,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1110", Name: "Petty Cash", Type: AccountTypeAsset, ParentID: &leaf.ID,
	})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestCreateRejectsTypeMismatchWithParent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	root, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1000", Name: "Assets", Type: AccountTypeAsset, IsHeader: true,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "4000", Name: "Sales", Type: AccountTypeRevenue, ParentID: &root.ID,
	})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestDeleteBlockedByChildrenOrPostings(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	root, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1000", Name: "Assets", Type: AccountTypeAsset, IsHeader: true,
	})
	require.NoError(t, err)
	child, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "1100", Name: "Bank", Type: AccountTypeAsset, ParentID: &root.ID,
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), root.ID)
	assert.Equal(t, shared.CodeReferentialIntegrity, shared.CodeOf(err))

	repo.journalLines[child.ID] = true
	err = svc.Delete(context.Background(), child.ID)
	assert.Equal(t, shared.CodeReferentialIntegrity, shared.CodeOf(err))

	repo.journalLines[child.ID] = false
	require.NoError(t, svc.Delete(context.Background(), child.ID))
	require.NoError(t, svc.Delete(context.Background(), root.ID))
}

func TestSetMappingRejectsHeaderAccount(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	header, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "4000", Name: "Revenue", Type: AccountTypeRevenue, IsHeader: true,
	})
	require.NoError(t, err)

	_, err = svc.SetMapping(context.Background(), SetMappingRequest{
		OwnerType: OwnerItem, OwnerID: 10, SalesAccountID: &header.ID,
	})
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}

func TestValidatePostingConfig(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	report, err := svc.ValidatePostingConfig(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, report.TaxAccountConfigured)
	assert.True(t, len(report.CustomersWithoutReceivable) == 0)

	account, err := svc.Create(context.Background(), 1, CreateAccountRequest{
		Code: "2100", Name: "VAT Out", Type: AccountTypeLiability,
	})
	require.NoError(t, err)
	_, err = svc.UpdateSettings(context.Background(), 1, UpdateSettingsRequest{TaxAccountID: &account.ID})
	require.NoError(t, err)

	repo.noReceivable = []int64{3}
	report, err = svc.ValidatePostingConfig(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.TaxAccountConfigured)
	assert.Equal(t, []int64{3}, report.CustomersWithoutReceivable)
	assert.False(t, report.Ready())
}
