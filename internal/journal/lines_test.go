package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artha-erp/artha-erp/internal/shared"
)

func ptr(v int64) *int64 { return &v }

func sumDebitCredit(lines []LineInput) (float64, float64) {
	var debit, credit float64
	for _, line := range lines {
		debit += line.Debit
		credit += line.Credit
	}
	return debit, credit
}

func TestSalesLinesTaxExclusive(t *testing.T) {
	in := SalesJournalInput{
		CompanyID:  1,
		CustomerID: 7,
		TaxAmount:  30,
		Lines: []SalesLine{
			{ItemID: ptr(10), Amount: 100},
			{ItemID: ptr(11), Amount: 200},
		},
	}
	customer := CustomerAccounts{ReceivableAccountID: ptr(1000), SalesAccountID: ptr(4000)}
	settings := CompanySettings{TaxAccountID: ptr(2100)}

	lines, total, err := SalesLines(in, customer, nil, settings)
	require.NoError(t, err)
	assert.Equal(t, 330.0, total)
	require.Len(t, lines, 4)
	assert.Equal(t, int64(1000), lines[0].AccountID)
	assert.Equal(t, 330.0, lines[0].Debit)
	assert.Equal(t, 100.0, lines[1].Credit)
	assert.Equal(t, 200.0, lines[2].Credit)
	assert.Equal(t, int64(2100), lines[3].AccountID)
	assert.Equal(t, 30.0, lines[3].Credit)

	debit, credit := sumDebitCredit(lines)
	assert.InDelta(t, debit, credit, BalanceTolerance)
}

func TestSalesLinesTaxInclusiveProration(t *testing.T) {
	in := SalesJournalInput{
		CompanyID:    1,
		CustomerID:   7,
		TaxAmount:    30,
		TaxInclusive: true,
		Lines: []SalesLine{
			{ItemID: ptr(10), Amount: 110},
			{ItemID: ptr(11), Amount: 220},
		},
	}
	customer := CustomerAccounts{ReceivableAccountID: ptr(1000), SalesAccountID: ptr(4000)}
	settings := CompanySettings{TaxAccountID: ptr(2100)}

	lines, total, err := SalesLines(in, customer, nil, settings)
	require.NoError(t, err)
	// Inclusive: the invoice total is the line sum, tax carved out of sales.
	assert.Equal(t, 330.0, total)
	assert.Equal(t, 330.0, lines[0].Debit)
	assert.Equal(t, 100.0, lines[1].Credit)
	assert.Equal(t, 200.0, lines[2].Credit)
	assert.Equal(t, 30.0, lines[3].Credit)

	debit, credit := sumDebitCredit(lines)
	assert.InDelta(t, debit, credit, BalanceTolerance)
}

func TestSalesLinesInclusiveRoundingStaysBalanced(t *testing.T) {
	in := SalesJournalInput{
		CompanyID:    1,
		CustomerID:   7,
		TaxAmount:    10,
		TaxInclusive: true,
		Lines: []SalesLine{
			{ItemID: ptr(10), Amount: 33.33},
			{ItemID: ptr(11), Amount: 33.33},
			{ItemID: ptr(12), Amount: 33.34},
		},
	}
	customer := CustomerAccounts{ReceivableAccountID: ptr(1000), SalesAccountID: ptr(4000)}
	settings := CompanySettings{TaxAccountID: ptr(2100)}

	lines, _, err := SalesLines(in, customer, nil, settings)
	require.NoError(t, err)
	debit, credit := sumDebitCredit(lines)
	assert.InDelta(t, debit, credit, BalanceTolerance)
}

func TestSalesLinesItemMappingTakesPriority(t *testing.T) {
	in := SalesJournalInput{
		CompanyID:  1,
		CustomerID: 7,
		Lines: []SalesLine{
			{ItemID: ptr(10), Amount: 100},
			{Amount: 50}, // service line, no item
		},
	}
	customer := CustomerAccounts{ReceivableAccountID: ptr(1000), SalesAccountID: ptr(4000)}
	items := map[int64]ItemAccounts{10: {SalesAccountID: ptr(4100)}}

	lines, _, err := SalesLines(in, customer, items, CompanySettings{})
	require.NoError(t, err)
	assert.Equal(t, int64(4100), lines[1].AccountID)
	assert.Equal(t, int64(4000), lines[2].AccountID)
}

func TestSalesLinesMissingMappings(t *testing.T) {
	in := SalesJournalInput{CompanyID: 1, CustomerID: 7, Lines: []SalesLine{{ItemID: ptr(10), Amount: 100}}}

	_, _, err := SalesLines(in, CustomerAccounts{}, nil, CompanySettings{})
	assert.Equal(t, shared.CodeMissingAccountMapping, shared.CodeOf(err))

	// Receivable present, but neither item nor customer sales mapping.
	_, _, err = SalesLines(in, CustomerAccounts{ReceivableAccountID: ptr(1000)}, nil, CompanySettings{})
	assert.Equal(t, shared.CodeMissingAccountMapping, shared.CodeOf(err))

	// Tax due without a configured tax account.
	in.TaxAmount = 10
	customer := CustomerAccounts{ReceivableAccountID: ptr(1000), SalesAccountID: ptr(4000)}
	_, _, err = SalesLines(in, customer, nil, CompanySettings{})
	assert.Equal(t, shared.CodeMissingAccountMapping, shared.CodeOf(err))
}

func TestCOGSLinesPurchasePriceAndSupplierFallback(t *testing.T) {
	in := COGSJournalInput{
		Lines: []COGSLine{
			{ItemID: ptr(10), Quantity: 5},
			{ItemID: ptr(11), Quantity: 2},
		},
	}
	costs := map[int64]ItemCost{
		10: {Name: "Widget", StockTracked: true, PurchasePrice: 800},
		11: {Name: "Gadget", StockTracked: true, PurchasePrice: 0, SupplierPrice: 40},
	}
	items := map[int64]ItemAccounts{
		10: {InventoryAccountID: ptr(1300), COGSAccountID: ptr(5000)},
		11: {InventoryAccountID: ptr(1300), COGSAccountID: ptr(5000)},
	}

	lines, skipped := COGSLines(in, costs, items, CustomerAccounts{})
	assert.Empty(t, skipped)
	require.Len(t, lines, 4)
	assert.Equal(t, 4000.0, lines[0].Debit)
	assert.Equal(t, 4000.0, lines[1].Credit)
	assert.Equal(t, 80.0, lines[2].Debit)
	assert.Equal(t, 80.0, lines[3].Credit)
}

func TestCOGSLinesSkipsUnresolvable(t *testing.T) {
	in := COGSJournalInput{
		Lines: []COGSLine{
			{ItemID: ptr(10), Quantity: 1}, // no cost at all
			{ItemID: ptr(11), Quantity: 1}, // no inventory mapping
			{ItemID: ptr(12), Quantity: 1}, // not stock tracked
			{Quantity: 1},                  // service line
		},
	}
	costs := map[int64]ItemCost{
		10: {Name: "A", StockTracked: true},
		11: {Name: "B", StockTracked: true, PurchasePrice: 10},
		12: {Name: "C", StockTracked: false, PurchasePrice: 10},
	}
	items := map[int64]ItemAccounts{
		11: {COGSAccountID: ptr(5000)},
	}

	lines, skipped := COGSLines(in, costs, items, CustomerAccounts{})
	assert.Empty(t, lines)
	assert.Len(t, skipped, 2)
}

func TestCOGSLinesAccountFallbackChain(t *testing.T) {
	in := COGSJournalInput{Lines: []COGSLine{{ItemID: ptr(10), Quantity: 1}}}
	costs := map[int64]ItemCost{10: {Name: "Widget", StockTracked: true, PurchasePrice: 10}}

	// Category COGS used when the item has none.
	items := map[int64]ItemAccounts{10: {InventoryAccountID: ptr(1300), CategoryCOGSAccountID: ptr(5100)}}
	lines, skipped := COGSLines(in, costs, items, CustomerAccounts{})
	require.Empty(t, skipped)
	assert.Equal(t, int64(5100), lines[0].AccountID)

	// Customer COGS as the final fallback.
	items = map[int64]ItemAccounts{10: {InventoryAccountID: ptr(1300)}}
	lines, skipped = COGSLines(in, costs, items, CustomerAccounts{COGSAccountID: ptr(5200)})
	require.Empty(t, skipped)
	assert.Equal(t, int64(5200), lines[0].AccountID)
}
