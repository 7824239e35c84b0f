package journal

import (
	"fmt"
	"math"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// round2 keeps amounts at ledger precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SalesLines builds the posting lines for an invoice: one receivable debit for the
// invoice total, one sales credit per line, and a tax liability credit when tax is
// due. The sales account resolves item mapping first, then the customer default;
// neither existing is a hard failure. Returns the lines and the invoice total.
//
// For tax-inclusive invoices the tax is carved out of the line amounts, prorated by
// amount share with the rounding remainder on the last line, so the entry stays
// balanced at two decimals.
func SalesLines(in SalesJournalInput, customer CustomerAccounts, items map[int64]ItemAccounts, settings CompanySettings) ([]LineInput, float64, error) {
	if customer.ReceivableAccountID == nil {
		return nil, 0, shared.MissingAccountMapping("receivable", fmt.Sprintf("customer %d", in.CustomerID))
	}

	var subtotal float64
	for _, line := range in.Lines {
		subtotal += line.Amount
	}
	subtotal = round2(subtotal)
	tax := round2(in.TaxAmount)

	total := subtotal + tax
	salesTotal := subtotal
	if in.TaxInclusive {
		total = subtotal
		salesTotal = round2(subtotal - tax)
	}

	lines := make([]LineInput, 0, len(in.Lines)+2)
	lines = append(lines, LineInput{
		AccountID:   *customer.ReceivableAccountID,
		Debit:       total,
		Description: in.Reference,
	})

	var credited float64
	for idx, line := range in.Lines {
		account := customer.SalesAccountID
		if line.ItemID != nil {
			if mapped, ok := items[*line.ItemID]; ok && mapped.SalesAccountID != nil {
				account = mapped.SalesAccountID
			}
		}
		if account == nil {
			detail := fmt.Sprintf("customer %d", in.CustomerID)
			if line.ItemID != nil {
				detail = fmt.Sprintf("item %d", *line.ItemID)
			}
			return nil, 0, shared.MissingAccountMapping("sales", detail)
		}

		credit := round2(line.Amount)
		if in.TaxInclusive && tax > 0 && subtotal != 0 {
			credit = round2(line.Amount - tax*line.Amount/subtotal)
		}
		if idx == len(in.Lines)-1 {
			// Absorb proration rounding on the final line.
			credit = round2(salesTotal - credited)
		}
		credited = round2(credited + credit)

		lines = append(lines, LineInput{
			AccountID:   *account,
			Credit:      credit,
			Description: line.Description,
		})
	}

	if tax > 0 {
		if settings.TaxAccountID == nil {
			return nil, 0, shared.MissingAccountMapping("tax liability", fmt.Sprintf("company %d", in.CompanyID))
		}
		lines = append(lines, LineInput{
			AccountID:   *settings.TaxAccountID,
			Credit:      tax,
			Description: "Sales tax",
		})
	}

	return lines, total, nil
}

// COGSLines builds cost-of-goods postings for stock-tracked lines: a COGS debit and
// an inventory credit per line, valued at the item purchase price with the primary
// supplier price as fallback. Lines whose cost cannot be resolved, or that lack a
// COGS or inventory mapping, are skipped rather than guessed; the skip reasons are
// returned for logging.
func COGSLines(in COGSJournalInput, costs map[int64]ItemCost, items map[int64]ItemAccounts, customer CustomerAccounts) ([]LineInput, []string) {
	var lines []LineInput
	var skipped []string

	for _, line := range in.Lines {
		if line.ItemID == nil {
			continue
		}
		itemID := *line.ItemID
		cost, ok := costs[itemID]
		if !ok || !cost.StockTracked {
			continue
		}

		unitCost := cost.PurchasePrice
		if unitCost <= 0 {
			unitCost = cost.SupplierPrice
		}
		if unitCost <= 0 {
			skipped = append(skipped, fmt.Sprintf("item %d (%s): no resolvable cost", itemID, cost.Name))
			continue
		}

		mapped := items[itemID]
		cogsAccount := mapped.COGSAccountID
		if cogsAccount == nil {
			cogsAccount = mapped.CategoryCOGSAccountID
		}
		if cogsAccount == nil {
			cogsAccount = customer.COGSAccountID
		}
		if cogsAccount == nil || mapped.InventoryAccountID == nil {
			skipped = append(skipped, fmt.Sprintf("item %d (%s): missing COGS or inventory mapping", itemID, cost.Name))
			continue
		}

		amount := round2(unitCost * line.Quantity)
		lines = append(lines,
			LineInput{AccountID: *cogsAccount, Debit: amount, Description: fmt.Sprintf("COGS %s", cost.Name)},
			LineInput{AccountID: *mapped.InventoryAccountID, Credit: amount, Description: fmt.Sprintf("Inventory out %s", cost.Name)},
		)
	}

	return lines, skipped
}
