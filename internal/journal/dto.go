package journal

import (
	"math"
	"time"

	"github.com/artha-erp/artha-erp/internal/shared"
)

// BalanceTolerance is the maximum accepted drift between total debit and credit.
const BalanceTolerance = 0.01

// LineInput describes one posting line.
type LineInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	Description string
}

// EntryInput groups fields required to create a journal entry. TransactionNo is
// assigned by the engine when left empty.
type EntryInput struct {
	CompanyID       int64
	TransactionDate time.Time
	TransactionNo   string
	Reference       string
	SourceType      SourceType
	SourceID        int64
	CreatedBy       int64
	Lines           []LineInput
}

// Validate ensures the entry is well formed and balanced within BalanceTolerance.
func (in EntryInput) Validate() error {
	if in.CompanyID == 0 {
		return shared.Validation("journal: company required")
	}
	if in.SourceType == "" || in.SourceID == 0 {
		return shared.Validation("journal: source reference required")
	}
	if len(in.Lines) < 2 {
		return shared.Validation("journal: at least two lines required")
	}
	var debit, credit float64
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return shared.Validation("journal: line %d missing account", idx)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return shared.Validation("journal: line %d negative amount", idx)
		}
		if line.Debit > 0 && line.Credit > 0 {
			return shared.Validation("journal: line %d cannot be both debit and credit", idx)
		}
		debit += line.Debit
		credit += line.Credit
	}
	if math.Abs(debit-credit) > BalanceTolerance {
		return shared.ImbalancedEntry(debit, credit)
	}
	return nil
}

// SalesLine is one invoice line feeding the sales journal.
type SalesLine struct {
	ItemID      *int64
	Amount      float64
	Description string
}

// SalesJournalInput describes the sales side of an invoice posting.
type SalesJournalInput struct {
	CompanyID       int64
	CustomerID      int64
	SourceID        int64
	TransactionDate time.Time
	Reference       string
	CreatedBy       int64
	TaxAmount       float64
	TaxInclusive    bool
	Lines           []SalesLine
}

// COGSLine is one invoice line feeding the cost-of-goods journal.
type COGSLine struct {
	ItemID   *int64
	Quantity float64
}

// COGSJournalInput describes the cost side of an invoice posting.
type COGSJournalInput struct {
	CompanyID       int64
	CustomerID      int64
	SourceID        int64
	TransactionDate time.Time
	Reference       string
	CreatedBy       int64
	Lines           []COGSLine
}
