package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/artha-erp/artha-erp/internal/invoice"
	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/shared"
)

// RepositoryPort defines data access methods for receipts.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetReceipt(ctx context.Context, id int64) (*Receipt, error)
	ListReceipts(ctx context.Context, companyID int64, req ListReceiptRequest) ([]Receipt, int, error)
}

// AuditRecorder records who did what. Audit failures are logged, never surfaced.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service allocates customer payments across fakturs and posts the matching
// bank-against-receivable journal, all inside one transaction.
type Service struct {
	repo    RepositoryPort
	journal *journal.Engine
	audit   AuditRecorder
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, journalEngine *journal.Engine, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, journal: journalEngine, audit: audit, logger: logger}
}

// ListResult is one page of receipts.
type ListResult struct {
	Receipts   []Receipt         `json:"receipts"`
	Pagination shared.Pagination `json:"pagination"`
}

// Get returns a receipt with its allocation lines.
func (s *Service) Get(ctx context.Context, id int64) (*Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

// List returns a filtered page of receipts.
func (s *Service) List(ctx context.Context, companyID int64, req ListReceiptRequest) (*ListResult, error) {
	receipts, total, err := s.repo.ListReceipts(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Receipts:   receipts,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

// Create records a payment, advances each allocated faktur's payment position
// and posts the receipt journal.
func (s *Service) Create(ctx context.Context, companyID, userID int64, req CreateReceiptRequest) (*Receipt, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if err := checkAllocationTotal(req.TotalAmount, req.Lines); err != nil {
		return nil, err
	}

	rec := &Receipt{
		CompanyID:     companyID,
		ReceiptDate:   req.ReceiptDate,
		CustomerID:    req.CustomerID,
		BankAccountID: req.BankAccountID,
		TotalAmount:   req.TotalAmount,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := s.resolveNumber(ctx, tx, companyID, req.ReceiptNumber, req.ReceiptDate)
		if err != nil {
			return err
		}
		rec.ReceiptNumber = number

		if err := s.checkBankAccount(ctx, tx, req.BankAccountID); err != nil {
			return err
		}
		if err := tx.InsertReceipt(ctx, rec); err != nil {
			return err
		}

		lines := buildLines(req.Lines)
		if err := s.applyAllocations(ctx, tx, rec, lines); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, rec.ID, lines); err != nil {
			return err
		}
		rec.Lines = lines
		return s.postJournal(ctx, tx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, "receipt.create", rec.ID, map[string]any{
		"receipt_number": rec.ReceiptNumber,
		"total_amount":   rec.TotalAmount,
	})
	return s.repo.GetReceipt(ctx, rec.ID)
}

// Update replaces a receipt's content: the old allocations come off every
// affected faktur, the journal is voided, and the new state goes on.
func (s *Service) Update(ctx context.Context, id, userID int64, req UpdateReceiptRequest) (*Receipt, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}
	if err := checkAllocationTotal(req.TotalAmount, req.Lines); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetReceiptForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkBankAccount(ctx, tx, req.BankAccountID); err != nil {
			return err
		}
		if err := s.revertAllocations(ctx, tx, existing); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}

		updated := *existing
		updated.ReceiptDate = req.ReceiptDate
		updated.CustomerID = req.CustomerID
		updated.BankAccountID = req.BankAccountID
		updated.TotalAmount = req.TotalAmount
		updated.Notes = req.Notes
		updated.Lines = nil
		if err := tx.UpdateReceipt(ctx, &updated); err != nil {
			return err
		}

		lines := buildLines(req.Lines)
		if err := s.applyAllocations(ctx, tx, &updated, lines); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, id, lines); err != nil {
			return err
		}
		updated.Lines = lines
		return s.postJournal(ctx, tx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, "receipt.update", id, map[string]any{"total_amount": req.TotalAmount})
	return s.repo.GetReceipt(ctx, id)
}

// Delete removes a receipt, rolling its payments off every allocated faktur
// and voiding its journal.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetReceiptForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.revertAllocations(ctx, tx, existing); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		return tx.DeleteReceipt(ctx, id)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, userID, "receipt.delete", id, nil)
	return nil
}

// applyAllocations advances each target faktur's payment position. Fakturs are
// locked one by one, so concurrent receipts against the same faktur serialize
// and both land.
func (s *Service) applyAllocations(ctx context.Context, tx TxRepository, rec *Receipt, lines []ReceiptLine) error {
	for i := range lines {
		line := &lines[i]
		target, err := tx.FakturForUpdate(ctx, line.FakturID)
		if err != nil {
			return err
		}
		if target.CustomerID != rec.CustomerID {
			return shared.Validation("faktur %s belongs to another customer", target.FakturNumber)
		}
		status := invoice.Status(target.Status)
		if !status.Posted() {
			return shared.Validation("faktur %s is %s and cannot receive payment", target.FakturNumber, status)
		}
		outstanding := target.TotalAmount - target.AmountPaid
		if line.AmountApplied > outstanding+AllocationTolerance {
			return shared.Validation("allocation %.2f exceeds outstanding %.2f on faktur %s",
				line.AmountApplied, outstanding, target.FakturNumber)
		}

		newPaid := round2(target.AmountPaid + line.AmountApplied)
		if err := tx.UpdateFakturPayment(ctx, target.ID, newPaid,
			round2(target.TotalAmount-newPaid),
			invoice.RecomputeStatus(newPaid, target.TotalAmount)); err != nil {
			return err
		}
		line.FakturNumber = target.FakturNumber
	}
	return nil
}

// revertAllocations rolls the receipt's payments back off each faktur and
// voids the receipt journal.
func (s *Service) revertAllocations(ctx context.Context, tx TxRepository, rec *Receipt) error {
	for _, line := range rec.Lines {
		target, err := tx.FakturForUpdate(ctx, line.FakturID)
		if err != nil {
			return err
		}
		newPaid := round2(target.AmountPaid - line.AmountApplied)
		if err := tx.UpdateFakturPayment(ctx, target.ID, newPaid,
			round2(target.TotalAmount-newPaid),
			invoice.RecomputeStatus(newPaid, target.TotalAmount)); err != nil {
			return err
		}
	}
	return s.journal.VoidBySource(ctx, tx.Journal(), rec.CompanyID, journal.SourceSalesReceipt, rec.ID)
}

// postJournal records the payment: bank debit against receivable credit.
func (s *Service) postJournal(ctx context.Context, tx TxRepository, rec *Receipt) error {
	customer, err := tx.Journal().CustomerAccounts(ctx, rec.CustomerID)
	if err != nil {
		return fmt.Errorf("receipt: load customer accounts: %w", err)
	}
	if customer.ReceivableAccountID == nil {
		return shared.MissingAccountMapping("receivable", fmt.Sprintf("customer %d", rec.CustomerID))
	}

	_, err = s.journal.CreateEntry(ctx, tx.Journal(), journal.EntryInput{
		CompanyID:       rec.CompanyID,
		TransactionDate: rec.ReceiptDate,
		Reference:       rec.ReceiptNumber,
		SourceType:      journal.SourceSalesReceipt,
		SourceID:        rec.ID,
		CreatedBy:       rec.CreatedBy,
		Lines: []journal.LineInput{
			{AccountID: rec.BankAccountID, Debit: rec.TotalAmount, Description: "Payment received " + rec.ReceiptNumber},
			{AccountID: *customer.ReceivableAccountID, Credit: rec.TotalAmount, Description: "Settlement " + rec.ReceiptNumber},
		},
	})
	return err
}

// resolveNumber returns the receipt number to use, assigning the next monthly
// sequence value when none was supplied.
func (s *Service) resolveNumber(ctx context.Context, tx TxRepository, companyID int64, requested string, date time.Time) (string, error) {
	if requested != "" {
		exists, err := tx.ReceiptNumberExists(ctx, companyID, requested)
		if err != nil {
			return "", fmt.Errorf("receipt: check receipt number: %w", err)
		}
		if exists {
			return "", shared.Duplicate("receipt number %s already exists", requested)
		}
		return requested, nil
	}

	scope := fmt.Sprintf("RC/%04d/%02d", date.Year(), int(date.Month()))
	seq, err := tx.Journal().NextSequence(ctx, companyID, scope)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%04d", scope, seq), nil
}

func (s *Service) checkBankAccount(ctx context.Context, tx TxRepository, accountID int64) error {
	exists, err := tx.AccountExists(ctx, accountID)
	if err != nil {
		return fmt.Errorf("receipt: check bank account: %w", err)
	}
	if !exists {
		return shared.Validation("bank account %d not found", accountID)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, userID int64, action string, receiptID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  userID,
		Action:   action,
		Entity:   "receipt",
		EntityID: strconv.FormatInt(receiptID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func checkAllocationTotal(total float64, lines []AllocationRequest) error {
	var allocated float64
	for _, line := range lines {
		allocated += line.Amount
	}
	if math.Abs(total-allocated) > AllocationTolerance {
		return &shared.Error{
			Code:    shared.CodeValidation,
			Message: fmt.Sprintf("allocations %.2f do not match receipt total %.2f", allocated, total),
			Fields:  map[string]any{"total": total, "allocated": allocated},
		}
	}
	return nil
}

func buildLines(reqs []AllocationRequest) []ReceiptLine {
	lines := make([]ReceiptLine, 0, len(reqs))
	for _, req := range reqs {
		lines = append(lines, ReceiptLine{FakturID: req.FakturID, AmountApplied: req.Amount})
	}
	return lines
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
