package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/artha-erp/artha-erp/internal/journal"
	"github.com/artha-erp/artha-erp/internal/shared"
	"github.com/artha-erp/artha-erp/internal/stock"
)

// RepositoryPort defines data access methods for fakturs.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetFaktur(ctx context.Context, id int64) (*Faktur, error)
	ListFakturs(ctx context.Context, companyID int64, req ListFakturRequest) ([]Faktur, int, error)
}

// AuditRecorder records who did what. Audit failures are logged, never surfaced.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the faktur document: header and rows, stock movements
// and journal postings all inside one transaction.
type Service struct {
	repo    RepositoryPort
	journal *journal.Engine
	stock   *stock.Ledger
	audit   AuditRecorder
	logger  *slog.Logger
	now     func() time.Time
	randInt func(n int) int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, journalEngine *journal.Engine, stockLedger *stock.Ledger, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		journal: journalEngine,
		stock:   stockLedger,
		audit:   audit,
		logger:  logger,
		now:     time.Now,
		randInt: rand.Intn,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListResult is one page of fakturs.
type ListResult struct {
	Fakturs    []Faktur          `json:"fakturs"`
	Pagination shared.Pagination `json:"pagination"`
}

// Get returns a faktur with lines and costs.
func (s *Service) Get(ctx context.Context, id int64) (*Faktur, error) {
	return s.repo.GetFaktur(ctx, id)
}

// List returns a filtered page of fakturs.
func (s *Service) List(ctx context.Context, companyID int64, req ListFakturRequest) (*ListResult, error) {
	fakturs, total, err := s.repo.ListFakturs(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Fakturs:    fakturs,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

// Create persists a new faktur. Unless the faktur is a draft, its stock and
// journal effects post in the same transaction, so a failure anywhere leaves
// nothing behind.
func (s *Service) Create(ctx context.Context, companyID, userID int64, req CreateFakturRequest) (*Faktur, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	lines, subtotal := buildLines(req.Lines)
	costs := buildCosts(req.Costs)
	total := totalOf(subtotal, req.TaxAmount, req.TaxInclusive)

	f := &Faktur{
		CompanyID:    companyID,
		FakturDate:   req.FakturDate,
		DueDate:      req.DueDate,
		CustomerID:   req.CustomerID,
		PaymentTerms: req.PaymentTerms,
		Subtotal:     subtotal,
		TaxAmount:    req.TaxAmount,
		TaxInclusive: req.TaxInclusive,
		TotalAmount:  total,
		BalanceDue:   total,
		Status:       StatusUnpaid,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	if req.Draft {
		f.Status = StatusDraft
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := s.resolveNumber(ctx, tx, companyID, req.FakturNumber)
		if err != nil {
			return err
		}
		f.FakturNumber = number

		if err := s.checkCostAccounts(ctx, tx, costs); err != nil {
			return err
		}
		if err := tx.InsertFaktur(ctx, f); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, f.ID, lines); err != nil {
			return err
		}
		if err := tx.InsertCosts(ctx, f.ID, costs); err != nil {
			return err
		}
		f.Lines = lines
		f.Costs = costs

		if !f.Status.Posted() {
			return nil
		}
		movements := movementLines(f.Lines)
		if err := s.stock.Validate(ctx, tx.Stock(), f.CompanyID, movements); err != nil {
			return err
		}
		return s.applyEffects(ctx, tx, f)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, "faktur.create", f.ID, map[string]any{
		"faktur_number": f.FakturNumber,
		"total_amount":  f.TotalAmount,
		"status":        f.Status,
	})
	return s.repo.GetFaktur(ctx, f.ID)
}

// Update replaces a faktur's content. For a posted faktur the new lines are
// checked against availability before the old effects come off, then the old
// stock movements and journals are reverted and the new ones applied.
func (s *Service) Update(ctx context.Context, id, userID int64, req UpdateFakturRequest) (*Faktur, error) {
	if err := shared.Validate(req); err != nil {
		return nil, err
	}

	newLines, subtotal := buildLines(req.Lines)
	costs := buildCosts(req.Costs)
	total := totalOf(subtotal, req.TaxAmount, req.TaxInclusive)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetFakturForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing.Status == StatusCancelled {
			return shared.Validation("faktur %s is cancelled and cannot be edited", existing.FakturNumber)
		}
		if req.Draft && existing.Status != StatusDraft {
			return shared.Validation("faktur %s is already posted and cannot return to draft", existing.FakturNumber)
		}

		newStatus := StatusDraft
		if !req.Draft {
			newStatus = RecomputeStatus(existing.AmountPaid, total)
		}

		// Availability is checked against the committed state, before the old
		// movements are reverted, so only genuine increases can fail.
		if newStatus.Posted() {
			if existing.Status.Posted() {
				err = s.stock.ValidateForUpdate(ctx, tx.Stock(), existing.CompanyID,
					movementLines(newLines), movementLines(existing.Lines))
			} else {
				err = s.stock.Validate(ctx, tx.Stock(), existing.CompanyID, movementLines(newLines))
			}
			if err != nil {
				return err
			}
		}
		if existing.Status.Posted() {
			if err := s.revertEffects(ctx, tx, existing); err != nil {
				return err
			}
		}

		if err := s.checkCostAccounts(ctx, tx, costs); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteCosts(ctx, id); err != nil {
			return err
		}

		updated := *existing
		updated.FakturDate = req.FakturDate
		updated.DueDate = req.DueDate
		updated.CustomerID = req.CustomerID
		updated.PaymentTerms = req.PaymentTerms
		updated.TaxAmount = req.TaxAmount
		updated.TaxInclusive = req.TaxInclusive
		updated.Notes = req.Notes
		updated.Subtotal = subtotal
		updated.TotalAmount = total
		updated.BalanceDue = round2(total - existing.AmountPaid)
		updated.Status = newStatus
		if err := tx.UpdateFaktur(ctx, &updated); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, id, newLines); err != nil {
			return err
		}
		if err := tx.InsertCosts(ctx, id, costs); err != nil {
			return err
		}
		updated.Lines = newLines

		if newStatus.Posted() {
			return s.applyEffects(ctx, tx, &updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, "faktur.update", id, map[string]any{"total_amount": total})
	return s.repo.GetFaktur(ctx, id)
}

// Delete removes a faktur outright. Fakturs with receipt allocations are
// protected; everything else reverts its effects and disappears.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetFakturForUpdate(ctx, id)
		if err != nil {
			return err
		}
		allocations, err := tx.CountReceiptLines(ctx, id)
		if err != nil {
			return fmt.Errorf("invoice: count receipt lines: %w", err)
		}
		if allocations > 0 {
			return shared.ReferentialIntegrity("faktur %s has %d receipt allocation(s); delete the receipts first",
				existing.FakturNumber, allocations)
		}

		if existing.Status.Posted() {
			if err := s.revertEffects(ctx, tx, existing); err != nil {
				return err
			}
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteCosts(ctx, id); err != nil {
			return err
		}
		return tx.DeleteFaktur(ctx, id)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, userID, "faktur.delete", id, nil)
	return nil
}

// Cancel marks a draft faktur cancelled. Posted fakturs cannot be cancelled;
// they are edited or deleted so their effects stay consistent.
func (s *Service) Cancel(ctx context.Context, id, userID int64) (*Faktur, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetFakturForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing.Status != StatusDraft {
			return shared.Validation("faktur %s is %s; only drafts can be cancelled",
				existing.FakturNumber, existing.Status)
		}
		return tx.UpdateStatus(ctx, id, StatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, "faktur.cancel", id, nil)
	return s.repo.GetFaktur(ctx, id)
}

// applyEffects posts the stock and journal side of a faktur. Callers have
// already validated availability.
func (s *Service) applyEffects(ctx context.Context, tx TxRepository, f *Faktur) error {
	if err := s.stock.Apply(ctx, tx.Stock(), f.CompanyID, movementLines(f.Lines), stock.DirectionOut); err != nil {
		return err
	}
	if _, err := s.journal.PostSalesJournal(ctx, tx.Journal(), journal.SalesJournalInput{
		CompanyID:       f.CompanyID,
		CustomerID:      f.CustomerID,
		SourceID:        f.ID,
		TransactionDate: f.FakturDate,
		Reference:       f.FakturNumber,
		CreatedBy:       f.CreatedBy,
		TaxAmount:       f.TaxAmount,
		TaxInclusive:    f.TaxInclusive,
		Lines:           salesLines(f.Lines),
	}); err != nil {
		return err
	}
	if _, err := s.journal.PostCOGSJournal(ctx, tx.Journal(), journal.COGSJournalInput{
		CompanyID:       f.CompanyID,
		CustomerID:      f.CustomerID,
		SourceID:        f.ID,
		TransactionDate: f.FakturDate,
		Reference:       f.FakturNumber,
		CreatedBy:       f.CreatedBy,
		Lines:           cogsLines(f.Lines),
	}); err != nil {
		return err
	}
	return nil
}

// revertEffects restores stock and voids the faktur's journals. IN movements
// mirror the OUT movements exactly, so revert followed by reapply is neutral.
func (s *Service) revertEffects(ctx context.Context, tx TxRepository, f *Faktur) error {
	if err := s.stock.Apply(ctx, tx.Stock(), f.CompanyID, movementLines(f.Lines), stock.DirectionIn); err != nil {
		return err
	}
	return s.journal.VoidBySource(ctx, tx.Journal(), f.CompanyID, journal.SourceFaktur, f.ID)
}

// resolveNumber returns the faktur number to use. Generated numbers get one
// regeneration attempt on collision; explicit numbers fail straight away.
func (s *Service) resolveNumber(ctx context.Context, tx TxRepository, companyID int64, requested string) (string, error) {
	number := requested
	if number == "" {
		number = s.newFakturNumber()
	}
	exists, err := tx.FakturNumberExists(ctx, companyID, number)
	if err != nil {
		return "", fmt.Errorf("invoice: check faktur number: %w", err)
	}
	if !exists {
		return number, nil
	}
	if requested != "" {
		return "", shared.Duplicate("faktur number %s already exists", requested)
	}

	number = s.newFakturNumber()
	exists, err = tx.FakturNumberExists(ctx, companyID, number)
	if err != nil {
		return "", fmt.Errorf("invoice: check faktur number: %w", err)
	}
	if exists {
		return "", shared.Duplicate("generated faktur number %s already exists", number)
	}
	return number, nil
}

func (s *Service) newFakturNumber() string {
	now := s.now()
	return fmt.Sprintf("PKY-%s-%d-%03d", now.Format("20060102"), now.Unix(), s.randInt(1000))
}

func (s *Service) checkCostAccounts(ctx context.Context, tx TxRepository, costs []FakturCost) error {
	if len(costs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(costs))
	for _, cost := range costs {
		ids = append(ids, cost.AccountID)
	}
	missing, err := tx.MissingAccounts(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return shared.Validation("cost account(s) %v not found", missing)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, userID int64, action string, fakturID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  userID,
		Action:   action,
		Entity:   "faktur",
		EntityID: strconv.FormatInt(fakturID, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
