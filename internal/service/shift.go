package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/store"
	"kasirtoko/backend/internal/xid"
)

// OpenShift opens a cash drawer session for the acting cashier. When a
// concurrent request already opened one, the existing open shift is
// returned instead of an error, so double-clicks never strand a cashier.
func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.Shift, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Shift{}, fmt.Errorf("%w: authenticated actor required", ErrPreconditionFailed)
	}
	if req.OpeningBalance < 0 {
		return domain.Shift{}, fmt.Errorf("%w: opening balance must not be negative", ErrPreconditionFailed)
	}

	shift := domain.Shift{
		ID:             xid.New("shift"),
		StoreID:        s.defaultStoreID,
		UserID:         actor.ID,
		StartTime:      time.Now().UTC(),
		OpeningBalance: req.OpeningBalance,
		Status:         domain.ShiftStatusOpen,
		Notes:          strings.TrimSpace(req.Notes),
	}

	saved, err := s.repo.CreateShift(ctx, shift)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			existing, lookupErr := s.repo.GetActiveShift(ctx, s.defaultStoreID, actor.ID)
			if lookupErr != nil {
				return domain.Shift{}, err
			}
			return *existing, nil
		}
		return domain.Shift{}, err
	}

	s.logAudit(ctx, shift.StoreID, "shift_open", "shift", saved.ID,
		fmt.Sprintf("opening_balance=%d", req.OpeningBalance))

	return *saved, nil
}

// expectedBalance is the drawer level the shift should close at: opening
// balance plus cash sales minus expenses recorded inside the shift window.
func (s *Service) expectedBalance(ctx context.Context, shift domain.Shift, until time.Time) (int64, error) {
	cashSales, err := s.repo.SumCashTransactions(ctx, shift.StoreID, shift.StartTime, until)
	if err != nil {
		return 0, err
	}
	expenses, err := s.repo.SumExpenses(ctx, shift.StoreID, shift.StartTime, until)
	if err != nil {
		return 0, err
	}
	return shift.OpeningBalance + cashSales - expenses, nil
}

func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.ShiftSummary, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftSummary{}, fmt.Errorf("%w: authenticated actor required", ErrPreconditionFailed)
	}
	if req.ActualBalance < 0 {
		return domain.ShiftSummary{}, fmt.Errorf("%w: counted balance must not be negative", ErrPreconditionFailed)
	}

	active, err := s.repo.GetActiveShift(ctx, s.defaultStoreID, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ShiftSummary{}, fmt.Errorf("%w: no open shift", ErrPreconditionFailed)
		}
		return domain.ShiftSummary{}, err
	}

	now := time.Now().UTC()
	expected, err := s.expectedBalance(ctx, *active, now)
	if err != nil {
		return domain.ShiftSummary{}, err
	}

	closing := *active
	closing.EndTime = &now
	closing.ClosingBalanceActual = req.ActualBalance
	closing.ClosingBalanceExpected = expected
	closing.Status = domain.ShiftStatusClosed
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		closing.Notes = notes
	}

	saved, err := s.repo.UpdateShift(ctx, closing)
	if err != nil {
		return domain.ShiftSummary{}, err
	}

	s.logAudit(ctx, saved.StoreID, "shift_close", "shift", saved.ID,
		fmt.Sprintf("expected=%d,actual=%d,variance=%d", expected, req.ActualBalance, saved.Variance()))

	return domain.ShiftSummary{Shift: *saved, Variance: saved.Variance()}, nil
}

func (s *Service) GetActiveShift(ctx context.Context) (domain.Shift, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Shift{}, fmt.Errorf("%w: authenticated actor required", ErrPreconditionFailed)
	}
	shift, err := s.repo.GetActiveShift(ctx, s.defaultStoreID, actor.ID)
	if err != nil {
		return domain.Shift{}, err
	}
	return *shift, nil
}

// UpdateShift lets the cashier fix the opening balance or notes while the
// shift is still open. Closed shifts are immutable.
func (s *Service) UpdateShift(ctx context.Context, id string, req domain.ShiftUpdateRequest) (domain.Shift, error) {
	shift, err := s.repo.GetShift(ctx, id)
	if err != nil {
		return domain.Shift{}, err
	}
	if shift.Status != domain.ShiftStatusOpen {
		return domain.Shift{}, fmt.Errorf("%w: closed shift cannot be edited", ErrPreconditionFailed)
	}

	updated := *shift
	if req.OpeningBalance != nil {
		if *req.OpeningBalance < 0 {
			return domain.Shift{}, fmt.Errorf("%w: opening balance must not be negative", ErrPreconditionFailed)
		}
		updated.OpeningBalance = *req.OpeningBalance
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}

	saved, err := s.repo.UpdateShift(ctx, updated)
	if err != nil {
		return domain.Shift{}, err
	}

	s.logAudit(ctx, saved.StoreID, "shift_update", "shift", saved.ID,
		fmt.Sprintf("opening_balance=%d", saved.OpeningBalance))

	return *saved, nil
}

// ListShifts returns the store's shift history newest first, optionally
// narrowed to one calendar day.
func (s *Service) ListShifts(ctx context.Context, date string, limit int) ([]domain.ShiftSummary, error) {
	if limit < 1 {
		limit = 100
	}

	var from, to time.Time
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", ErrPreconditionFailed, date)
		}
		from, to = dayRange(parsed)
	}

	shifts, err := s.repo.ListShifts(ctx, s.defaultStoreID, from, to, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ShiftSummary, 0, len(shifts))
	for _, shift := range shifts {
		summary := domain.ShiftSummary{Shift: shift}
		if shift.Status == domain.ShiftStatusClosed {
			summary.Variance = shift.Variance()
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
