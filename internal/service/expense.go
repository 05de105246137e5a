package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kasirtoko/backend/internal/domain"
	"kasirtoko/backend/internal/xid"
)

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || req.Amount < 1 {
		return domain.Expense{}, fmt.Errorf("%w: category and positive amount are required", ErrPreconditionFailed)
	}

	now := time.Now().UTC()
	date := now
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return domain.Expense{}, fmt.Errorf("%w: invalid date %q", ErrPreconditionFailed, req.Date)
		}
		date = parsed.UTC()
	}

	actor, _ := ActorFromContext(ctx)
	expense := domain.Expense{
		ID:        xid.New("exp"),
		StoreID:   s.defaultStoreID,
		Category:  req.Category,
		Amount:    req.Amount,
		Date:      date,
		Note:      strings.TrimSpace(req.Note),
		CreatedBy: actor.ID,
		CreatedAt: now,
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logAudit(ctx, created.StoreID, "expense_create", "expense", created.ID,
		fmt.Sprintf("category=%s,amount=%d", created.Category, created.Amount))

	return *created, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, s.defaultStoreID, "expense_delete", "expense", id, "deleted")
	return nil
}

func (s *Service) ListExpenses(ctx context.Context, from, to time.Time) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, s.defaultStoreID, from, to)
}
