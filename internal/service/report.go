package service

import (
	"context"
	"time"

	"kasirtoko/backend/internal/domain"
)

// TodaySummary aggregates the current day's completed sales: gross sales,
// transaction count, cash versus non-cash split, and the average ticket.
// Returned and voided sales are excluded.
func (s *Service) TodaySummary(ctx context.Context) (domain.TodaySummary, error) {
	from, to := dayRange(time.Now().UTC())

	transactions, err := s.repo.ListTransactions(ctx, s.defaultStoreID, from, to, 0)
	if err != nil {
		return domain.TodaySummary{}, err
	}

	var summary domain.TodaySummary
	for _, tx := range transactions {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		summary.TotalSales += tx.Total
		summary.TotalTransactions++
		if tx.PaymentMethod == "cash" {
			summary.CashSales += tx.Total
		}
	}
	summary.NonCashSales = summary.TotalSales - summary.CashSales
	if summary.TotalTransactions > 0 {
		summary.AverageTransaction = float64(summary.TotalSales) / float64(summary.TotalTransactions)
	}

	return summary, nil
}
