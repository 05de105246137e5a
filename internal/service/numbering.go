package service

import (
	"context"
	"fmt"
	"log"
	"time"
)

// NextTransactionNumber builds the display number TRX-YYYYMMDD-NNN where NNN
// is the zero-padded count of the store's transactions so far today plus
// one. The number is a display identifier, not a primary key: under
// concurrent checkouts two sales may briefly share a number, which is
// accepted. When the count query fails the engine does not abort the sale;
// it falls back to a time-derived suffix that stays unique enough for a
// receipt.
func (s *Service) NextTransactionNumber(ctx context.Context, storeID string, now time.Time) string {
	now = now.UTC()
	dateStr := now.Format("20060102")
	prefix := "TRX-" + dateStr

	from, to := dayRange(now)
	count, err := s.repo.CountTransactions(ctx, storeID, from, to)
	if err != nil {
		log.Printf("[service] WARN: transaction count failed for store=%s, using time fallback: %v", storeID, err)
		return fmt.Sprintf("%s-%s", prefix, now.Format("150405.000"))
	}

	return fmt.Sprintf("%s-%03d", prefix, count+1)
}
