/**
 * @description
 * Scheduled maintenance for the purchase order table. Orders the buyer never
 * approved stay `pending` forever on the processor side; the sweeper marks the
 * local rows expired so the bookkeeping table reflects reality.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/fourtrack/medley-service/internal/store"
)

// OrderSweeper expires stale pending purchase orders on a schedule.
type OrderSweeper struct {
	repo   store.Repository
	maxAge time.Duration
}

// NewOrderSweeper creates a sweeper. maxAge is how long a pending order may
// stay pending before it is considered abandoned.
func NewOrderSweeper(repo store.Repository, maxAge time.Duration) *OrderSweeper {
	if maxAge <= 0 {
		maxAge = 72 * time.Hour
	}
	return &OrderSweeper{repo: repo, maxAge: maxAge}
}

// Run executes one sweep. Signature matches cron.AddFunc.
func (s *OrderSweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.repo.ExpireStalePendingOrders(ctx, s.maxAge)
	if err != nil {
		log.Printf("level=error component=order_sweeper msg=\"sweep failed\" err=%v", err)
		return
	}
	if expired > 0 {
		log.Printf("level=info component=order_sweeper msg=\"expired stale pending orders\" count=%d", expired)
	}
}
