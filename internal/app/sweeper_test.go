package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fourtrack/medley-service/internal/store"
)

type sweeperRepoStub struct {
	store.Repository

	gotMaxAge time.Duration
	expired   int64
	err       error
	calls     int
}

func (s *sweeperRepoStub) ExpireStalePendingOrders(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.calls++
	s.gotMaxAge = olderThan
	return s.expired, s.err
}

func TestOrderSweeper_PassesConfiguredMaxAge(t *testing.T) {
	repo := &sweeperRepoStub{expired: 3}
	sweeper := NewOrderSweeper(repo, 48*time.Hour)

	sweeper.Run()

	if repo.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", repo.calls)
	}
	if repo.gotMaxAge != 48*time.Hour {
		t.Fatalf("expected 48h max age, got %v", repo.gotMaxAge)
	}
}

func TestOrderSweeper_DefaultsMaxAge(t *testing.T) {
	repo := &sweeperRepoStub{}
	sweeper := NewOrderSweeper(repo, 0)

	sweeper.Run()

	if repo.gotMaxAge != 72*time.Hour {
		t.Fatalf("expected 72h default max age, got %v", repo.gotMaxAge)
	}
}

func TestOrderSweeper_RepositoryFailureDoesNotPanic(t *testing.T) {
	repo := &sweeperRepoStub{err: errors.New("db down")}
	sweeper := NewOrderSweeper(repo, time.Hour)

	sweeper.Run()

	if repo.calls != 1 {
		t.Fatalf("expected one sweep call, got %d", repo.calls)
	}
}
