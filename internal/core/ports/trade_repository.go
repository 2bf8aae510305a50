package ports

import (
	"context"
	"time"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// TradeRepository is the append-mostly swap/redeem ledger.
type TradeRepository interface {
	Create(ctx context.Context, trade *domain.Trade) (*domain.Trade, error)
	FindByID(ctx context.Context, id string) (*domain.Trade, error)

	// Complete marks a pending trade completed. Completing a trade that is
	// already completed fails with domain.ErrAlreadyCompleted, which is the
	// idempotence guard against double-charging points or double-moving an
	// item.
	Complete(ctx context.Context, id string) (*domain.Trade, error)

	// Delete removes an aborted pending trade after a failed protocol run.
	// Completed trades are immutable and are never deleted.
	Delete(ctx context.Context, id string) error

	// ListRecent returns the caller's trades, most recent first.
	ListRecent(ctx context.Context, userID string, limit int) ([]*domain.Trade, error)

	CountCompleted(ctx context.Context, userID string) (int64, error)
	CountCompletedSince(ctx context.Context, userID string, from time.Time) (int64, error)
}
