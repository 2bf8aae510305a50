package ports

import (
	"context"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// ListItemsFilter carries the query parameters for browsing listings.
type ListItemsFilter struct {
	Status string // optional: filter by item status
	Search string // optional: partial match on title
	Page   int    // 1-based
	Limit  int    // max rows per page (capped by the service)
}

// ItemRepository defines persistence operations for listings.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error)
	// List returns a page of items matching filter and the total count.
	List(ctx context.Context, filter ListItemsFilter) ([]*domain.Item, int64, error)

	// UpdateStatus transitions the item from expectedCurrent to next in one
	// guarded update. When the stored status no longer matches
	// expectedCurrent the update matches nothing and
	// domain.ErrStaleItemState is returned; this is what makes concurrent
	// redeems of the same item resolve to exactly one winner.
	// swappedWith, when non-empty, is recorded alongside the transition.
	UpdateStatus(ctx context.Context, id string, expectedCurrent, next domain.ItemStatus, swappedWith string) (*domain.Item, error)

	// IncrementViews and IncrementInterest are best-effort counters. Callers
	// log failures and move on; they never gate a transaction.
	IncrementViews(ctx context.Context, id string) error
	IncrementInterest(ctx context.Context, id string) error
}
