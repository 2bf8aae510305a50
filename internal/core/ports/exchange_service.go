package ports

import (
	"context"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// RedeemResult carries the post-redeem state returned to the caller.
type RedeemResult struct {
	Trade *domain.Trade
	User  *domain.User // updated balance
	Item  *domain.Item
}

// ExchangeService orchestrates the swap and redeem protocols across the
// user, item, and trade stores.
type ExchangeService interface {
	// Redeem exchanges the caller's points for the listed item.
	Redeem(ctx context.Context, userID, itemID string) (*RedeemResult, error)

	// ProposeSwap opens a pending swap of offeredItemID for itemID and
	// parks both items in pending until the partner confirms.
	ProposeSwap(ctx context.Context, requesterID, itemID, offeredItemID string) (*domain.Trade, error)

	// ConfirmSwap completes a proposed swap. Only the recorded partner may
	// confirm.
	ConfirmSwap(ctx context.Context, partnerID, tradeID string) (*domain.Trade, error)
}
