package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

// ExchangeService runs the swap and redeem protocols. Each protocol is a
// short sequence of guarded store updates; the status CAS on the item is
// what guarantees at most one completed trade per listing, and every step
// after the trade record is opened has a compensating update on failure.
type ExchangeService struct {
	users  ports.UserRepository
	items  ports.ItemRepository
	trades ports.TradeRepository
	logger zerolog.Logger
}

func NewExchangeService(users ports.UserRepository, items ports.ItemRepository, trades ports.TradeRepository, logger zerolog.Logger) *ExchangeService {
	return &ExchangeService{users: users, items: items, trades: trades, logger: logger}
}

// Redeem exchanges the caller's points for the listed item.
func (s *ExchangeService) Redeem(ctx context.Context, userID, itemID string) (*ports.RedeemResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("redeem: %w", err)
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("redeem: %w", err)
	}
	if item.Status != domain.ItemActive || item.OwnerID == userID {
		return nil, domain.ErrItemUnavailable
	}
	if user.Points < item.PointsValue {
		return nil, domain.ErrInsufficientPoints
	}

	trade := &domain.Trade{
		Type:      domain.TradeRedeem,
		ItemID:    item.ID,
		UserID:    userID,
		Points:    item.PointsValue,
		Status:    domain.TradePending,
		CreatedAt: time.Now().UTC(),
	}
	if err := trade.Validate(); err != nil {
		return nil, err
	}
	trade, err = s.trades.Create(ctx, trade)
	if err != nil {
		return nil, fmt.Errorf("redeem: open trade: %w", err)
	}

	// Debit first. The repository re-checks the balance floor, so a
	// concurrent spend by the same user cannot drive the balance negative.
	debited, err := s.users.AdjustPoints(ctx, userID, -item.PointsValue)
	if err != nil {
		s.abortTrade(ctx, trade.ID)
		return nil, fmt.Errorf("redeem: %w", err)
	}

	updatedItem, err := s.transition(ctx, item, domain.ItemSwapped, user.Name)
	if err != nil {
		// Another trade won the item. Refund the debit and abort.
		if _, refundErr := s.users.AdjustPoints(ctx, userID, item.PointsValue); refundErr != nil {
			s.logger.Error().Err(refundErr).
				Str("user_id", userID).
				Int("points", item.PointsValue).
				Msg("refund after lost redeem race failed")
		}
		s.abortTrade(ctx, trade.ID)
		return nil, err
	}

	completed, err := s.trades.Complete(ctx, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("redeem: complete trade: %w", err)
	}

	s.logger.Info().
		Str("trade_id", completed.ID).
		Str("item_id", item.ID).
		Str("user_id", userID).
		Int("points", item.PointsValue).
		Msg("redeem completed")

	return &ports.RedeemResult{Trade: completed, User: debited, Item: updatedItem}, nil
}

// ProposeSwap opens a pending swap and parks both items until the partner
// confirms.
func (s *ExchangeService) ProposeSwap(ctx context.Context, requesterID, itemID, offeredItemID string) (*domain.Trade, error) {
	if itemID == offeredItemID {
		return nil, domain.ErrInvalidTrade
	}

	target, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("propose swap: %w", err)
	}
	offered, err := s.items.FindByID(ctx, offeredItemID)
	if err != nil {
		return nil, fmt.Errorf("propose swap: %w", err)
	}

	if target.Status != domain.ItemActive || offered.Status != domain.ItemActive {
		return nil, domain.ErrItemUnavailable
	}
	if offered.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}
	if target.OwnerID == requesterID {
		return nil, domain.ErrInvalidTrade
	}

	trade := &domain.Trade{
		Type:          domain.TradeSwap,
		ItemID:        target.ID,
		OfferedItemID: offered.ID,
		UserID:        requesterID,
		PartnerID:     target.OwnerID,
		Status:        domain.TradePending,
		CreatedAt:     time.Now().UTC(),
	}
	if err := trade.Validate(); err != nil {
		return nil, err
	}
	trade, err = s.trades.Create(ctx, trade)
	if err != nil {
		return nil, fmt.Errorf("propose swap: open trade: %w", err)
	}

	if _, err := s.transition(ctx, target, domain.ItemPending, ""); err != nil {
		s.abortTrade(ctx, trade.ID)
		return nil, err
	}
	if _, err := s.transition(ctx, offered, domain.ItemPending, ""); err != nil {
		// Release the target we already parked. This compensation runs
		// against the repository directly: the lifecycle instance never
		// left active, so the monotone ordering is not violated.
		if _, rbErr := s.items.UpdateStatus(ctx, target.ID, domain.ItemPending, domain.ItemActive, ""); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("item_id", target.ID).Msg("release of parked item failed")
		}
		s.abortTrade(ctx, trade.ID)
		return nil, err
	}

	s.logger.Info().
		Str("trade_id", trade.ID).
		Str("item_id", target.ID).
		Str("offered_item_id", offered.ID).
		Str("requester_id", requesterID).
		Str("partner_id", trade.PartnerID).
		Msg("swap proposed")

	return trade, nil
}

// ConfirmSwap completes a proposed swap: both items move to swapped with a
// descriptor of what they were exchanged for. Listing ownership itself does
// not change hands; the descriptor is the record of the exchange.
func (s *ExchangeService) ConfirmSwap(ctx context.Context, partnerID, tradeID string) (*domain.Trade, error) {
	trade, err := s.trades.FindByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("confirm swap: %w", err)
	}
	if trade.Type != domain.TradeSwap {
		return nil, domain.ErrInvalidTrade
	}
	if trade.Status == domain.TradeCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	if trade.PartnerID != partnerID {
		return nil, domain.ErrForbidden
	}

	target, err := s.items.FindByID(ctx, trade.ItemID)
	if err != nil {
		return nil, fmt.Errorf("confirm swap: %w", err)
	}
	offered, err := s.items.FindByID(ctx, trade.OfferedItemID)
	if err != nil {
		return nil, fmt.Errorf("confirm swap: %w", err)
	}

	if _, err := s.transition(ctx, target, domain.ItemSwapped, offered.Title); err != nil {
		return nil, err
	}
	if _, err := s.transition(ctx, offered, domain.ItemSwapped, target.Title); err != nil {
		if _, rbErr := s.items.UpdateStatus(ctx, target.ID, domain.ItemSwapped, domain.ItemPending, ""); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("item_id", target.ID).Msg("rollback of confirmed item failed")
		}
		return nil, err
	}

	completed, err := s.trades.Complete(ctx, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("confirm swap: complete trade: %w", err)
	}

	s.logger.Info().
		Str("trade_id", completed.ID).
		Str("item_id", target.ID).
		Str("offered_item_id", offered.ID).
		Msg("swap confirmed")

	return completed, nil
}

// transition applies a guarded status change, enforcing the monotone
// ordering before touching the store.
func (s *ExchangeService) transition(ctx context.Context, item *domain.Item, next domain.ItemStatus, swappedWith string) (*domain.Item, error) {
	if !item.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, item.Status, next)
	}
	updated, err := s.items.UpdateStatus(ctx, item.ID, item.Status, next, swappedWith)
	if err != nil {
		if errors.Is(err, domain.ErrStaleItemState) {
			return nil, domain.ErrStaleItemState
		}
		return nil, fmt.Errorf("transition item %s: %w", item.ID, err)
	}
	return updated, nil
}

// abortTrade removes a pending trade whose protocol did not finish. Failures
// leave a dangling pending record, which is harmless but worth a log line.
func (s *ExchangeService) abortTrade(ctx context.Context, tradeID string) {
	if err := s.trades.Delete(ctx, tradeID); err != nil {
		s.logger.Warn().Err(err).Str("trade_id", tradeID).Msg("abort of pending trade failed")
	}
}
