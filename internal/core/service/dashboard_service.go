package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rewear-app/exchange-api/internal/core/ports"
)

// recentTradeLimit matches the dashboard's "recent activity" card.
const recentTradeLimit = 3

// DashboardService assembles the per-user dashboard aggregate from the
// three stores.
type DashboardService struct {
	users  ports.UserRepository
	items  ports.ItemRepository
	trades ports.TradeRepository
	now    func() time.Time
}

func NewDashboardService(users ports.UserRepository, items ports.ItemRepository, trades ports.TradeRepository) *DashboardService {
	return &DashboardService{users: users, items: items, trades: trades, now: time.Now}
}

// View returns the caller's items, recent trades, and computed stats.
func (s *DashboardService) View(ctx context.Context, userID string) (*ports.DashboardView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	items, err := s.items.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	trades, err := s.trades.ListRecent(ctx, userID, recentTradeLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	totalSwaps, err := s.trades.CountCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	thisMonth, err := s.trades.CountCompletedSince(ctx, userID, monthStart(s.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	return &ports.DashboardView{
		User:   user,
		Items:  items,
		Trades: trades,
		Stats: ports.DashboardStats{
			TotalSwaps:    totalSwaps,
			ItemsListed:   len(items),
			CurrentPoints: user.Points,
			ThisMonth:     thisMonth,
		},
	}, nil
}

// monthStart returns 00:00 UTC on the first day of t's month, so a trade
// completed on the last day of the prior month never counts.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
