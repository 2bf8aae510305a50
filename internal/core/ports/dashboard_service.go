package ports

import (
	"context"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// DashboardStats are the computed figures shown on the user dashboard.
type DashboardStats struct {
	TotalSwaps    int64 `json:"total_swaps"`
	ItemsListed   int   `json:"items_listed"`
	CurrentPoints int   `json:"current_points"`
	// ThisMonth counts completed trades created on or after 00:00 UTC of
	// the first day of the current calendar month.
	ThisMonth int64 `json:"this_month"`
}

// DashboardView aggregates everything the dashboard page needs in one call.
type DashboardView struct {
	User   *domain.User    `json:"user"`
	Items  []*domain.Item  `json:"items"`
	Trades []*domain.Trade `json:"trades"`
	Stats  DashboardStats  `json:"stats"`
}

// DashboardService assembles the per-user dashboard aggregate.
type DashboardService interface {
	View(ctx context.Context, userID string) (*DashboardView, error)
}
