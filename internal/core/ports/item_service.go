package ports

import (
	"context"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

// CreateItemInput carries the fields a user submits when listing a garment.
type CreateItemInput struct {
	OwnerID     string
	Title       string
	Description string
	Image       string
	PointsValue int
}

// GetItemInput identifies the item and the viewer, so repeat views by the
// same account are only counted once per tracking window.
type GetItemInput struct {
	ItemID   string
	ViewerID string
}

// ListItemsInput carries the browse parameters.
type ListItemsInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ListItemsResult is a page of listings.
type ListItemsResult struct {
	Items      []*domain.Item
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ItemService defines use-case operations on listings.
type ItemService interface {
	Create(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	Get(ctx context.Context, input GetItemInput) (*domain.Item, error)
	List(ctx context.Context, input ListItemsInput) (*ListItemsResult, error)
	// MarkInterest records one interest signal per user per item, applied
	// asynchronously.
	MarkInterest(ctx context.Context, itemID, userID string) error
}
