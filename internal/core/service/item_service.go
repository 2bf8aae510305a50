package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// EngagementTracker remembers which user already viewed or marked interest
// in which item, so best-effort counters are not inflated by repeats.
type EngagementTracker interface {
	Seen(ctx context.Context, kind, itemID, userID string) (bool, error)
	Mark(ctx context.Context, kind, itemID, userID string) error
}

// CounterQueue is the interface the service uses to hand off counter
// increments for asynchronous application.
type CounterQueue interface {
	Enqueue(update ports.CounterUpdate)
}

// ItemService implements listing creation, browsing, and engagement
// counting. Counter increments go through the async queue and never delay
// or fail the request that produced them.
type ItemService struct {
	repo     ports.ItemRepository
	tracker  EngagementTracker
	counters CounterQueue
	logger   zerolog.Logger
}

func NewItemService(repo ports.ItemRepository, tracker EngagementTracker, counters CounterQueue, logger zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, tracker: tracker, counters: counters, logger: logger}
}

// Create publishes a new listing owned by the caller. Listings start active;
// moderation, when present, sits in front of this service.
func (s *ItemService) Create(ctx context.Context, input ports.CreateItemInput) (*domain.Item, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Image == "" || input.OwnerID == "" || input.PointsValue <= 0 {
		return nil, domain.ErrInvalidItem
	}

	item := &domain.Item{
		Title:       title,
		Description: input.Description,
		Image:       input.Image,
		Status:      domain.ItemActive,
		OwnerID:     input.OwnerID,
		PointsValue: input.PointsValue,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info().Str("item_id", created.ID).Str("owner_id", created.OwnerID).Msg("item listed")
	return created, nil
}

// Get returns the listing detail and counts the view. A repeat view by the
// same account inside the tracking window is not counted again, and tracker
// failures fall back to counting rather than dropping the view.
func (s *ItemService) Get(ctx context.Context, input ports.GetItemInput) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	if input.ViewerID != "" && input.ViewerID != item.OwnerID {
		s.countOnce(ctx, ports.CounterViews, item.ID, input.ViewerID)
	}
	return item, nil
}

// List returns a page of listings for browsing. Status defaults to active so
// browsing never surfaces parked or swapped inventory.
func (s *ItemService) List(ctx context.Context, input ports.ListItemsInput) (*ports.ListItemsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	status := input.Status
	if status == "" {
		status = string(domain.ItemActive)
	}

	items, total, err := s.repo.List(ctx, ports.ListItemsFilter{
		Status: status,
		Search: input.Search,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListItemsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// MarkInterest records a single interest signal per user per item.
func (s *ItemService) MarkInterest(ctx context.Context, itemID, userID string) error {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID == userID {
		return nil
	}
	s.countOnce(ctx, ports.CounterInterest, itemID, userID)
	return nil
}

func (s *ItemService) countOnce(ctx context.Context, field ports.CounterField, itemID, userID string) {
	seen, err := s.tracker.Seen(ctx, string(field), itemID, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("item_id", itemID).Msg("engagement tracker check failed, counting anyway")
	} else if seen {
		return
	}
	if err := s.tracker.Mark(ctx, string(field), itemID, userID); err != nil {
		s.logger.Warn().Err(err).Str("item_id", itemID).Msg("engagement tracker mark failed")
	}
	s.counters.Enqueue(ports.CounterUpdate{ItemID: itemID, Field: field})
}
