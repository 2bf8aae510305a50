package service

import (
	"context"
	"fmt"

	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

// adminItemPageLimit bounds the moderation table to a single large page.
const adminItemPageLimit = 100

// AdminService backs the moderation views: full user and listing tables.
// Route-level RBAC keeps non-admin callers out before these run.
type AdminService struct {
	users ports.UserRepository
	items ports.ItemRepository
}

func NewAdminService(users ports.UserRepository, items ports.ItemRepository) *AdminService {
	return &AdminService{users: users, items: items}
}

// ListUsers returns every account, most recent first. Password hashes never
// serialize (the field is excluded from the JSON view).
func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin list users: %w", err)
	}
	return users, nil
}

// ListItems returns listings in any status for the moderation table.
func (s *AdminService) ListItems(ctx context.Context, status string, page int) (*ports.ListItemsResult, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := s.items.List(ctx, ports.ListItemsFilter{
		Status: status,
		Page:   page,
		Limit:  adminItemPageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("admin list items: %w", err)
	}
	totalPages := int((total + adminItemPageLimit - 1) / adminItemPageLimit)
	return &ports.ListItemsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      adminItemPageLimit,
		TotalPages: totalPages,
	}, nil
}
