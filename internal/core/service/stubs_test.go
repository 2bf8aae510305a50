package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories. Mutations are mutex-guarded and the guarded
// operations (AdjustPoints, UpdateStatus, Complete) honour the same
// compare-and-set semantics as the Mongo implementations, so the exchange
// protocol tests exercise real race outcomes.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.seq++
	clone := cloneUser(user)
	clone.ID = fmt.Sprintf("u%d", r.seq)
	r.users[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) AdjustPoints(_ context.Context, id string, delta int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if u.Points+delta < 0 {
		return nil, domain.ErrInsufficientPoints
	}
	u.Points += delta
	return cloneUser(u), nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

type stubItemRepo struct {
	mu       sync.Mutex
	items    map[string]*domain.Item
	seq      int
	views    map[string]int
	interest map[string]int
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{
		items:    make(map[string]*domain.Item),
		views:    make(map[string]int),
		interest: make(map[string]int),
	}
}

func cloneItem(i *domain.Item) *domain.Item {
	clone := *i
	return &clone
}

func (r *stubItemRepo) seed(item *domain.Item) *domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := cloneItem(item)
	if clone.ID == "" {
		clone.ID = fmt.Sprintf("i%d", r.seq)
	}
	r.items[clone.ID] = clone
	return cloneItem(clone)
}

func (r *stubItemRepo) Create(_ context.Context, item *domain.Item) (*domain.Item, error) {
	return r.seed(item), nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(i), nil
}

func (r *stubItemRepo) FindByOwner(_ context.Context, ownerID string) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Item
	for _, i := range r.items {
		if i.OwnerID == ownerID {
			out = append(out, cloneItem(i))
		}
	}
	return out, nil
}

func (r *stubItemRepo) List(_ context.Context, filter ports.ListItemsFilter) ([]*domain.Item, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Item
	for _, i := range r.items {
		if filter.Status != "" && string(i.Status) != filter.Status {
			continue
		}
		out = append(out, cloneItem(i))
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) UpdateStatus(_ context.Context, id string, expectedCurrent, next domain.ItemStatus, swappedWith string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if i.Status != expectedCurrent {
		return nil, domain.ErrStaleItemState
	}
	i.Status = next
	if swappedWith != "" {
		i.SwappedWith = swappedWith
	}
	return cloneItem(i), nil
}

func (r *stubItemRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id]++
	return nil
}

func (r *stubItemRepo) IncrementInterest(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interest[id]++
	return nil
}

type stubTradeRepo struct {
	mu     sync.Mutex
	trades map[string]*domain.Trade
	seq    int
}

func newStubTradeRepo() *stubTradeRepo {
	return &stubTradeRepo{trades: make(map[string]*domain.Trade)}
}

func cloneTrade(t *domain.Trade) *domain.Trade {
	clone := *t
	return &clone
}

func (r *stubTradeRepo) Create(_ context.Context, trade *domain.Trade) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := cloneTrade(trade)
	clone.ID = fmt.Sprintf("t%d", r.seq)
	r.trades[clone.ID] = clone
	return cloneTrade(clone), nil
}

func (r *stubTradeRepo) FindByID(_ context.Context, id string) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trades[id]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	return cloneTrade(t), nil
}

func (r *stubTradeRepo) Complete(_ context.Context, id string) (*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trades[id]
	if !ok {
		return nil, domain.ErrTradeNotFound
	}
	if t.Status == domain.TradeCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	t.Status = domain.TradeCompleted
	return cloneTrade(t), nil
}

func (r *stubTradeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trades[id]
	if !ok || t.Status != domain.TradePending {
		return domain.ErrTradeNotFound
	}
	delete(r.trades, id)
	return nil
}

func (r *stubTradeRepo) ListRecent(_ context.Context, userID string, limit int) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Trade
	for _, t := range r.trades {
		if t.UserID == userID {
			out = append(out, cloneTrade(t))
		}
	}
	sortTradesByCreatedDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubTradeRepo) CountCompleted(_ context.Context, userID string) (int64, error) {
	return r.countCompletedSince(userID, time.Time{})
}

func (r *stubTradeRepo) CountCompletedSince(_ context.Context, userID string, from time.Time) (int64, error) {
	return r.countCompletedSince(userID, from)
}

func (r *stubTradeRepo) countCompletedSince(userID string, from time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.trades {
		if t.UserID == userID && t.Status == domain.TradeCompleted && !t.CreatedAt.Before(from) {
			n++
		}
	}
	return n, nil
}

func sortTradesByCreatedDesc(trades []*domain.Trade) {
	for i := 1; i < len(trades); i++ {
		for j := i; j > 0 && trades[j].CreatedAt.After(trades[j-1].CreatedAt); j-- {
			trades[j], trades[j-1] = trades[j-1], trades[j]
		}
	}
}

// stubTracker is an EngagementTracker that remembers marks in a map.
type stubTracker struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newStubTracker() *stubTracker {
	return &stubTracker{seen: make(map[string]bool)}
}

func (t *stubTracker) Seen(_ context.Context, kind, itemID, userID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return false, t.err
	}
	return t.seen[kind+":"+itemID+":"+userID], nil
}

func (t *stubTracker) Mark(_ context.Context, kind, itemID, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.seen[kind+":"+itemID+":"+userID] = true
	return nil
}

// stubCounterQueue records enqueued updates without applying them.
type stubCounterQueue struct {
	mu      sync.Mutex
	updates []ports.CounterUpdate
}

func (q *stubCounterQueue) Enqueue(update ports.CounterUpdate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updates = append(q.updates, update)
}
