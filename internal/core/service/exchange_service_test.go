package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

func newExchangeSvc(users *stubUserRepo, items ports.ItemRepository, trades *stubTradeRepo) *ExchangeService {
	return NewExchangeService(users, items, trades, zerolog.Nop())
}

func seedUser(t *testing.T, repo *stubUserRepo, name string, points int) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &domain.User{
		Name:      name,
		Email:     name + "@example.com",
		Points:    points,
		Role:      domain.RoleUser,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedItem(repo *stubItemRepo, title, ownerID string, status domain.ItemStatus, value int) *domain.Item {
	return repo.seed(&domain.Item{
		Title:       title,
		Image:       "https://img.example.com/" + title,
		Status:      status,
		OwnerID:     ownerID,
		PointsValue: value,
		CreatedAt:   time.Now().UTC(),
	})
}

// ---------------------------------------------------------------------------
// Redeem
// ---------------------------------------------------------------------------

func TestExchangeService_Redeem_Success(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	owner := seedUser(t, users, "owner", 10)
	buyer := seedUser(t, users, "buyer", 100)
	item := seedItem(items, "denim-jacket", owner.ID, domain.ItemActive, 30)

	result, err := svc.Redeem(context.Background(), buyer.ID, item.ID)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	if result.User.Points != 70 {
		t.Fatalf("expected balance 70, got %d", result.User.Points)
	}
	if result.Item.Status != domain.ItemSwapped {
		t.Fatalf("expected item swapped, got %s", result.Item.Status)
	}
	if result.Trade.Status != domain.TradeCompleted {
		t.Fatalf("expected trade completed, got %s", result.Trade.Status)
	}
	if result.Trade.Type != domain.TradeRedeem || result.Trade.Points != 30 {
		t.Fatalf("unexpected trade: %+v", result.Trade)
	}
}

func TestExchangeService_Redeem_ItemUnavailable(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	owner := seedUser(t, users, "owner", 0)
	buyer := seedUser(t, users, "buyer", 100)
	item := seedItem(items, "parka", owner.ID, domain.ItemPending, 30)

	if _, err := svc.Redeem(context.Background(), buyer.ID, item.ID); !errors.Is(err, domain.ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}

	// Nothing was opened or debited.
	u, _ := users.FindByID(context.Background(), buyer.ID)
	if u.Points != 100 {
		t.Fatalf("balance changed on failed redeem: %d", u.Points)
	}
	if len(trades.trades) != 0 {
		t.Fatalf("trade opened on failed redeem")
	}
}

func TestExchangeService_Redeem_OwnItem(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	owner := seedUser(t, users, "owner", 100)
	item := seedItem(items, "scarf", owner.ID, domain.ItemActive, 10)

	if _, err := svc.Redeem(context.Background(), owner.ID, item.ID); !errors.Is(err, domain.ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
}

func TestExchangeService_Redeem_InsufficientPoints(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	owner := seedUser(t, users, "owner", 0)
	buyer := seedUser(t, users, "buyer", 20)
	item := seedItem(items, "coat", owner.ID, domain.ItemActive, 50)

	if _, err := svc.Redeem(context.Background(), buyer.ID, item.ID); !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	u, _ := users.FindByID(context.Background(), buyer.ID)
	if u.Points != 20 {
		t.Fatalf("balance changed on failed redeem: %d", u.Points)
	}
}

// staleReadItemRepo serves a frozen snapshot of one item from FindByID,
// reproducing the window where a second redeem reads the listing as active
// after another trade already claimed it.
type staleReadItemRepo struct {
	*stubItemRepo
	frozenID string
	frozen   *domain.Item
}

func (r *staleReadItemRepo) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	if id == r.frozenID {
		clone := *r.frozen
		return &clone, nil
	}
	return r.stubItemRepo.FindByID(ctx, id)
}

func TestExchangeService_Redeem_LostRace_RefundsAndAborts(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()

	owner := seedUser(t, users, "owner", 0)
	winner := seedUser(t, users, "winner", 100)
	loser := seedUser(t, users, "loser", 100)
	item := seedItem(items, "boots", owner.ID, domain.ItemActive, 40)

	stale := &staleReadItemRepo{stubItemRepo: items, frozenID: item.ID, frozen: item}
	svc := newExchangeSvc(users, stale, trades)

	if _, err := svc.Redeem(context.Background(), winner.ID, item.ID); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}

	// Second caller still reads the frozen active snapshot, so it passes
	// validation and loses at the status guard.
	if _, err := svc.Redeem(context.Background(), loser.ID, item.ID); !errors.Is(err, domain.ErrStaleItemState) {
		t.Fatalf("expected ErrStaleItemState, got %v", err)
	}

	w, _ := users.FindByID(context.Background(), winner.ID)
	l, _ := users.FindByID(context.Background(), loser.ID)
	if w.Points != 60 {
		t.Fatalf("winner balance: expected 60, got %d", w.Points)
	}
	if l.Points != 100 {
		t.Fatalf("loser balance not refunded: got %d", l.Points)
	}

	// Exactly one completed trade remains; the aborted one is gone.
	var completed int
	for _, tr := range trades.trades {
		if tr.Status == domain.TradeCompleted {
			completed++
		} else {
			t.Fatalf("pending trade left behind: %+v", tr)
		}
	}
	if completed != 1 {
		t.Fatalf("expected exactly one completed trade, got %d", completed)
	}
}

func TestExchangeService_Redeem_ConcurrentOneWinner(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	owner := seedUser(t, users, "owner", 0)
	a := seedUser(t, users, "user-a", 100)
	b := seedUser(t, users, "user-b", 100)
	item := seedItem(items, "hoodie", owner.ID, domain.ItemActive, 25)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(context.Background(), uid, item.ID)
		}(i, uid)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d (errs: %v)", successes, errs)
	}

	got, _ := items.FindByID(context.Background(), item.ID)
	if got.Status != domain.ItemSwapped {
		t.Fatalf("item not swapped: %s", got.Status)
	}

	ua, _ := users.FindByID(context.Background(), a.ID)
	ub, _ := users.FindByID(context.Background(), b.ID)
	if ua.Points+ub.Points != 175 {
		t.Fatalf("exactly one debit expected, balances %d + %d", ua.Points, ub.Points)
	}

	var completed int
	for _, tr := range trades.trades {
		if tr.Status == domain.TradeCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected one completed trade, got %d", completed)
	}
}

// ---------------------------------------------------------------------------
// Swap
// ---------------------------------------------------------------------------

func TestExchangeService_ProposeSwap_Success(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	alice := seedUser(t, users, "alice", 50)
	bob := seedUser(t, users, "bob", 50)
	target := seedItem(items, "blazer", bob.ID, domain.ItemActive, 30)
	offered := seedItem(items, "cardigan", alice.ID, domain.ItemActive, 25)

	trade, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, offered.ID)
	if err != nil {
		t.Fatalf("propose swap failed: %v", err)
	}

	if trade.Status != domain.TradePending {
		t.Fatalf("expected pending trade, got %s", trade.Status)
	}
	if trade.PartnerID != bob.ID {
		t.Fatalf("expected partner %s, got %s", bob.ID, trade.PartnerID)
	}

	gotTarget, _ := items.FindByID(context.Background(), target.ID)
	gotOffered, _ := items.FindByID(context.Background(), offered.ID)
	if gotTarget.Status != domain.ItemPending || gotOffered.Status != domain.ItemPending {
		t.Fatalf("expected both items pending, got %s / %s", gotTarget.Status, gotOffered.Status)
	}
}

func TestExchangeService_ProposeSwap_NotOfferedOwner(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	alice := seedUser(t, users, "alice", 50)
	bob := seedUser(t, users, "bob", 50)
	carol := seedUser(t, users, "carol", 50)
	target := seedItem(items, "blazer", bob.ID, domain.ItemActive, 30)
	notMine := seedItem(items, "cardigan", carol.ID, domain.ItemActive, 25)

	if _, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, notMine.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestExchangeService_ProposeSwap_OwnTarget(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	alice := seedUser(t, users, "alice", 50)
	target := seedItem(items, "blazer", alice.ID, domain.ItemActive, 30)
	offered := seedItem(items, "cardigan", alice.ID, domain.ItemActive, 25)

	if _, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, offered.ID); !errors.Is(err, domain.ErrInvalidTrade) {
		t.Fatalf("expected ErrInvalidTrade, got %v", err)
	}
}

func TestExchangeService_ProposeSwap_SecondTransitionStale_ReleasesFirst(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()

	alice := seedUser(t, users, "alice", 50)
	bob := seedUser(t, users, "bob", 50)
	target := seedItem(items, "blazer", bob.ID, domain.ItemActive, 30)
	// The offered item is already parked in another proposal, but the
	// frozen snapshot still reads active.
	offered := seedItem(items, "cardigan", alice.ID, domain.ItemPending, 25)
	frozen := *offered
	frozen.Status = domain.ItemActive

	stale := &staleReadItemRepo{stubItemRepo: items, frozenID: offered.ID, frozen: &frozen}
	svc := newExchangeSvc(users, stale, trades)

	if _, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, offered.ID); !errors.Is(err, domain.ErrStaleItemState) {
		t.Fatalf("expected ErrStaleItemState, got %v", err)
	}

	gotTarget, _ := items.FindByID(context.Background(), target.ID)
	if gotTarget.Status != domain.ItemActive {
		t.Fatalf("target not released, status %s", gotTarget.Status)
	}
	if len(trades.trades) != 0 {
		t.Fatalf("aborted trade left behind")
	}
}

func TestExchangeService_ConfirmSwap_Success(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	alice := seedUser(t, users, "alice", 50)
	bob := seedUser(t, users, "bob", 50)
	target := seedItem(items, "blazer", bob.ID, domain.ItemActive, 30)
	offered := seedItem(items, "cardigan", alice.ID, domain.ItemActive, 25)

	trade, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, offered.ID)
	if err != nil {
		t.Fatalf("propose swap failed: %v", err)
	}

	completed, err := svc.ConfirmSwap(context.Background(), bob.ID, trade.ID)
	if err != nil {
		t.Fatalf("confirm swap failed: %v", err)
	}
	if completed.Status != domain.TradeCompleted {
		t.Fatalf("expected completed trade, got %s", completed.Status)
	}

	gotTarget, _ := items.FindByID(context.Background(), target.ID)
	gotOffered, _ := items.FindByID(context.Background(), offered.ID)
	if gotTarget.Status != domain.ItemSwapped || gotOffered.Status != domain.ItemSwapped {
		t.Fatalf("expected both swapped, got %s / %s", gotTarget.Status, gotOffered.Status)
	}
	if gotTarget.SwappedWith != "cardigan" || gotOffered.SwappedWith != "blazer" {
		t.Fatalf("descriptors wrong: %q / %q", gotTarget.SwappedWith, gotOffered.SwappedWith)
	}
}

func TestExchangeService_ConfirmSwap_WrongCaller(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	alice := seedUser(t, users, "alice", 50)
	bob := seedUser(t, users, "bob", 50)
	mallory := seedUser(t, users, "mallory", 50)
	target := seedItem(items, "blazer", bob.ID, domain.ItemActive, 30)
	offered := seedItem(items, "cardigan", alice.ID, domain.ItemActive, 25)

	trade, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, offered.ID)
	if err != nil {
		t.Fatalf("propose swap failed: %v", err)
	}

	if _, err := svc.ConfirmSwap(context.Background(), mallory.ID, trade.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// The requester cannot confirm their own proposal either.
	if _, err := svc.ConfirmSwap(context.Background(), alice.ID, trade.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for requester, got %v", err)
	}
}

func TestExchangeService_ConfirmSwap_Twice(t *testing.T) {
	users := newStubUserRepo()
	items := newStubItemRepo()
	trades := newStubTradeRepo()
	svc := newExchangeSvc(users, items, trades)

	alice := seedUser(t, users, "alice", 50)
	bob := seedUser(t, users, "bob", 50)
	target := seedItem(items, "blazer", bob.ID, domain.ItemActive, 30)
	offered := seedItem(items, "cardigan", alice.ID, domain.ItemActive, 25)

	trade, err := svc.ProposeSwap(context.Background(), alice.ID, target.ID, offered.ID)
	if err != nil {
		t.Fatalf("propose swap failed: %v", err)
	}
	if _, err := svc.ConfirmSwap(context.Background(), bob.ID, trade.ID); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}

	if _, err := svc.ConfirmSwap(context.Background(), bob.ID, trade.ID); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	// Second confirm produced no further changes.
	gotTarget, _ := items.FindByID(context.Background(), target.ID)
	if gotTarget.Status != domain.ItemSwapped || gotTarget.SwappedWith != "cardigan" {
		t.Fatalf("item changed by repeated confirm: %+v", gotTarget)
	}
}
