package domain

import (
	"errors"
	"time"
)

// ItemStatus represents the lifecycle state of a listing.
type ItemStatus string

const (
	ItemActive  ItemStatus = "active"
	ItemPending ItemStatus = "pending"
	ItemSwapped ItemStatus = "swapped"
)

// validTransitions defines the allowed status transitions. The ordering is
// monotone: once swapped, a listing never returns to circulation.
var validTransitions = map[ItemStatus][]ItemStatus{
	ItemActive:  {ItemPending, ItemSwapped},
	ItemPending: {ItemSwapped},
}

var ErrItemNotFound = errors.New("item not found")
var ErrInvalidItem = errors.New("invalid item details")
var ErrItemUnavailable = errors.New("item not available")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrStaleItemState = errors.New("item state changed concurrently")

// CanTransitionTo reports whether a transition from the current status to
// next is allowed.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Item is a published garment listing. Views and Interested are best-effort
// engagement counters; they carry no correctness guarantees.
type Item struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Image       string     `json:"image" bson:"image"`
	Status      ItemStatus `json:"status" bson:"status"`
	OwnerID     string     `json:"owner_id" bson:"owner_id"`
	Views       int64      `json:"views" bson:"views"`
	Interested  int64      `json:"interested" bson:"interested"`
	SwappedWith string     `json:"swapped_with,omitempty" bson:"swapped_with,omitempty"`
	PointsValue int        `json:"points_value" bson:"points_value"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}
