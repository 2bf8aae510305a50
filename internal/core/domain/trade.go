package domain

import (
	"errors"
	"time"
)

// TradeType distinguishes the two exchange protocols.
type TradeType string

const (
	TradeSwap   TradeType = "swap"
	TradeRedeem TradeType = "redeem"
)

// TradeStatus is the lifecycle state of a trade record.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeCompleted TradeStatus = "completed"
)

var ErrTradeNotFound = errors.New("trade not found")
var ErrAlreadyCompleted = errors.New("trade already completed")
var ErrInvalidTrade = errors.New("invalid trade")

// Trade is a ledger record of a swap or redeem. A redeem carries a positive
// Points amount and no partner; a swap carries the partner (the target
// item's owner) and the item the requester offered in return.
type Trade struct {
	ID            string      `json:"id" bson:"_id,omitempty"`
	Type          TradeType   `json:"type" bson:"type"`
	ItemID        string      `json:"item_id" bson:"item_id"`
	OfferedItemID string      `json:"offered_item_id,omitempty" bson:"offered_item_id,omitempty"`
	UserID        string      `json:"user_id" bson:"user_id"`
	PartnerID     string      `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	Points        int         `json:"points,omitempty" bson:"points,omitempty"`
	Status        TradeStatus `json:"status" bson:"status"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
}

// Validate enforces the type-dependent field invariant.
func (t *Trade) Validate() error {
	switch t.Type {
	case TradeRedeem:
		if t.PartnerID != "" || t.Points <= 0 {
			return ErrInvalidTrade
		}
	case TradeSwap:
		if t.PartnerID == "" || t.OfferedItemID == "" {
			return ErrInvalidTrade
		}
	default:
		return ErrInvalidTrade
	}
	if t.ItemID == "" || t.UserID == "" {
		return ErrInvalidTrade
	}
	return nil
}
