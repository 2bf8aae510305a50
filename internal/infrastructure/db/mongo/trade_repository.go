package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

const tradesCollection = "trades"

// TradeRepository implements ports.TradeRepository on MongoDB.
type TradeRepository struct {
	coll *mongo.Collection
}

func NewTradeRepository(db *mongo.Database) *TradeRepository {
	return &TradeRepository{coll: db.Collection(tradesCollection)}
}

type mongoTrade struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Type          string             `bson:"type"`
	ItemID        string             `bson:"item_id"`
	OfferedItemID string             `bson:"offered_item_id,omitempty"`
	UserID        string             `bson:"user_id"`
	PartnerID     string             `bson:"partner_id,omitempty"`
	Points        int                `bson:"points,omitempty"`
	Status        string             `bson:"status"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (mt *mongoTrade) toDomain() *domain.Trade {
	return &domain.Trade{
		ID:            mt.ID.Hex(),
		Type:          domain.TradeType(mt.Type),
		ItemID:        mt.ItemID,
		OfferedItemID: mt.OfferedItemID,
		UserID:        mt.UserID,
		PartnerID:     mt.PartnerID,
		Points:        mt.Points,
		Status:        domain.TradeStatus(mt.Status),
		CreatedAt:     mt.CreatedAt.UTC(),
	}
}

func (r *TradeRepository) Create(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoTrade{
		Type:          string(trade.Type),
		ItemID:        trade.ItemID,
		OfferedItemID: trade.OfferedItemID,
		UserID:        trade.UserID,
		PartnerID:     trade.PartnerID,
		Points:        trade.Points,
		Status:        string(trade.Status),
		CreatedAt:     trade.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}

	created := *trade
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *TradeRepository) FindByID(ctx context.Context, id string) (*domain.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTradeNotFound
	}

	var mt mongoTrade
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, fmt.Errorf("find trade: %w", err)
	}
	return mt.toDomain(), nil
}

// Complete flips a pending trade to completed. The status guard in the
// filter makes completion idempotent: a second call matches nothing and
// reports domain.ErrAlreadyCompleted instead of repeating side effects.
func (r *TradeRepository) Complete(ctx context.Context, id string) (*domain.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTradeNotFound
	}

	filter := bson.M{"_id": oid, "status": string(domain.TradePending)}
	update := bson.M{"$set": bson.M{"status": string(domain.TradeCompleted)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mt mongoTrade
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mt)
	if err == nil {
		return mt.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("complete trade: %w", err)
	}

	existing, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	if existing.Status == domain.TradeCompleted {
		return nil, domain.ErrAlreadyCompleted
	}
	return nil, domain.ErrTradeNotFound
}

// Delete removes an aborted pending trade. Completed trades are immutable.
func (r *TradeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTradeNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "status": string(domain.TradePending)})
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTradeNotFound
	}
	return nil
}

func (r *TradeRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer cur.Close(ctx)

	var trades []*domain.Trade
	for cur.Next(ctx) {
		var mt mongoTrade
		if err := cur.Decode(&mt); err != nil {
			return nil, fmt.Errorf("decode trade: %w", err)
		}
		trades = append(trades, mt.toDomain())
	}
	return trades, cur.Err()
}

func (r *TradeRepository) CountCompleted(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  string(domain.TradeCompleted),
	})
}

func (r *TradeRepository) CountCompletedSince(ctx context.Context, userID string, from time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"status":     string(domain.TradeCompleted),
		"created_at": bson.M{"$gte": from},
	})
}

// EnsureIndexes creates the indexes backing the per-user ledger queries.
func (r *TradeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "item_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
