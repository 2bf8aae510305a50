package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

const itemsCollection = "items"

// ItemRepository implements ports.ItemRepository on MongoDB.
type ItemRepository struct {
	coll *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{coll: db.Collection(itemsCollection)}
}

type mongoItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Image       string             `bson:"image"`
	Status      string             `bson:"status"`
	OwnerID     string             `bson:"owner_id"`
	Views       int64              `bson:"views"`
	Interested  int64              `bson:"interested"`
	SwappedWith string             `bson:"swapped_with,omitempty"`
	PointsValue int                `bson:"points_value"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (mi *mongoItem) toDomain() *domain.Item {
	return &domain.Item{
		ID:          mi.ID.Hex(),
		Title:       mi.Title,
		Description: mi.Description,
		Image:       mi.Image,
		Status:      domain.ItemStatus(mi.Status),
		OwnerID:     mi.OwnerID,
		Views:       mi.Views,
		Interested:  mi.Interested,
		SwappedWith: mi.SwappedWith,
		PointsValue: mi.PointsValue,
		CreatedAt:   mi.CreatedAt.UTC(),
	}
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoItem{
		Title:       item.Title,
		Description: item.Description,
		Image:       item.Image,
		Status:      string(item.Status),
		OwnerID:     item.OwnerID,
		PointsValue: item.PointsValue,
		CreatedAt:   item.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	created := *item
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	var mi mongoItem
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mi); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return mi.toDomain(), nil
}

func (r *ItemRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find items by owner: %w", err)
	}
	defer cur.Close(ctx)

	return decodeItems(ctx, cur)
}

// List returns a page of items matching filter plus the total match count.
func (r *ItemRepository) List(ctx context.Context, filter ports.ListItemsFilter) ([]*domain.Item, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := listQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer cur.Close(ctx)

	items, err := decodeItems(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// listQuery builds the browse filter. The search term is quoted so regex
// metacharacters in user input match literally instead of breaking the query.
func listQuery(filter ports.ListItemsFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		query["title"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}}
	}
	return query
}

// UpdateStatus performs the compare-and-set transition: the filter matches
// only when the stored status still equals expectedCurrent, so concurrent
// transitions on the same item resolve to one winner and the rest observe
// domain.ErrStaleItemState.
func (r *ItemRepository) UpdateStatus(ctx context.Context, id string, expectedCurrent, next domain.ItemStatus, swappedWith string) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrItemNotFound
	}

	set := bson.M{"status": string(next)}
	if swappedWith != "" {
		set["swapped_with"] = swappedWith
	}

	filter := bson.M{"_id": oid, "status": string(expectedCurrent)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mi mongoItem
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&mi)
	if err == nil {
		return mi.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update item status: %w", err)
	}

	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrStaleItemState
}

func (r *ItemRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "views")
}

func (r *ItemRepository) IncrementInterest(ctx context.Context, id string) error {
	return r.increment(ctx, id, "interested")
}

func (r *ItemRepository) increment(ctx context.Context, id, field string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrItemNotFound
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{field: 1}})
	if err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	return nil
}

// EnsureIndexes creates the indexes backing owner and browse queries.
func (r *ItemRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeItems(ctx context.Context, cur *mongo.Cursor) ([]*domain.Item, error) {
	var items []*domain.Item
	for cur.Next(ctx) {
		var mi mongoItem
		if err := cur.Decode(&mi); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, mi.toDomain())
	}
	return items, cur.Err()
}
