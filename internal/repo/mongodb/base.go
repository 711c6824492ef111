package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// IEntity is implemented by pointers to stored entities.
type IEntity interface {
	CollectionName() string
	GetUpdates() any
	GetObjectID() models.ObjectID
}

type PaginateWithTotal[E any] struct {
	Total int64 `json:"total"`
	Data  []E   `json:"data"`
}

type baseRepo[E IEntity] struct {
	coll *mongo.Collection
}

func newBaseRepo[E IEntity](dbc *mongo.Database) baseRepo[E] {
	var entity E
	return baseRepo[E]{
		coll: dbc.Collection(entity.CollectionName()),
	}
}

// this is a helper function to get the collection, but only for scripting purposes
func (r *baseRepo[E]) GetCollection() *mongo.Collection {
	return r.coll
}

func (r *baseRepo[E]) Insert(ctx context.Context, entity E, opts ...*options.InsertOneOptions) (string, error) {
	result, err := r.coll.InsertOne(ctx, entity, opts...)
	if err != nil {
		return "", fmt.Errorf("insert one: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("invalid inserted id: %T %+v", result.InsertedID, result.InsertedID)
	}

	return oid.Hex(), nil
}

func (r *baseRepo[E]) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]E, error) {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.coll.Name(), err)
	}
	var entities []E
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	return entities, nil
}

func (r *baseRepo[E]) FindByID(ctx context.Context, docID string) (E, error) {
	var zero E
	id := models.ObjectID(docID)
	if !id.IsValid() {
		return zero, models.ErrNotFound
	}
	return r.FindOne(ctx, bson.M{"_id": id})
}

func (r *baseRepo[E]) FindByIDs(ctx context.Context, ids []models.ObjectID) ([]E, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *baseRepo[E]) FindOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (E, error) {
	var entity E
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity, models.ErrNotFound
	}
	if err != nil {
		return entity, fmt.Errorf("find one %s: %w", r.coll.Name(), err)
	}
	return entity, nil
}

// findOneAndUpdate applies update to the first match and returns the document
// after the update. A non-matching filter yields models.ErrNotFound.
func (r *baseRepo[E]) findOneAndUpdate(ctx context.Context, filter bson.M, update any) (E, error) {
	var updated E
	opt := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opt).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return updated, models.ErrNotFound
	}
	if err != nil {
		return updated, fmt.Errorf("find one and update %s: %w", r.coll.Name(), err)
	}
	return updated, nil
}

func (r *baseRepo[E]) UpdateByID(ctx context.Context, entity E) (E, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": entity.GetObjectID()}, bson.M{
		"$set": entity.GetUpdates(),
	})
}

func (r *baseRepo[E]) UpdateMany(ctx context.Context, filter bson.M, data any, opts ...*options.UpdateOptions) (int64, error) {
	result, err := r.coll.UpdateMany(ctx, filter, data, opts...)
	if err != nil {
		return 0, fmt.Errorf("update many %s: %w", r.coll.Name(), err)
	}
	return result.ModifiedCount, nil
}

func (r *baseRepo[E]) DeleteByID(ctx context.Context, docID string) error {
	id := models.ObjectID(docID)
	if !id.IsValid() {
		return models.ErrNotFound
	}
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *baseRepo[E]) Count(ctx context.Context, filter bson.M, opts ...*options.CountOptions) (int64, error) {
	return r.coll.CountDocuments(ctx, filter, opts...)
}

func (r *baseRepo[E]) PaginateWithTotal(ctx context.Context, filter bson.M, limit int64, skip int64, opts ...*options.FindOptions) (*PaginateWithTotal[E], error) {
	group, ctx := errgroup.WithContext(ctx)
	var entities []E
	var total int64

	group.Go(func() error {
		opts = append(opts, options.Find().SetSkip(skip).SetLimit(limit))
		cursor, err := r.coll.Find(ctx, filter, opts...)
		if err != nil {
			return fmt.Errorf("find: %w", err)
		}
		if err := cursor.All(ctx, &entities); err != nil {
			return fmt.Errorf("cursor all: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		var err error
		total, err = r.coll.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &PaginateWithTotal[E]{Total: total, Data: entities}, nil
}

var ErrStop = errors.New("stop")

func (r *baseRepo[E]) Iterate(ctx context.Context, filter bson.M, fn func(E) error, opts ...*options.FindOptions) error {
	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var entity E
		if err := cursor.Decode(&entity); err != nil {
			return err
		}

		err := fn(entity)
		if errors.Is(err, ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	return cursor.Err()
}
