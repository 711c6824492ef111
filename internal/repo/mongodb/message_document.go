package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SearchQuery struct {
	ProfileID string
	ChatID    string
	Text      string
	Limit     int
}

// MessageDocumentRepository is the per-message search projection (global_messages).
type MessageDocumentRepository interface {
	Upsert(ctx context.Context, docs ...*models.MessageDocument) error
	FindByID(ctx context.Context, id string) (*models.MessageDocument, error)
	Search(ctx context.Context, q SearchQuery) ([]*models.MessageDocument, error)
	CountUnread(ctx context.Context, chatID, profileID string) (int64, error)
	CountUnmanaged(ctx context.Context, chatID, profileID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type messageDocumentRepo struct {
	coll *mongo.Collection
}

func NewMessageDocumentRepository(db *DB) MessageDocumentRepository {
	return &messageDocumentRepo{coll: db.Index.Collection("global_messages")}
}

func (r *messageDocumentRepo) Upsert(ctx context.Context, docs ...*models.MessageDocument) error {
	if len(docs) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert message documents: %w", err)
	}
	return nil
}

func (r *messageDocumentRepo) FindByID(ctx context.Context, id string) (*models.MessageDocument, error) {
	var doc models.MessageDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find message document: %w", err)
	}
	return &doc, nil
}

func (r *messageDocumentRepo) Search(ctx context.Context, q SearchQuery) ([]*models.MessageDocument, error) {
	filter := bson.M{
		"$text":      bson.M{"$search": q.Text},
		"is_deleted": false,
		"$or": bson.A{
			bson.M{"from_profile_id": q.ProfileID},
			bson.M{"to_profile_ids": q.ProfileID},
		},
	}
	if q.ChatID != "" {
		filter["chat_id"] = q.ChatID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(q.Limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search message documents: %w", err)
	}
	var docs []*models.MessageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	return docs, nil
}

func inboundFilter(chatID, profileID string) bson.M {
	return bson.M{
		"chat_id":         chatID,
		"to_profile_ids":  profileID,
		"from_profile_id": bson.M{"$ne": profileID},
		"is_deleted":      false,
	}
}

func (r *messageDocumentRepo) CountUnread(ctx context.Context, chatID, profileID string) (int64, error) {
	filter := inboundFilter(chatID, profileID)
	filter["is_viewed"] = false
	return r.coll.CountDocuments(ctx, filter)
}

func (r *messageDocumentRepo) CountUnmanaged(ctx context.Context, chatID, profileID string) (int64, error) {
	filter := inboundFilter(chatID, profileID)
	filter["is_managed"] = false
	return r.coll.CountDocuments(ctx, filter)
}
