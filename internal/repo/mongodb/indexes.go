package mongodb

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// only string front ids take part in deduplication
var frontIDPresent = bson.M{"front_id": bson.M{"$type": "string"}}

func (r *messageRepo[M]) EnsureIndexes(ctx context.Context) error {
	var m M
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("chat_created"),
		},
	}

	switch m.Variant() {
	case models.VariantDirect:
		indexes = append(indexes,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "front_id", Value: 1},
					{Key: "from_profile_id", Value: 1},
					{Key: "to_profile_id", Value: 1},
				},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(frontIDPresent).
					SetName("front_from_to"),
			},
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "from_profile_id", Value: 1},
					{Key: "to_profile_id", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("pair_created"),
			},
			mongo.IndexModel{
				Keys:    bson.D{{Key: "broadcast_message_id", Value: 1}},
				Options: options.Index().SetSparse(true).SetName("broadcast_message"),
			},
		)
	default:
		indexes = append(indexes,
			mongo.IndexModel{
				Keys: bson.D{
					{Key: "front_id", Value: 1},
					{Key: "chat_id", Value: 1},
					{Key: "from_profile_id", Value: 1},
				},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(frontIDPresent).
					SetName("front_chat_from"),
			},
			mongo.IndexModel{
				Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "to_profile_ids", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("chat_recipients_created"),
			},
		)
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.coll.Name(), err)
	}
	return nil
}

func (r *conversationRepo[E]) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("chat_id"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("owner_updated"),
		},
		{
			Keys:    bson.D{{Key: "members.profile_id", Value: 1}},
			Options: options.Index().SetName("member_profile"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.coll.Name(), err)
	}
	return nil
}

func (r *messageDocumentRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "content.text", Value: "text"}, {Key: "content.subject", Value: "text"}},
			Options: options.Index().SetName("content_text"),
		},
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "to_profile_ids", Value: 1}, {Key: "is_viewed", Value: 1}},
			Options: options.Index().SetName("chat_recipient_viewed"),
		},
		{
			Keys:    bson.D{{Key: "from_profile_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("from_created"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.coll.Name(), err)
	}
	return nil
}

func (r *summaryRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participant_ids", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("participant_updated"),
		},
		{
			Keys:    bson.D{{Key: "left_profile._id", Value: 1}},
			Options: options.Index().SetName("left_profile"),
		},
		{
			Keys:    bson.D{{Key: "right_profile._id", Value: 1}},
			Options: options.Index().SetName("right_profile"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.coll.Name(), err)
	}
	return nil
}
