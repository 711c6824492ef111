package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RollupDefaults seed a summary created by its first message.
type RollupDefaults struct {
	Type         string
	LeftProfile  *models.ProfileSnapshot
	Participants []string
	// replaces the address list when set (group, broadcast)
	ToProfileIDs []string
}

// SummaryRepository is the per-conversation projection (global_chats).
type SummaryRepository interface {
	FindByID(ctx context.Context, chatID string) (*models.ConversationSummary, error)
	FindByParticipants(ctx context.Context, a, b string) (*models.ConversationSummary, error)
	FindByProfile(ctx context.Context, profileID string) ([]*models.ConversationSummary, error)
	// Rollup records doc as the latest message of chatID, and as the first
	// one if none is set yet. Concurrent first writes surface as
	// models.ErrVersionConflict.
	Rollup(ctx context.Context, chatID string, doc *models.MessageDocument, defaults RollupDefaults) error
	// Upsert writes the descriptive fields of s, leaving rollup fields
	// untouched unless s carries them.
	Upsert(ctx context.Context, s *models.ConversationSummary) error
	// ReplaceProfileSnapshot rewrites the embedded snapshot in each summary
	// guarded by its version; conflicts counts the summaries that moved.
	ReplaceProfileSnapshot(ctx context.Context, summaries []*models.ConversationSummary, snapshot *models.ProfileSnapshot) (conflicts int, err error)
	Delete(ctx context.Context, chatID string) error
	EnsureIndexes(ctx context.Context) error
}

type summaryRepo struct {
	coll *mongo.Collection
}

func NewSummaryRepository(db *DB) SummaryRepository {
	return &summaryRepo{coll: db.Index.Collection("global_chats")}
}

func (r *summaryRepo) findOne(ctx context.Context, filter bson.M) (*models.ConversationSummary, error) {
	var s models.ConversationSummary
	err := r.coll.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find summary: %w", err)
	}
	return &s, nil
}

func (r *summaryRepo) FindByID(ctx context.Context, chatID string) (*models.ConversationSummary, error) {
	return r.findOne(ctx, bson.M{"_id": chatID})
}

func (r *summaryRepo) FindByParticipants(ctx context.Context, a, b string) (*models.ConversationSummary, error) {
	return r.findOne(ctx, bson.M{
		"type": "relation",
		"$or": bson.A{
			bson.M{"left_profile._id": a, "right_profile._id": b},
			bson.M{"left_profile._id": b, "right_profile._id": a},
		},
	})
}

func (r *summaryRepo) FindByProfile(ctx context.Context, profileID string) ([]*models.ConversationSummary, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"left_profile._id": profileID},
		bson.M{"right_profile._id": profileID},
	}}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find summaries by profile: %w", err)
	}
	var out []*models.ConversationSummary
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	return out, nil
}

func (r *summaryRepo) Rollup(ctx context.Context, chatID string, doc *models.MessageDocument, defaults RollupDefaults) error {
	participants := defaults.Participants
	if participants == nil {
		participants = []string{}
	}
	// the current last message is replaced by newer messages and by updates of itself
	isLatest := bson.M{"$or": bson.A{
		bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$last_message", nil}}, nil}},
		bson.M{"$eq": bson.A{"$last_message._id", doc.ID}},
		bson.M{"$gte": bson.A{doc.CreatedAt, "$last_message.created_at"}},
	}}
	set := bson.M{
		"type":          bson.M{"$ifNull": bson.A{"$type", defaults.Type}},
		"first_message": bson.M{"$ifNull": bson.A{"$first_message", bson.M{"$literal": doc}}},
		"last_message":  bson.M{"$cond": bson.A{isLatest, bson.M{"$literal": doc}, "$last_message"}},
		"participant_ids": bson.M{"$setUnion": bson.A{
			bson.M{"$ifNull": bson.A{"$participant_ids", bson.A{}}},
			bson.M{"$literal": participants},
		}},
		"created_at": bson.M{"$ifNull": bson.A{"$created_at", doc.CreatedAt}},
		"updated_at": bson.M{"$max": bson.A{"$updated_at", doc.CreatedAt}},
		"version":    bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$version", 0}}, 1}},
	}
	if defaults.LeftProfile != nil {
		set["left_profile"] = bson.M{"$ifNull": bson.A{"$left_profile", bson.M{"$literal": defaults.LeftProfile}}}
	}
	if defaults.ToProfileIDs != nil {
		set["to_profile_ids"] = bson.M{"$literal": defaults.ToProfileIDs}
	}

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
		options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("rollup summary %s: %w", chatID, err)
	}
	return nil
}

func (r *summaryRepo) Upsert(ctx context.Context, s *models.ConversationSummary) error {
	set := bson.M{
		"type":       s.Type,
		"updated_at": s.UpdatedAt,
	}
	if s.LeftProfile != nil {
		set["left_profile"] = s.LeftProfile
	}
	if s.RightProfile != nil {
		set["right_profile"] = s.RightProfile
	}
	if s.FirstMessage != nil {
		set["first_message"] = s.FirstMessage
	}
	if s.LastMessage != nil {
		set["last_message"] = s.LastMessage
	}
	if s.OwnerID != "" {
		set["owner_id"] = s.OwnerID
		set["name"] = s.Name
		set["managed_by"] = s.ManagedBy
	}
	if s.Members != nil {
		set["members"] = s.Members
	}
	if s.ParticipantIDs != nil {
		set["participant_ids"] = s.ParticipantIDs
	}
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": createdAt},
		"$inc":         bson.M{"version": 1},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": s.ID}, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("upsert summary %s: %w", s.ID, err)
	}
	return nil
}

func (r *summaryRepo) ReplaceProfileSnapshot(ctx context.Context, summaries []*models.ConversationSummary, snapshot *models.ProfileSnapshot) (int, error) {
	writes := make([]mongo.WriteModel, 0, len(summaries))
	for _, s := range summaries {
		set := bson.M{}
		if s.LeftProfile != nil && s.LeftProfile.ID == snapshot.ID {
			set["left_profile"] = snapshot
		}
		if s.RightProfile != nil && s.RightProfile.ID == snapshot.ID {
			set["right_profile"] = snapshot
		}
		if len(set) == 0 {
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": s.ID, "version": s.Version}).
			SetUpdate(bson.M{"$set": set, "$inc": bson.M{"version": 1}}))
	}
	if len(writes) == 0 {
		return 0, nil
	}
	result, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("bulk replace profile snapshot: %w", err)
	}
	return len(writes) - int(result.MatchedCount), nil
}

func (r *summaryRepo) Delete(ctx context.Context, chatID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": chatID})
	return err
}
