package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WindowQuery bounds a read of one conversation for one participant.
type WindowQuery struct {
	ChatID    string
	ProfileID string
	// inclusive created_at bounds
	Before    *time.Time
	After     *time.Time
	Ascending bool
	Limit     int
}

// MessageRepository is the canonical store of one message variant.
type MessageRepository[M models.Message] interface {
	FindByID(ctx context.Context, id string) (M, error)
	FindByIDs(ctx context.Context, ids []models.ObjectID) ([]M, error)
	// InsertIdempotent stores msg unless a message with the same dedup key
	// exists, in which case the existing one is returned with created=false.
	InsertIdempotent(ctx context.Context, msg M) (stored M, created bool, err error)
	// FindSubmitted returns the message stored for a prior submission, or
	// models.ErrNotFound.
	FindSubmitted(ctx context.Context, sub models.Submission) (M, error)
	Window(ctx context.Context, q WindowQuery) ([]M, error)
	MarkDelivered(ctx context.Context, profileID string, ids []models.ObjectID, at time.Time) (int64, error)
	// MarkViewed views msg for profileID together with every earlier unviewed
	// message addressed to profileID in the same conversation.
	MarkViewed(ctx context.Context, msg M, profileID string, at time.Time) ([]models.ObjectID, error)
	AddView(ctx context.Context, id models.ObjectID, view models.View) (M, error)
	AddReaction(ctx context.Context, id models.ObjectID, reaction models.Reaction) (M, error)
	RemoveReaction(ctx context.Context, id models.ObjectID, profileID, reactionID string, at time.Time) (M, error)
	AddClick(ctx context.Context, id models.ObjectID, click models.Click) (M, error)
	MarkDeleted(ctx context.Context, id models.ObjectID, profileID string, at time.Time) (M, error)
	SetManaged(ctx context.Context, id models.ObjectID, at time.Time) (M, error)
	Iterate(ctx context.Context, filter bson.M, fn func(M) error, opts ...*options.FindOptions) error
	EnsureIndexes(ctx context.Context) error
}

type messageRepo[M models.Message] struct {
	baseRepo[M]
}

func newMessageRepo[M models.Message](db *DB) messageRepo[M] {
	return messageRepo[M]{baseRepo: newBaseRepo[M](db.Database)}
}

func NewGroupMessageRepository(db *DB) MessageRepository[*models.GroupMessage] {
	r := newMessageRepo[*models.GroupMessage](db)
	return &r
}

func NewBroadcastMessageRepository(db *DB) MessageRepository[*models.BroadcastMessage] {
	r := newMessageRepo[*models.BroadcastMessage](db)
	return &r
}

func (r *messageRepo[M]) recipientField() string {
	var m M
	return m.RecipientField()
}

func (r *messageRepo[M]) InsertIdempotent(ctx context.Context, msg M) (M, bool, error) {
	b := msg.GetBase()
	if b.ID == "" {
		b.ID = models.NewObjectID()
	}
	// $push needs arrays, not nulls
	if b.Views == nil {
		b.Views = []models.View{}
	}
	if b.Clicks == nil {
		b.Clicks = []models.Click{}
	}
	if b.Reactions == nil {
		b.Reactions = []models.Reaction{}
	}
	if b.FrontID == "" {
		_, err := r.Insert(ctx, msg)
		return msg, err == nil, err
	}

	filter := msg.DedupFilter()
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$setOnInsert": msg}, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		var zero M
		return zero, false, fmt.Errorf("upsert message: %w", err)
	}
	if err == nil && result.UpsertedCount == 1 {
		return msg, true, nil
	}

	existing, err := r.FindOne(ctx, filter)
	if err != nil {
		var zero M
		return zero, false, fmt.Errorf("find deduplicated message: %w", err)
	}
	return existing, false, nil
}

func (r *messageRepo[M]) FindSubmitted(ctx context.Context, sub models.Submission) (M, error) {
	if sub.FrontID == "" || sub.FromProfileID == "" {
		var zero M
		return zero, models.ErrNotFound
	}
	filter := bson.M{"front_id": sub.FrontID, "from_profile_id": sub.FromProfileID}
	if sub.ChatID != "" {
		filter["chat_id"] = sub.ChatID
	}
	if sub.ToProfileID != "" {
		filter[r.recipientField()] = sub.ToProfileID
	}
	return r.FindOne(ctx, filter)
}

func (r *messageRepo[M]) participantFilter(chatID, profileID string) bson.M {
	return bson.M{
		"chat_id": chatID,
		"$or": bson.A{
			bson.M{"from_profile_id": profileID},
			bson.M{r.recipientField(): profileID},
		},
	}
}

func (r *messageRepo[M]) Window(ctx context.Context, q WindowQuery) ([]M, error) {
	filter := r.participantFilter(q.ChatID, q.ProfileID)
	created := bson.M{}
	if q.Before != nil {
		created["$lte"] = *q.Before
	}
	if q.After != nil {
		created["$gte"] = *q.After
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}

	order := -1
	if q.Ascending {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: order}, {Key: "_id", Value: order}}).
		SetLimit(int64(q.Limit))
	return r.Find(ctx, filter, opts)
}

func (r *messageRepo[M]) MarkDelivered(ctx context.Context, profileID string, ids []models.ObjectID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"_id":              bson.M{"$in": ids},
		r.recipientField(): profileID,
		"is_delivered":     false,
	}
	return r.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"is_delivered": true,
		"delivered_at": at,
		"updated_at":   at,
	}})
}

// notBefore keeps a cascaded timestamp no earlier than the message's own creation.
func notBefore(at time.Time) bson.M {
	return bson.M{"$max": bson.A{at, "$created_at"}}
}

func (r *messageRepo[M]) MarkViewed(ctx context.Context, msg M, profileID string, at time.Time) ([]models.ObjectID, error) {
	b := msg.GetBase()
	var filter bson.M
	var set bson.M
	if msg.Variant() == models.VariantDirect {
		filter = bson.M{
			"chat_id":         b.ChatID,
			"from_profile_id": b.FromProfileID,
			"to_profile_id":   profileID,
			"is_viewed":       false,
			"created_at":      bson.M{"$lte": b.CreatedAt},
		}
		set = bson.M{
			"is_viewed":         true,
			"viewed_at":         notBefore(at),
			"show_in_dashboard": false,
			"updated_at":        at,
		}
	} else {
		filter = bson.M{
			"chat_id":          b.ChatID,
			"to_profile_ids":   profileID,
			"views.profile_id": bson.M{"$ne": profileID},
			"created_at":       bson.M{"$lte": b.CreatedAt},
		}
		set = bson.M{
			"views": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$views", bson.A{}}},
				bson.A{bson.M{"profile_id": profileID, "time": notBefore(at)}},
			}},
			"is_viewed":  true,
			"viewed_at":  bson.M{"$ifNull": bson.A{"$viewed_at", notBefore(at)}},
			"updated_at": at,
		}
	}

	ids, err := r.findIDs(ctx, filter)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	filter["_id"] = bson.M{"$in": ids}
	if _, err := r.UpdateMany(ctx, filter, mongo.Pipeline{{{Key: "$set", Value: set}}}); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *messageRepo[M]) findIDs(ctx context.Context, filter bson.M) ([]models.ObjectID, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find ids: %w", err)
	}
	var rows []struct {
		ID models.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("cursor all: %w", err)
	}
	ids := make([]models.ObjectID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

func (r *messageRepo[M]) AddView(ctx context.Context, id models.ObjectID, view models.View) (M, error) {
	filter := bson.M{
		"_id":   id,
		"views": bson.M{"$not": bson.M{"$elemMatch": bson.M{"profile_id": view.ProfileID}}},
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{
		"$push": bson.M{"views": view},
		"$set":  bson.M{"updated_at": view.Time},
	})
}

func (r *messageRepo[M]) AddReaction(ctx context.Context, id models.ObjectID, reaction models.Reaction) (M, error) {
	filter := bson.M{
		"_id": id,
		"reactions": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"profile_id":  reaction.ProfileID,
			"reaction_id": reaction.ReactionID,
		}}},
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{
		"$push": bson.M{"reactions": reaction},
		"$set":  bson.M{"updated_at": reaction.Time},
	})
}

func (r *messageRepo[M]) RemoveReaction(ctx context.Context, id models.ObjectID, profileID, reactionID string, at time.Time) (M, error) {
	filter := bson.M{
		"_id": id,
		"reactions": bson.M{"$elemMatch": bson.M{
			"profile_id":  profileID,
			"reaction_id": reactionID,
		}},
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{
		"$pull": bson.M{"reactions": bson.M{"profile_id": profileID, "reaction_id": reactionID}},
		"$set":  bson.M{"updated_at": at},
	})
}

func (r *messageRepo[M]) AddClick(ctx context.Context, id models.ObjectID, click models.Click) (M, error) {
	match := bson.M{"profile_id": click.ProfileID, "type": click.Type}
	if click.Type == models.ClickLink {
		match["value"] = click.Value
	}
	filter := bson.M{
		"_id":    id,
		"clicks": bson.M{"$not": bson.M{"$elemMatch": match}},
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{
		"$push": bson.M{"clicks": click},
		"$set":  bson.M{"updated_at": click.Time},
	})
}

func (r *messageRepo[M]) MarkDeleted(ctx context.Context, id models.ObjectID, profileID string, at time.Time) (M, error) {
	filter := bson.M{
		"_id":             id,
		"from_profile_id": profileID,
		"is_viewed":       false,
		"is_deleted":      false,
	}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{
		"is_deleted": true,
		"deleted_at": at,
		"content":    nil,
		"updated_at": at,
	}})
}

func (r *messageRepo[M]) SetManaged(ctx context.Context, id models.ObjectID, at time.Time) (M, error) {
	filter := bson.M{"_id": id, "is_managed": false}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{
		"is_managed": true,
		"managed_at": at,
		"updated_at": at,
	}})
}
