package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository stores groups or broadcasts.
type ConversationRepository[E models.ConversationEntity] interface {
	Create(ctx context.Context, entity E) (E, error)
	FindByID(ctx context.Context, id string) (E, error)
	FindByChatID(ctx context.Context, chatID string) (E, error)
	Update(ctx context.Context, entity E) (E, error)
	Delete(ctx context.Context, id string) error
	SetMemberStatus(ctx context.Context, id models.ObjectID, profileID string, status models.MemberStatus, at time.Time) (E, error)
	ListByParticipant(ctx context.Context, profileID string, limit, skip int64) (*PaginateWithTotal[E], error)
	Iterate(ctx context.Context, filter bson.M, fn func(E) error, opts ...*options.FindOptions) error
	EnsureIndexes(ctx context.Context) error
}

type conversationRepo[E models.ConversationEntity] struct {
	baseRepo[E]
	prefix string
}

func NewGroupRepository(db *DB) ConversationRepository[*models.Group] {
	return &conversationRepo[*models.Group]{
		baseRepo: newBaseRepo[*models.Group](db.Database),
		prefix:   models.PrefixGroup,
	}
}

func NewBroadcastRepository(db *DB) ConversationRepository[*models.Broadcast] {
	return &conversationRepo[*models.Broadcast]{
		baseRepo: newBaseRepo[*models.Broadcast](db.Database),
		prefix:   models.PrefixBroadcast,
	}
}

func (r *conversationRepo[E]) Create(ctx context.Context, entity E) (E, error) {
	c := entity.Base()
	now := time.Now()
	c.ID = models.NewObjectID()
	c.ChatID = r.prefix + c.ID.String()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Members == nil {
		c.Members = []models.Member{}
	}
	if _, err := r.Insert(ctx, entity); err != nil {
		return entity, fmt.Errorf("create %s: %w", r.coll.Name(), err)
	}
	return entity, nil
}

func (r *conversationRepo[E]) FindByChatID(ctx context.Context, chatID string) (E, error) {
	return r.FindOne(ctx, bson.M{"chat_id": chatID})
}

func (r *conversationRepo[E]) Update(ctx context.Context, entity E) (E, error) {
	entity.Base().UpdatedAt = time.Now()
	return r.UpdateByID(ctx, entity)
}

func (r *conversationRepo[E]) Delete(ctx context.Context, id string) error {
	return r.DeleteByID(ctx, id)
}

func (r *conversationRepo[E]) SetMemberStatus(ctx context.Context, id models.ObjectID, profileID string, status models.MemberStatus, at time.Time) (E, error) {
	filter := bson.M{"_id": id, "members.profile_id": profileID}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{
		"members.$.status": status,
		"updated_at":       at,
	}})
}

func (r *conversationRepo[E]) ListByParticipant(ctx context.Context, profileID string, limit, skip int64) (*PaginateWithTotal[E], error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner_id": profileID},
		bson.M{"members": bson.M{"$elemMatch": bson.M{
			"profile_id": profileID,
			"status":     bson.M{"$ne": models.MemberArchived},
		}}},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	return r.PaginateWithTotal(ctx, filter, limit, skip, opts)
}
