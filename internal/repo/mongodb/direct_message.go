package mongodb

import (
	"context"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DirectMessageRepository interface {
	MessageRepository[*models.DirectMessage]
	// SetPreviousManaged marks every unmanaged message sent by fromProfileID
	// to toProfileID up to before as managed and hides it from the dashboard.
	SetPreviousManaged(ctx context.Context, fromProfileID, toProfileID string, before, at time.Time) ([]models.ObjectID, error)
	HideInDashboard(ctx context.Context, id models.ObjectID, profileID string, at time.Time) (*models.DirectMessage, error)
	FirstBetween(ctx context.Context, a, b string) (*models.DirectMessage, error)
	LastBetween(ctx context.Context, a, b string) (*models.DirectMessage, error)
}

type directMessageRepo struct {
	messageRepo[*models.DirectMessage]
}

func NewDirectMessageRepository(db *DB) DirectMessageRepository {
	return &directMessageRepo{messageRepo: newMessageRepo[*models.DirectMessage](db)}
}

func (r *directMessageRepo) SetPreviousManaged(ctx context.Context, fromProfileID, toProfileID string, before, at time.Time) ([]models.ObjectID, error) {
	filter := bson.M{
		"from_profile_id": fromProfileID,
		"to_profile_id":   toProfileID,
		"is_managed":      false,
		"created_at":      bson.M{"$lte": before},
	}
	ids, err := r.findIDs(ctx, filter)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	filter["_id"] = bson.M{"$in": ids}
	_, err = r.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"is_managed":        true,
		"managed_at":        at,
		"show_in_dashboard": false,
		"updated_at":        at,
	}})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *directMessageRepo) HideInDashboard(ctx context.Context, id models.ObjectID, profileID string, at time.Time) (*models.DirectMessage, error) {
	filter := bson.M{"_id": id, "to_profile_id": profileID}
	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{
		"show_in_dashboard": false,
		"updated_at":        at,
	}})
}

func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"from_profile_id": a, "to_profile_id": b},
		bson.M{"from_profile_id": b, "to_profile_id": a},
	}}
}

func (r *directMessageRepo) FirstBetween(ctx context.Context, a, b string) (*models.DirectMessage, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.FindOne(ctx, pairFilter(a, b), opts)
}

func (r *directMessageRepo) LastBetween(ctx context.Context, a, b string) (*models.DirectMessage, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.FindOne(ctx, pairFilter(a, b), opts)
}
