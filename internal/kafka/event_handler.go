package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/segmentio/kafka-go"
	"github.com/tidwall/gjson"
)

type EventHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

type identityEventHandler struct {
	profileTopic  string
	relationTopic string
	reconcile     usecase.ReconcileUsecase
}

// NewEventHandler routes identity events to summary reconciliation.
func NewEventHandler(conf *config.Config, reconcile usecase.ReconcileUsecase) EventHandler {
	return &identityEventHandler{
		profileTopic:  conf.Kafka.ProfileTopic,
		relationTopic: conf.Kafka.RelationTopic,
		reconcile:     reconcile,
	}
}

func (h *identityEventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	id := entityID(msg)
	if id == "" {
		return models.NewInvalidArgument("event on %s carries no entity id", msg.Topic)
	}
	switch msg.Topic {
	case h.profileTopic:
		return h.reconcile.ReconcileProfile(log.WithFields(ctx, "profile_id", id), id)
	case h.relationTopic:
		return h.reconcile.ReconcileRelation(log.WithFields(ctx, "relation_id", id), id)
	default:
		log.Debugw(ctx, "Ignoring event", "topic", msg.Topic)
		return nil
	}
}

// entityID reads the id from the payload, falling back to the message key.
func entityID(msg kafka.Message) string {
	if gjson.ValidBytes(msg.Value) {
		for _, r := range gjson.GetManyBytes(msg.Value, "data.id", "data._id", "id", "_id") {
			if s := r.String(); s != "" {
				return s
			}
		}
	}
	return string(msg.Key)
}
