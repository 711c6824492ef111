package usecase

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReindexStats struct {
	Messages      int `json:"messages"`
	Conversations int `json:"conversations"`
	Failed        int `json:"failed"`
}

// ReindexUsecase rebuilds the projection from the canonical stores.
type ReindexUsecase interface {
	EnsureIndexes(ctx context.Context) error
	Reindex(ctx context.Context) (*ReindexStats, error)
}

type indexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

type reindexUsecase struct {
	direct     mongodb.DirectMessageRepository
	groupMsgs  mongodb.MessageRepository[*models.GroupMessage]
	bcastMsgs  mongodb.MessageRepository[*models.BroadcastMessage]
	groups     mongodb.ConversationRepository[*models.Group]
	broadcasts mongodb.ConversationRepository[*models.Broadcast]
	docs       mongodb.MessageDocumentRepository
	summaries  mongodb.SummaryRepository
	index      IndexSynchronizer
}

func NewReindexUsecase(
	direct mongodb.DirectMessageRepository,
	groupMsgs mongodb.MessageRepository[*models.GroupMessage],
	bcastMsgs mongodb.MessageRepository[*models.BroadcastMessage],
	groups mongodb.ConversationRepository[*models.Group],
	broadcasts mongodb.ConversationRepository[*models.Broadcast],
	docs mongodb.MessageDocumentRepository,
	summaries mongodb.SummaryRepository,
	index IndexSynchronizer,
) ReindexUsecase {
	return &reindexUsecase{
		direct:     direct,
		groupMsgs:  groupMsgs,
		bcastMsgs:  bcastMsgs,
		groups:     groups,
		broadcasts: broadcasts,
		docs:       docs,
		summaries:  summaries,
		index:      index,
	}
}

func (uc *reindexUsecase) EnsureIndexes(ctx context.Context) error {
	repos := []indexEnsurer{uc.direct, uc.groupMsgs, uc.bcastMsgs, uc.groups, uc.broadcasts, uc.docs, uc.summaries}
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (uc *reindexUsecase) Reindex(ctx context.Context) (*ReindexStats, error) {
	stats := &ReindexStats{}
	if err := reindexConversations(ctx, uc.groups, stats, uc.summaries); err != nil {
		return stats, err
	}
	if err := reindexConversations(ctx, uc.broadcasts, stats, uc.summaries); err != nil {
		return stats, err
	}
	if err := reindexMessages[*models.DirectMessage](ctx, uc.direct, stats, uc.index); err != nil {
		return stats, err
	}
	if err := reindexMessages(ctx, uc.groupMsgs, stats, uc.index); err != nil {
		return stats, err
	}
	if err := reindexMessages(ctx, uc.bcastMsgs, stats, uc.index); err != nil {
		return stats, err
	}
	log.Infow(ctx, "reindex done", "messages", stats.Messages, "conversations", stats.Conversations, "failed", stats.Failed)
	return stats, nil
}

// reindexMessages replays messages oldest first so rollups end on the latest one.
func reindexMessages[M models.Message](ctx context.Context, repo mongodb.MessageRepository[M], stats *ReindexStats, index IndexSynchronizer) error {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	err := repo.Iterate(ctx, bson.M{}, func(m M) error {
		if err := index.Sync(ctx, m); err != nil {
			stats.Failed++
			log.Warnw(ctx, "failed to reindex message", "message_id", m.GetObjectID(), "error", err)
			return nil
		}
		stats.Messages++
		return nil
	}, opts)
	if err != nil {
		return fmt.Errorf("iterate messages: %w", err)
	}
	return nil
}

func reindexConversations[E models.ConversationEntity](ctx context.Context, repo mongodb.ConversationRepository[E], stats *ReindexStats, summaries mongodb.SummaryRepository) error {
	err := repo.Iterate(ctx, bson.M{}, func(e E) error {
		if err := summaries.Upsert(ctx, conversationSummary(e)); err != nil {
			stats.Failed++
			log.Warnw(ctx, "failed to reindex conversation", "chat_id", e.Base().ChatID, "error", err)
			return nil
		}
		stats.Conversations++
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate conversations: %w", err)
	}
	return nil
}
