package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/files"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"golang.org/x/sync/errgroup"
)

// copyConcurrency bounds the direct copies written per broadcast message.
const copyConcurrency = 8

type BroadcastUsecase interface {
	CreateBroadcast(ctx context.Context, actor models.Actor, in ConversationInput) (*models.Broadcast, error)
	UpdateBroadcast(ctx context.Context, actor models.Actor, chatID string, in ConversationInput) (*models.Broadcast, error)
	DeleteBroadcast(ctx context.Context, actor models.Actor, chatID string) (*models.Broadcast, error)
	GetBroadcast(ctx context.Context, actor models.Actor, chatID string) (*models.Broadcast, error)
	ListBroadcasts(ctx context.Context, actor models.Actor, limit, skip int64) (*mongodb.PaginateWithTotal[*models.Broadcast], error)
	ChangeMemberStatus(ctx context.Context, actor models.Actor, chatID string, in MemberStatusInput) (*models.Broadcast, error)

	CreateBroadcastMessage(ctx context.Context, actor models.Actor, chatID string, in CreateMessageInput) (*models.BroadcastMessage, error)
	GetBroadcastMessage(ctx context.Context, actor models.Actor, id string) (*models.BroadcastMessage, error)
	GetBroadcastMessages(ctx context.Context, actor models.Actor, req WindowRequest) ([]*models.BroadcastMessage, error)
	ViewBroadcastMessage(ctx context.Context, actor models.Actor, id string) (*models.BroadcastMessage, error)
	ClickBroadcastMessage(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (*models.BroadcastMessage, error)
	ReactBroadcastMessage(ctx context.Context, actor models.Actor, id, reactionID string) (*models.BroadcastMessage, error)
	DeleteBroadcastMessageReaction(ctx context.Context, actor models.Actor, id, reactionID string) (*models.BroadcastMessage, error)
	DeleteBroadcastMessage(ctx context.Context, actor models.Actor, id string) (*models.BroadcastMessage, error)
}

type broadcastUsecase struct {
	broadcasts *conversationManager[*models.Broadcast]
	messages   *conversationMessages[*models.BroadcastMessage]
	repo       mongodb.MessageRepository[*models.BroadcastMessage]
	direct     MessageUsecase
	resolver   RecipientResolver
	content    *contentPreparer
	bg         util.Background
	now        func() time.Time
}

func NewBroadcastUsecase(
	conf *config.Config,
	bg util.Background,
	broadcasts mongodb.ConversationRepository[*models.Broadcast],
	messages mongodb.MessageRepository[*models.BroadcastMessage],
	summaries mongodb.SummaryRepository,
	identityClient identity.Client,
	filesClient files.Client,
	resolver RecipientResolver,
	index IndexSynchronizer,
	fanout FanoutDispatcher,
	direct MessageUsecase,
) BroadcastUsecase {
	catalog := models.DefaultCatalog()
	return &broadcastUsecase{
		broadcasts: &conversationManager[*models.Broadcast]{
			repo:      broadcasts,
			summaries: summaries,
			identity:  identityClient,
			now:       time.Now,
		},
		messages: &conversationMessages[*models.BroadcastMessage]{
			tracker: &lifecycleTracker[*models.BroadcastMessage]{
				repo:    messages,
				index:   index,
				fanout:  fanout,
				bg:      bg,
				catalog: catalog,
				now:     time.Now,
			},
			window: &windowReader[*models.BroadcastMessage]{
				repo:         messages,
				index:        index,
				bg:           bg,
				truncateLen:  conf.Message.TruncateLength,
				defaultLimit: conf.Message.DefaultLimit,
				maxLimit:     conf.Message.MaxLimit,
			},
			prefix: models.PrefixBroadcast,
		},
		repo:     messages,
		direct:   direct,
		resolver: resolver,
		content:  &contentPreparer{files: filesClient, maxLen: conf.Message.MaxLength, catalog: catalog},
		bg:       bg,
		now:      time.Now,
	}
}

func (uc *broadcastUsecase) CreateBroadcast(ctx context.Context, actor models.Actor, in ConversationInput) (*models.Broadcast, error) {
	return uc.broadcasts.create(ctx, actor, &models.Broadcast{ManagedBy: in.ManagedBy}, in)
}

func (uc *broadcastUsecase) UpdateBroadcast(ctx context.Context, actor models.Actor, chatID string, in ConversationInput) (*models.Broadcast, error) {
	return uc.broadcasts.update(ctx, actor, chatID, in, func(b *models.Broadcast) {
		if in.ManagedBy != "" {
			b.ManagedBy = in.ManagedBy
		}
	})
}

func (uc *broadcastUsecase) DeleteBroadcast(ctx context.Context, actor models.Actor, chatID string) (*models.Broadcast, error) {
	return uc.broadcasts.remove(ctx, actor, chatID)
}

func (uc *broadcastUsecase) GetBroadcast(ctx context.Context, actor models.Actor, chatID string) (*models.Broadcast, error) {
	return uc.broadcasts.get(ctx, actor, chatID)
}

func (uc *broadcastUsecase) ListBroadcasts(ctx context.Context, actor models.Actor, limit, skip int64) (*mongodb.PaginateWithTotal[*models.Broadcast], error) {
	return uc.broadcasts.list(ctx, actor, limit, skip)
}

func (uc *broadcastUsecase) ChangeMemberStatus(ctx context.Context, actor models.Actor, chatID string, in MemberStatusInput) (*models.Broadcast, error) {
	return uc.broadcasts.changeMemberStatus(ctx, actor, chatID, in)
}

// CreateBroadcastMessage sends on behalf of the broadcast owner. The owner
// and salesmen scoped to the broadcast's manager may send.
func (uc *broadcastUsecase) CreateBroadcastMessage(ctx context.Context, actor models.Actor, chatID string, in CreateMessageInput) (*models.BroadcastMessage, error) {
	b, ok, err := uc.broadcasts.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	if b.OwnerID != actor.ProfileID && !actor.Scoped(b.ManagedBy) {
		return nil, models.ErrPermissionDenied
	}
	prior, ok, err := uc.messages.tracker.submitted(ctx, models.Submission{
		FrontID:       in.FrontID,
		FromProfileID: b.OwnerID,
		ChatID:        b.ChatID,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		return prior, nil
	}
	recipients, err := uc.resolver.ResolveBroadcast(ctx, actor, b)
	if err != nil {
		return nil, err
	}
	channel, err := uc.content.channel(in.Channel, models.ChannelBroadcast)
	if err != nil {
		return nil, err
	}
	if err := uc.content.prepare(ctx, in.Content); err != nil {
		return nil, err
	}

	now := uc.now()
	msg := &models.BroadcastMessage{
		MessageBase: models.MessageBase{
			FrontID:       in.FrontID,
			ChatID:        b.ChatID,
			Channel:       channel,
			FromProfileID: b.OwnerID,
			Content:       in.Content,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		BroadcastID:  b.ID,
		ToProfileIDs: recipients,
	}
	if actor.ProfileID != b.OwnerID {
		msg.FromManagerProfileID = actor.ProfileID
	}
	stored, created, err := uc.repo.InsertIdempotent(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("insert broadcast message: %w", err)
	}
	if !created {
		return stored, nil
	}
	uc.messages.tracker.publish(ctx, stored, nil)

	snapshot := *stored
	uc.bg.Go(ctx, func(ctx context.Context) {
		uc.copyToRecipients(ctx, &snapshot)
	})
	return stored, nil
}

// copyToRecipients writes one direct copy per recipient. A failing
// recipient does not stop the others.
func (uc *broadcastUsecase) copyToRecipients(ctx context.Context, m *models.BroadcastMessage) {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(copyConcurrency)
	for _, to := range m.ToProfileIDs {
		if to == m.FromProfileID {
			continue
		}
		group.Go(func() error {
			if _, err := uc.direct.CreateBroadcastCopy(gctx, m, to); err != nil {
				log.Warnw(gctx, "failed to copy broadcast message", "broadcast_message_id", m.ID, "to_profile_id", to, "error", err)
			}
			return nil
		})
	}
	_ = group.Wait()
}

func (uc *broadcastUsecase) GetBroadcastMessage(ctx context.Context, actor models.Actor, id string) (*models.BroadcastMessage, error) {
	return uc.messages.get(ctx, actor, id)
}

func (uc *broadcastUsecase) GetBroadcastMessages(ctx context.Context, actor models.Actor, req WindowRequest) ([]*models.BroadcastMessage, error) {
	return uc.messages.read(ctx, actor, req)
}

func (uc *broadcastUsecase) ViewBroadcastMessage(ctx context.Context, actor models.Actor, id string) (*models.BroadcastMessage, error) {
	return uc.messages.view(ctx, actor, id)
}

func (uc *broadcastUsecase) ClickBroadcastMessage(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (*models.BroadcastMessage, error) {
	return uc.messages.click(ctx, actor, id, clickType, value)
}

func (uc *broadcastUsecase) ReactBroadcastMessage(ctx context.Context, actor models.Actor, id, reactionID string) (*models.BroadcastMessage, error) {
	return uc.messages.react(ctx, actor, id, reactionID)
}

func (uc *broadcastUsecase) DeleteBroadcastMessageReaction(ctx context.Context, actor models.Actor, id, reactionID string) (*models.BroadcastMessage, error) {
	return uc.messages.unreact(ctx, actor, id, reactionID)
}

func (uc *broadcastUsecase) DeleteBroadcastMessage(ctx context.Context, actor models.Actor, id string) (*models.BroadcastMessage, error) {
	return uc.messages.remove(ctx, actor, id)
}
