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
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
)

type GroupUsecase interface {
	CreateGroup(ctx context.Context, actor models.Actor, in ConversationInput) (*models.Group, error)
	UpdateGroup(ctx context.Context, actor models.Actor, chatID string, in ConversationInput) (*models.Group, error)
	DeleteGroup(ctx context.Context, actor models.Actor, chatID string) (*models.Group, error)
	GetGroup(ctx context.Context, actor models.Actor, chatID string) (*models.Group, error)
	ListGroups(ctx context.Context, actor models.Actor, limit, skip int64) (*mongodb.PaginateWithTotal[*models.Group], error)
	ChangeMemberStatus(ctx context.Context, actor models.Actor, chatID string, in MemberStatusInput) (*models.Group, error)

	CreateGroupMessage(ctx context.Context, actor models.Actor, chatID string, in CreateMessageInput) (*models.GroupMessage, error)
	GetGroupMessage(ctx context.Context, actor models.Actor, id string) (*models.GroupMessage, error)
	GetGroupMessages(ctx context.Context, actor models.Actor, req WindowRequest) ([]*models.GroupMessage, error)
	ViewGroupMessage(ctx context.Context, actor models.Actor, id string) (*models.GroupMessage, error)
	ClickGroupMessage(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (*models.GroupMessage, error)
	ReactGroupMessage(ctx context.Context, actor models.Actor, id, reactionID string) (*models.GroupMessage, error)
	DeleteGroupMessageReaction(ctx context.Context, actor models.Actor, id, reactionID string) (*models.GroupMessage, error)
	DeleteGroupMessage(ctx context.Context, actor models.Actor, id string) (*models.GroupMessage, error)
}

type groupUsecase struct {
	groups   *conversationManager[*models.Group]
	messages *conversationMessages[*models.GroupMessage]
	repo     mongodb.MessageRepository[*models.GroupMessage]
	resolver RecipientResolver
	content  *contentPreparer
	now      func() time.Time
}

func NewGroupUsecase(
	conf *config.Config,
	bg util.Background,
	groups mongodb.ConversationRepository[*models.Group],
	messages mongodb.MessageRepository[*models.GroupMessage],
	summaries mongodb.SummaryRepository,
	identityClient identity.Client,
	filesClient files.Client,
	resolver RecipientResolver,
	index IndexSynchronizer,
	fanout FanoutDispatcher,
) GroupUsecase {
	catalog := models.DefaultCatalog()
	return &groupUsecase{
		groups: &conversationManager[*models.Group]{
			repo:      groups,
			summaries: summaries,
			identity:  identityClient,
			now:       time.Now,
		},
		messages: &conversationMessages[*models.GroupMessage]{
			tracker: &lifecycleTracker[*models.GroupMessage]{
				repo:    messages,
				index:   index,
				fanout:  fanout,
				bg:      bg,
				catalog: catalog,
				now:     time.Now,
			},
			window: &windowReader[*models.GroupMessage]{
				repo:         messages,
				index:        index,
				bg:           bg,
				truncateLen:  conf.Message.TruncateLength,
				defaultLimit: conf.Message.DefaultLimit,
				maxLimit:     conf.Message.MaxLimit,
			},
			prefix: models.PrefixGroup,
		},
		repo:     messages,
		resolver: resolver,
		content:  &contentPreparer{files: filesClient, maxLen: conf.Message.MaxLength, catalog: catalog},
		now:      time.Now,
	}
}

func (uc *groupUsecase) CreateGroup(ctx context.Context, actor models.Actor, in ConversationInput) (*models.Group, error) {
	return uc.groups.create(ctx, actor, &models.Group{}, in)
}

func (uc *groupUsecase) UpdateGroup(ctx context.Context, actor models.Actor, chatID string, in ConversationInput) (*models.Group, error) {
	return uc.groups.update(ctx, actor, chatID, in, nil)
}

func (uc *groupUsecase) DeleteGroup(ctx context.Context, actor models.Actor, chatID string) (*models.Group, error) {
	return uc.groups.remove(ctx, actor, chatID)
}

func (uc *groupUsecase) GetGroup(ctx context.Context, actor models.Actor, chatID string) (*models.Group, error) {
	return uc.groups.get(ctx, actor, chatID)
}

func (uc *groupUsecase) ListGroups(ctx context.Context, actor models.Actor, limit, skip int64) (*mongodb.PaginateWithTotal[*models.Group], error) {
	return uc.groups.list(ctx, actor, limit, skip)
}

func (uc *groupUsecase) ChangeMemberStatus(ctx context.Context, actor models.Actor, chatID string, in MemberStatusInput) (*models.Group, error) {
	return uc.groups.changeMemberStatus(ctx, actor, chatID, in)
}

func (uc *groupUsecase) CreateGroupMessage(ctx context.Context, actor models.Actor, chatID string, in CreateMessageInput) (*models.GroupMessage, error) {
	g, ok, err := uc.groups.load(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	prior, ok, err := uc.messages.tracker.submitted(ctx, models.Submission{
		FrontID:       in.FrontID,
		FromProfileID: actor.ProfileID,
		ChatID:        g.ChatID,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		return prior, nil
	}
	if g.OwnerID != actor.ProfileID {
		if m := g.Member(actor.ProfileID); m == nil || m.Status != models.MemberActive {
			return nil, models.ErrPermissionDenied
		}
	}
	recipients, err := uc.resolver.ResolveGroup(ctx, actor, g)
	if err != nil {
		return nil, err
	}
	channel, err := uc.content.channel(in.Channel, models.ChannelGroup)
	if err != nil {
		return nil, err
	}
	if err := uc.content.prepare(ctx, in.Content); err != nil {
		return nil, err
	}

	now := uc.now()
	msg := &models.GroupMessage{
		MessageBase: models.MessageBase{
			FrontID:              in.FrontID,
			ChatID:               g.ChatID,
			Channel:              channel,
			FromProfileID:        actor.ProfileID,
			FromManagerProfileID: actor.ManagerID,
			Content:              in.Content,
			Lifecycle:            models.Lifecycle{IsForwarded: in.IsForwarded},
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		GroupID:      g.ID,
		ToProfileIDs: recipients,
	}
	if in.ReplyToMessageID != "" {
		if reply, err := uc.repo.FindByID(ctx, in.ReplyToMessageID); err == nil && reply.ChatID == g.ChatID {
			msg.ReplyToMessageID = reply.ID
		}
	}
	stored, created, err := uc.repo.InsertIdempotent(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("insert group message: %w", err)
	}
	if created {
		uc.messages.tracker.publish(ctx, stored, nil)
	}
	return stored, nil
}

func (uc *groupUsecase) GetGroupMessage(ctx context.Context, actor models.Actor, id string) (*models.GroupMessage, error) {
	return uc.messages.get(ctx, actor, id)
}

func (uc *groupUsecase) GetGroupMessages(ctx context.Context, actor models.Actor, req WindowRequest) ([]*models.GroupMessage, error) {
	return uc.messages.read(ctx, actor, req)
}

func (uc *groupUsecase) ViewGroupMessage(ctx context.Context, actor models.Actor, id string) (*models.GroupMessage, error) {
	return uc.messages.view(ctx, actor, id)
}

func (uc *groupUsecase) ClickGroupMessage(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (*models.GroupMessage, error) {
	return uc.messages.click(ctx, actor, id, clickType, value)
}

func (uc *groupUsecase) ReactGroupMessage(ctx context.Context, actor models.Actor, id, reactionID string) (*models.GroupMessage, error) {
	return uc.messages.react(ctx, actor, id, reactionID)
}

func (uc *groupUsecase) DeleteGroupMessageReaction(ctx context.Context, actor models.Actor, id, reactionID string) (*models.GroupMessage, error) {
	return uc.messages.unreact(ctx, actor, id, reactionID)
}

func (uc *groupUsecase) DeleteGroupMessage(ctx context.Context, actor models.Actor, id string) (*models.GroupMessage, error) {
	return uc.messages.remove(ctx, actor, id)
}
