package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/files"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/notification"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"golang.org/x/sync/errgroup"
)

type CreateMessageInput struct {
	FrontID          string          `json:"front_id"`
	ChatID           string          `json:"chat_id"`
	ToProfileID      string          `json:"to_profile_id"`
	Channel          models.Channel  `json:"channel"`
	DeviceID         string          `json:"device_id"`
	ReplyToMessageID string          `json:"reply_to_message_id"`
	IsForwarded      bool            `json:"is_forwarded"`
	Content          *models.Content `json:"content" validate:"required"`
}

type SearchInput struct {
	Text   string `query:"q" validate:"required"`
	ChatID string `query:"chat_id"`
	Limit  int    `query:"limit"`
}

type MessageUsecase interface {
	CreateMessage(ctx context.Context, actor models.Actor, in CreateMessageInput) (*models.DirectMessage, error)
	CreateMailMessage(ctx context.Context, actor models.Actor, in CreateMessageInput) (*models.DirectMessage, error)
	CreateSystemMessage(ctx context.Context, toProfileID string, content *models.Content) (*models.DirectMessage, error)
	// CreateBroadcastCopy delivers src to one recipient as a direct message.
	CreateBroadcastCopy(ctx context.Context, src *models.BroadcastMessage, toProfileID string) (*models.DirectMessage, error)

	GetMessage(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error)
	GetMessages(ctx context.Context, actor models.Actor, req WindowRequest) ([]*models.DirectMessage, error)
	FirstMessage(ctx context.Context, actor models.Actor, otherProfileID string) (*models.DirectMessage, error)
	LastMessage(ctx context.Context, actor models.Actor, otherProfileID string) (*models.DirectMessage, error)
	Counts(ctx context.Context, actor models.Actor, chatID string) (*models.Counts, error)
	SearchMessages(ctx context.Context, actor models.Actor, in SearchInput) ([]*models.MessageDocument, error)

	ViewMessage(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error)
	ClickMessage(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (*models.DirectMessage, error)
	ReactMessage(ctx context.Context, actor models.Actor, id, reactionID string) (*models.DirectMessage, error)
	DeleteMessageReaction(ctx context.Context, actor models.Actor, id, reactionID string) (*models.DirectMessage, error)
	DeleteMessage(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error)
	HideInDashboard(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error)
}

type messageUsecase struct {
	direct     mongodb.DirectMessageRepository
	broadcasts mongodb.MessageRepository[*models.BroadcastMessage]
	docs       mongodb.MessageDocumentRepository
	resolver   RecipientResolver
	identity   identity.Client
	notifier   notification.Notifier
	index      IndexSynchronizer
	fanout     FanoutDispatcher
	content    *contentPreparer
	tracker    *lifecycleTracker[*models.DirectMessage]
	window     *windowReader[*models.DirectMessage]
	bg         util.Background
	searchMax  int
	now        func() time.Time
}

func NewMessageUsecase(
	conf *config.Config,
	bg util.Background,
	direct mongodb.DirectMessageRepository,
	broadcasts mongodb.MessageRepository[*models.BroadcastMessage],
	docs mongodb.MessageDocumentRepository,
	resolver RecipientResolver,
	identityClient identity.Client,
	filesClient files.Client,
	notifier notification.Notifier,
	index IndexSynchronizer,
	fanout FanoutDispatcher,
) MessageUsecase {
	catalog := models.DefaultCatalog()
	return &messageUsecase{
		direct:     direct,
		broadcasts: broadcasts,
		docs:       docs,
		resolver:   resolver,
		identity:   identityClient,
		notifier:   notifier,
		index:      index,
		fanout:     fanout,
		content:    &contentPreparer{files: filesClient, maxLen: conf.Message.MaxLength, catalog: catalog},
		tracker: &lifecycleTracker[*models.DirectMessage]{
			repo:    direct,
			index:   index,
			fanout:  fanout,
			bg:      bg,
			catalog: catalog,
			now:     time.Now,
		},
		window: &windowReader[*models.DirectMessage]{
			repo:         direct,
			index:        index,
			bg:           bg,
			truncateLen:  conf.Message.TruncateLength,
			defaultLimit: conf.Message.DefaultLimit,
			maxLimit:     conf.Message.MaxLimit,
			deliver:      true,
		},
		bg:        bg,
		searchMax: conf.Message.MaxLimit,
		now:       time.Now,
	}
}

func (uc *messageUsecase) CreateMessage(ctx context.Context, actor models.Actor, in CreateMessageInput) (*models.DirectMessage, error) {
	if in.Content != nil && in.Content.Type == models.ContentEmail {
		in.Channel = models.ChannelEmail
	}
	if in.ChatID != "" || in.ToProfileID != "" {
		prior, ok, err := uc.tracker.submitted(ctx, models.Submission{
			FrontID:       in.FrontID,
			FromProfileID: actor.ProfileID,
			ChatID:        in.ChatID,
			ToProfileID:   in.ToProfileID,
		})
		if err != nil {
			return nil, err
		}
		if ok {
			return prior, nil
		}
	}
	target, err := uc.resolver.ResolveDirect(ctx, actor, in.ChatID, in.ToProfileID)
	if err != nil {
		return nil, err
	}
	return uc.create(ctx, actor, target, in, "")
}

func (uc *messageUsecase) CreateMailMessage(ctx context.Context, actor models.Actor, in CreateMessageInput) (*models.DirectMessage, error) {
	if in.Content == nil || in.Content.Type != models.ContentEmail {
		return nil, models.NewInvalidArgument("mail messages require email content")
	}
	return uc.CreateMessage(ctx, actor, in)
}

func (uc *messageUsecase) CreateBroadcastCopy(ctx context.Context, src *models.BroadcastMessage, toProfileID string) (*models.DirectMessage, error) {
	actor := models.Actor{ProfileID: src.FromProfileID}
	prior, ok, err := uc.tracker.submitted(ctx, models.Submission{
		FrontID:       src.ID.String(),
		FromProfileID: actor.ProfileID,
		ToProfileID:   toProfileID,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		return prior, nil
	}
	target, err := uc.resolver.ResolveDirect(ctx, actor, "", toProfileID)
	if err != nil {
		return nil, err
	}
	var content *models.Content
	if src.Content != nil {
		c := *src.Content
		content = &c
	}
	return uc.create(ctx, actor, target, CreateMessageInput{
		FrontID: src.ID.String(),
		Channel: models.ChannelChat,
		Content: content,
	}, src.ID)
}

func (uc *messageUsecase) create(ctx context.Context, actor models.Actor, target *DirectTarget, in CreateMessageInput, broadcastMessageID models.ObjectID) (*models.DirectMessage, error) {
	channel, err := uc.content.channel(in.Channel, models.ChannelChat)
	if err != nil {
		return nil, err
	}
	if err := uc.content.prepare(ctx, in.Content); err != nil {
		return nil, err
	}
	from, to := actor.ProfileID, target.Recipient.ID

	var sessionID string
	last, err := uc.direct.LastBetween(ctx, from, to)
	switch {
	case err == nil:
		sessionID = last.SessionID
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("find last message: %w", err)
	}

	now := uc.now()
	msg := &models.DirectMessage{
		MessageBase: models.MessageBase{
			FrontID:              in.FrontID,
			ChatID:               target.ChatID,
			Channel:              channel,
			FromProfileID:        from,
			FromManagerProfileID: actor.ManagerID,
			Content:              in.Content,
			ReplyToMessageID:     uc.replyTo(ctx, target.ChatID, in.ReplyToMessageID),
			Lifecycle:            models.Lifecycle{IsForwarded: in.IsForwarded},
			ShowInDashboard:      true,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		ToProfileID:        to,
		SessionID:          sessionID,
		DeviceID:           in.DeviceID,
		BroadcastMessageID: broadcastMessageID,
	}
	stored, created, err := uc.direct.InsertIdempotent(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if !created {
		return stored, nil
	}

	// replying answers the counterpart's earlier messages
	managed, err := uc.direct.SetPreviousManaged(ctx, to, from, now, now)
	if err != nil {
		log.Warnw(ctx, "failed to set previous messages managed", "chat_id", target.ChatID, "error", err)
	}

	snapshot := *stored
	notify := !target.Recipient.IsBusiness
	uc.bg.Go(ctx, func(ctx context.Context) {
		if err := uc.index.Sync(ctx, &snapshot); err != nil {
			log.Warnw(ctx, "failed to sync message index", "message_id", snapshot.ID, "error", err)
		}
		uc.tracker.syncCascaded(ctx, snapshot.ID, managed)
		if notify {
			uc.sendNewMessage(ctx, &snapshot)
		}
		uc.fanout.Push(ctx, &snapshot)
	})
	return stored, nil
}

// replyTo keeps a reply reference only when it points into the same conversation.
func (uc *messageUsecase) replyTo(ctx context.Context, chatID, id string) models.ObjectID {
	if id == "" {
		return ""
	}
	reply, err := uc.direct.FindByID(ctx, id)
	if err != nil || reply.ChatID != chatID {
		return ""
	}
	return reply.ID
}

func (uc *messageUsecase) sendNewMessage(ctx context.Context, m *models.DirectMessage) {
	var preview string
	if c := m.Content.Truncate(140); c != nil {
		preview = c.Text
		if preview == "" {
			preview = c.Subject
		}
	}
	err := uc.notifier.NewMessage(ctx, notification.NewMessage{
		ToProfileID:   m.ToProfileID,
		FromProfileID: m.FromProfileID,
		ChatID:        m.ChatID,
		MessageID:     m.ID,
		Channel:       m.Channel,
		Preview:       preview,
	})
	if err != nil {
		log.Warnw(ctx, "failed to send new message notification", "message_id", m.ID, "error", err)
	}
}

func (uc *messageUsecase) CreateSystemMessage(ctx context.Context, toProfileID string, content *models.Content) (*models.DirectMessage, error) {
	if toProfileID == "" {
		return nil, models.NewInvalidArgument("to_profile_id is required")
	}
	if err := uc.content.prepare(ctx, content); err != nil {
		return nil, err
	}
	now := uc.now()
	msg := &models.DirectMessage{
		MessageBase: models.MessageBase{
			FrontID:         uuid.NewString(),
			ChatID:          models.PrefixSystem + toProfileID,
			Channel:         models.ChannelSystem,
			FromProfileID:   models.SystemProfileID,
			Content:         content,
			ShowInDashboard: true,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		ToProfileID: toProfileID,
	}
	stored, _, err := uc.direct.InsertIdempotent(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("insert system message: %w", err)
	}
	uc.tracker.publish(ctx, stored, nil)
	return stored, nil
}

func (uc *messageUsecase) GetMessage(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error) {
	m, err := uc.tracker.get(ctx, actor.ProfileID, id)
	if err != nil || m == nil {
		return nil, err
	}
	out, err := uc.window.present(ctx, []*models.DirectMessage{m})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (uc *messageUsecase) GetMessages(ctx context.Context, actor models.Actor, req WindowRequest) ([]*models.DirectMessage, error) {
	switch models.ChatKind(req.ChatID) {
	case models.PrefixRelation, models.PrefixSystem:
	default:
		return nil, nil
	}
	req.ProfileID = actor.ProfileID
	return uc.window.Read(ctx, req)
}

func (uc *messageUsecase) between(ctx context.Context, actor models.Actor, first bool, other string) (*models.DirectMessage, error) {
	find := uc.direct.LastBetween
	if first {
		find = uc.direct.FirstBetween
	}
	m, err := find(ctx, actor.ProfileID, other)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out, err := uc.window.present(ctx, []*models.DirectMessage{m})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (uc *messageUsecase) FirstMessage(ctx context.Context, actor models.Actor, otherProfileID string) (*models.DirectMessage, error) {
	return uc.between(ctx, actor, true, otherProfileID)
}

func (uc *messageUsecase) LastMessage(ctx context.Context, actor models.Actor, otherProfileID string) (*models.DirectMessage, error) {
	return uc.between(ctx, actor, false, otherProfileID)
}

func (uc *messageUsecase) Counts(ctx context.Context, actor models.Actor, chatID string) (*models.Counts, error) {
	out := &models.Counts{ChatID: chatID}
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		out.Unread, err = uc.docs.CountUnread(gctx, chatID, actor.ProfileID)
		return err
	})
	group.Go(func() error {
		var err error
		out.Unmanaged, err = uc.docs.CountUnmanaged(gctx, chatID, actor.ProfileID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	return out, nil
}

func (uc *messageUsecase) SearchMessages(ctx context.Context, actor models.Actor, in SearchInput) ([]*models.MessageDocument, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewInvalidArgument("search text is required")
	}
	limit := in.Limit
	if limit <= 0 || limit > uc.searchMax {
		limit = uc.searchMax
	}
	return uc.docs.Search(ctx, mongodb.SearchQuery{
		ProfileID: actor.ProfileID,
		ChatID:    in.ChatID,
		Text:      text,
		Limit:     limit,
	})
}

func (uc *messageUsecase) ViewMessage(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error) {
	m, cascaded, err := uc.tracker.view(ctx, actor.ProfileID, id)
	if err != nil || m == nil || len(cascaded) == 0 {
		return m, err
	}
	uc.tracker.publish(ctx, m, cascaded)
	uc.bg.Go(ctx, func(ctx context.Context) {
		if err := uc.notifier.Archive(ctx, notification.Archive{ProfileID: actor.ProfileID, ChatID: m.ChatID}); err != nil {
			log.Warnw(ctx, "failed to archive notifications", "chat_id", m.ChatID, "error", err)
		}
		viewed, err := uc.direct.FindByIDs(ctx, cascaded)
		if err != nil {
			log.Warnw(ctx, "failed to load viewed messages", "error", err)
			return
		}
		for _, v := range viewed {
			if v.BroadcastMessageID == "" || v.ViewedAt == nil {
				continue
			}
			uc.foldIntoBroadcast(ctx, v.BroadcastMessageID, func(id models.ObjectID) (*models.BroadcastMessage, error) {
				return uc.broadcasts.AddView(ctx, id, models.View{ProfileID: actor.ProfileID, Time: *v.ViewedAt})
			})
		}
	})
	return m, nil
}

func (uc *messageUsecase) ClickMessage(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (*models.DirectMessage, error) {
	m, changed, err := uc.tracker.click(ctx, actor.ProfileID, id, clickType, value)
	if err != nil || !changed {
		return m, err
	}
	uc.tracker.publish(ctx, m, nil)
	if m.BroadcastMessageID != "" {
		click := m.Clicks[len(m.Clicks)-1]
		uc.bg.Go(ctx, func(ctx context.Context) {
			uc.foldIntoBroadcast(ctx, m.BroadcastMessageID, func(id models.ObjectID) (*models.BroadcastMessage, error) {
				return uc.broadcasts.AddClick(ctx, id, click)
			})
		})
	}
	return m, nil
}

func (uc *messageUsecase) ReactMessage(ctx context.Context, actor models.Actor, id, reactionID string) (*models.DirectMessage, error) {
	m, changed, err := uc.tracker.react(ctx, actor.ProfileID, id, reactionID)
	if err != nil || !changed {
		return m, err
	}

	var managed []models.ObjectID
	profile, err := uc.identity.GetProfile(ctx, actor.ProfileID)
	if err != nil {
		log.Warnw(ctx, "failed to get reacting profile", "profile_id", actor.ProfileID, "error", err)
	}
	if profile != nil && profile.IsBusiness {
		now := uc.now()
		if updated, err := uc.direct.SetManaged(ctx, m.ID, now); err == nil {
			m = updated
		}
		managed, err = uc.direct.SetPreviousManaged(ctx, m.FromProfileID, actor.ProfileID, m.CreatedAt, now)
		if err != nil {
			log.Warnw(ctx, "failed to set previous messages managed", "message_id", m.ID, "error", err)
		}
	}

	uc.tracker.publish(ctx, m, managed)
	if m.BroadcastMessageID != "" {
		reaction := models.Reaction{ProfileID: actor.ProfileID, ReactionID: reactionID, Time: uc.now()}
		uc.bg.Go(ctx, func(ctx context.Context) {
			uc.foldIntoBroadcast(ctx, m.BroadcastMessageID, func(id models.ObjectID) (*models.BroadcastMessage, error) {
				return uc.broadcasts.AddReaction(ctx, id, reaction)
			})
		})
	}
	return m, nil
}

func (uc *messageUsecase) DeleteMessageReaction(ctx context.Context, actor models.Actor, id, reactionID string) (*models.DirectMessage, error) {
	m, changed, err := uc.tracker.unreact(ctx, actor.ProfileID, id, reactionID)
	if err != nil || !changed {
		return m, err
	}
	uc.tracker.publish(ctx, m, nil)
	if m.BroadcastMessageID != "" {
		uc.bg.Go(ctx, func(ctx context.Context) {
			uc.foldIntoBroadcast(ctx, m.BroadcastMessageID, func(id models.ObjectID) (*models.BroadcastMessage, error) {
				return uc.broadcasts.RemoveReaction(ctx, id, actor.ProfileID, reactionID, uc.now())
			})
		})
	}
	return m, nil
}

func (uc *messageUsecase) DeleteMessage(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error) {
	m, err := uc.tracker.remove(ctx, actor.ProfileID, id)
	if err != nil || m == nil {
		return nil, err
	}
	uc.tracker.publish(ctx, m, nil)
	return m, nil
}

func (uc *messageUsecase) HideInDashboard(ctx context.Context, actor models.Actor, id string) (*models.DirectMessage, error) {
	oid := models.ObjectID(id)
	if !oid.IsValid() {
		return nil, nil
	}
	m, err := uc.direct.HideInDashboard(ctx, oid, actor.ProfileID, uc.now())
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hide in dashboard: %w", err)
	}
	uc.bg.Go(ctx, func(ctx context.Context) {
		if err := uc.index.SyncDocuments(ctx, m); err != nil {
			log.Warnw(ctx, "failed to index hidden message", "message_id", m.ID, "error", err)
		}
	})
	return m, nil
}

// foldIntoBroadcast applies a copy's transition to its broadcast message.
// Already folded entries are skipped.
func (uc *messageUsecase) foldIntoBroadcast(ctx context.Context, id models.ObjectID, apply func(models.ObjectID) (*models.BroadcastMessage, error)) {
	b, err := apply(id)
	if errors.Is(err, models.ErrNotFound) {
		return
	}
	if err != nil {
		log.Warnw(ctx, "failed to fold into broadcast message", "broadcast_message_id", id, "error", err)
		return
	}
	if err := uc.index.SyncDocuments(ctx, b); err != nil {
		log.Warnw(ctx, "failed to index broadcast message", "broadcast_message_id", id, "error", err)
	}
}
