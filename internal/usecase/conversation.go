package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationInput struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Description string         `json:"description" validate:"max=2000"`
	Avatar      string         `json:"avatar"`
	Filter      map[string]any `json:"filter"`
	ManagedBy   string         `json:"managed_by"`
}

type MemberStatusInput struct {
	ProfileID string              `json:"profile_id" validate:"required"`
	Status    models.MemberStatus `json:"status" validate:"required,oneof=active suspended archived"`
}

// conversationManager keeps groups and broadcasts with their members and
// summaries. Mutations by anyone but the owner return a zero entity.
type conversationManager[E models.ConversationEntity] struct {
	repo      mongodb.ConversationRepository[E]
	summaries mongodb.SummaryRepository
	identity  identity.Client
	now       func() time.Time
}

func (c *conversationManager[E]) load(ctx context.Context, chatID string) (E, bool, error) {
	e, err := c.repo.FindByChatID(ctx, chatID)
	if errors.Is(err, models.ErrNotFound) {
		var zero E
		return zero, false, nil
	}
	if err != nil {
		var zero E
		return zero, false, fmt.Errorf("find conversation: %w", err)
	}
	return e, true, nil
}

// members resolves the filter into profile ids. The owner is always part of
// the filtered profiles.
func (c *conversationManager[E]) members(ctx context.Context, ownerID string, filter map[string]any) ([]string, error) {
	query := make(map[string]any, len(filter)+1)
	for k, v := range filter {
		query[k] = v
	}
	profiles := []any{ownerID}
	switch list := filter["profiles"].(type) {
	case []any:
		profiles = append(profiles, list...)
	case primitive.A:
		profiles = append(profiles, list...)
	case []string:
		for _, id := range list {
			profiles = append(profiles, id)
		}
	}
	query["profiles"] = profiles

	found, err := c.identity.GetProfilesFiltered(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get filtered profiles: %w", err)
	}
	ids := make([]string, 0, len(found))
	for _, p := range found {
		if p.ID != ownerID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (c *conversationManager[E]) create(ctx context.Context, actor models.Actor, e E, in ConversationInput) (E, error) {
	var zero E
	conv := e.Base()
	conv.OwnerID = actor.ProfileID
	conv.Name = in.Name
	conv.Description = in.Description
	conv.Avatar = in.Avatar
	conv.Filter = in.Filter
	resolved, err := c.members(ctx, actor.ProfileID, in.Filter)
	if err != nil {
		return zero, err
	}
	conv.SyncMembers(resolved)

	created, err := c.repo.Create(ctx, e)
	if err != nil {
		return zero, err
	}
	c.sync(ctx, created)
	return created, nil
}

func (c *conversationManager[E]) update(ctx context.Context, actor models.Actor, chatID string, in ConversationInput, apply func(E)) (E, error) {
	var zero E
	e, ok, err := c.load(ctx, chatID)
	if err != nil || !ok || e.Base().OwnerID != actor.ProfileID {
		return zero, err
	}
	conv := e.Base()
	conv.Name = in.Name
	conv.Description = in.Description
	conv.Avatar = in.Avatar
	if in.Filter != nil {
		conv.Filter = in.Filter
	}
	if apply != nil {
		apply(e)
	}
	resolved, err := c.members(ctx, conv.OwnerID, conv.Filter)
	if err != nil {
		return zero, err
	}
	conv.SyncMembers(resolved)

	updated, err := c.repo.Update(ctx, e)
	if err != nil {
		return zero, fmt.Errorf("update conversation: %w", err)
	}
	c.sync(ctx, updated)
	return updated, nil
}

func (c *conversationManager[E]) remove(ctx context.Context, actor models.Actor, chatID string) (E, error) {
	var zero E
	e, ok, err := c.load(ctx, chatID)
	if err != nil || !ok || e.Base().OwnerID != actor.ProfileID {
		return zero, err
	}
	if err := c.repo.Delete(ctx, e.GetObjectID().String()); err != nil {
		return zero, fmt.Errorf("delete conversation: %w", err)
	}
	if err := c.summaries.Delete(ctx, chatID); err != nil {
		log.Warnw(ctx, "failed to delete conversation summary", "chat_id", chatID, "error", err)
	}
	return e, nil
}

func (c *conversationManager[E]) get(ctx context.Context, actor models.Actor, chatID string) (E, error) {
	var zero E
	e, ok, err := c.load(ctx, chatID)
	if err != nil || !ok || !e.Base().IsParticipant(actor.ProfileID) {
		return zero, err
	}
	return e, nil
}

func (c *conversationManager[E]) list(ctx context.Context, actor models.Actor, limit, skip int64) (*mongodb.PaginateWithTotal[E], error) {
	return c.repo.ListByParticipant(ctx, actor.ProfileID, limit, skip)
}

func (c *conversationManager[E]) changeMemberStatus(ctx context.Context, actor models.Actor, chatID string, in MemberStatusInput) (E, error) {
	var zero E
	e, ok, err := c.load(ctx, chatID)
	if err != nil || !ok || e.Base().OwnerID != actor.ProfileID {
		return zero, err
	}
	if in.ProfileID == e.Base().OwnerID {
		return zero, models.NewInvalidArgument("the owner's membership cannot change")
	}
	updated, err := c.repo.SetMemberStatus(ctx, e.GetObjectID(), in.ProfileID, in.Status, c.now())
	if errors.Is(err, models.ErrNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("set member status: %w", err)
	}
	c.sync(ctx, updated)
	return updated, nil
}

// sync writes the descriptive summary of e. Failures are logged, the
// conversation itself is already stored.
func (c *conversationManager[E]) sync(ctx context.Context, e E) {
	if err := c.summaries.Upsert(ctx, conversationSummary(e)); err != nil {
		log.Warnw(ctx, "failed to sync conversation summary", "chat_id", e.Base().ChatID, "error", err)
	}
}

func conversationSummary(e models.ConversationEntity) *models.ConversationSummary {
	conv := e.Base()
	s := &models.ConversationSummary{
		ID:             conv.ChatID,
		Type:           string(e.Variant()),
		OwnerID:        conv.OwnerID,
		Name:           conv.Name,
		Members:        conv.Members,
		ParticipantIDs: util.Unique(append([]string{conv.OwnerID}, conv.ActiveMembers()...)),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}
	if b, ok := e.(*models.Broadcast); ok {
		s.ManagedBy = b.ManagedBy
	}
	return s
}
