package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/identity"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
)

// DirectTarget is a resolved direct conversation.
type DirectTarget struct {
	ChatID    string
	Sender    *models.Profile
	Recipient *models.Profile
	Relation  *models.Relation
}

type RecipientResolver interface {
	// ResolveDirect finds the counterpart through chatID, or through
	// toProfileID when chatID is empty, linking a new conversation if needed.
	ResolveDirect(ctx context.Context, actor models.Actor, chatID, toProfileID string) (*DirectTarget, error)
	ResolveGroup(ctx context.Context, actor models.Actor, g *models.Group) ([]string, error)
	ResolveBroadcast(ctx context.Context, actor models.Actor, b *models.Broadcast) ([]string, error)
}

type recipientResolver struct {
	identity  identity.Client
	summaries mongodb.SummaryRepository
}

func NewRecipientResolver(
	identityClient identity.Client,
	summaries mongodb.SummaryRepository,
) RecipientResolver {
	return &recipientResolver{identity: identityClient, summaries: summaries}
}

func (r *recipientResolver) ResolveDirect(ctx context.Context, actor models.Actor, chatID, toProfileID string) (*DirectTarget, error) {
	from := actor.ProfileID
	var relationID string
	var linked bool

	switch {
	case chatID != "":
		if !strings.HasPrefix(chatID, models.PrefixRelation) {
			return nil, models.NewInvalidArgument("chat %s is not a direct conversation", chatID)
		}
		relationID = strings.TrimPrefix(chatID, models.PrefixRelation)
		summary, err := r.summaries.FindByID(ctx, chatID)
		switch {
		case err == nil:
			if !summary.HasSide(from) {
				return nil, models.ErrPermissionDenied
			}
			linked = true
			toProfileID = summary.Counterpart(from)
		case !errors.Is(err, models.ErrNotFound):
			return nil, fmt.Errorf("find summary: %w", err)
		}
	case toProfileID != "":
		summary, err := r.summaries.FindByParticipants(ctx, from, toProfileID)
		switch {
		case err == nil:
			linked = true
			relationID = strings.TrimPrefix(summary.ID, models.PrefixRelation)
		case !errors.Is(err, models.ErrNotFound):
			return nil, fmt.Errorf("find summary by participants: %w", err)
		}
	default:
		return nil, models.NewInvalidArgument("chat_id or to_profile_id is required")
	}

	var relation *models.Relation
	var err error
	if relationID != "" {
		relation, err = r.identity.GetRelation(ctx, relationID)
	} else {
		var relations []*models.Relation
		relations, err = r.identity.GetRelations(ctx, from, []string{toProfileID})
		if len(relations) > 0 {
			relation = relations[0]
		}
	}
	if err != nil {
		return nil, fmt.Errorf("get relation: %w", err)
	}
	if relation == nil || relation.IsSelf() || !relation.Status.Usable() {
		return nil, models.ErrAccountInactive
	}
	if toProfileID == "" {
		toProfileID = relation.Other(from)
	}
	if relation.Other(from) != toProfileID || (relation.FromProfileID != from && relation.ToProfileID != from) {
		return nil, models.ErrPermissionDenied
	}

	profiles, err := r.profilesByID(ctx, []string{from, toProfileID})
	if err != nil {
		return nil, err
	}
	sender, recipient := profiles[from], profiles[toProfileID]
	if sender == nil || !sender.Status.Usable() {
		return nil, models.ErrAccountInactive
	}
	if recipient == nil || !recipient.Status.Usable() {
		return nil, models.ErrAccountInactive
	}

	target := &DirectTarget{
		ChatID:    relation.ChatID(),
		Sender:    sender,
		Recipient: recipient,
		Relation:  relation,
	}
	if !linked {
		if err := r.summaries.Upsert(ctx, relationSummary(relation, profiles, nil, nil)); err != nil {
			log.Warnw(ctx, "failed to link conversation", "chat_id", target.ChatID, "error", err)
		}
	}
	return target, nil
}

// relationSummary builds the descriptive part of a direct conversation summary.
func relationSummary(rel *models.Relation, profiles map[string]*models.Profile, first, last *models.MessageDocument) *models.ConversationSummary {
	s := &models.ConversationSummary{
		ID:             rel.ChatID(),
		Type:           models.SummaryType(rel.ChatID()),
		LeftProfile:    profiles[rel.FromProfileID].Snapshot(),
		RightProfile:   profiles[rel.ToProfileID].Snapshot(),
		FirstMessage:   first,
		LastMessage:    last,
		ParticipantIDs: []string{rel.FromProfileID, rel.ToProfileID},
		UpdatedAt:      time.Now(),
	}
	if s.LeftProfile == nil {
		s.LeftProfile = &models.ProfileSnapshot{ID: rel.FromProfileID}
	}
	if s.RightProfile == nil {
		s.RightProfile = &models.ProfileSnapshot{ID: rel.ToProfileID}
	}
	if last != nil {
		s.UpdatedAt = last.CreatedAt
	}
	return s
}

func (r *recipientResolver) profilesByID(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	profiles, err := r.identity.GetProfiles(ctx, util.Unique(ids))
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	out := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// guardSender fails fast when the acting profile may not send.
func (r *recipientResolver) guardSender(ctx context.Context, profileID string) error {
	sender, err := r.identity.GetProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get sender profile: %w", err)
	}
	if sender == nil || !sender.Status.Usable() {
		return models.ErrAccountInactive
	}
	return nil
}

// filterActiveProfiles keeps candidates whose identity status is usable.
func (r *recipientResolver) filterActiveProfiles(ctx context.Context, candidates []string) ([]string, error) {
	profiles, err := r.profilesByID(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return util.Filter(candidates, func(id string) bool {
		p := profiles[id]
		return p != nil && p.Status.Usable()
	}), nil
}

// filterActiveRelations keeps candidates holding a usable relation with ownerID.
func (r *recipientResolver) filterActiveRelations(ctx context.Context, ownerID string, candidates []string) ([]string, error) {
	relations, err := r.identity.GetRelations(ctx, ownerID, candidates)
	if err != nil {
		return nil, fmt.Errorf("get relations: %w", err)
	}
	related := map[string]bool{}
	for _, rel := range relations {
		if rel.Status.Usable() && !rel.IsSelf() && (rel.FromProfileID == ownerID || rel.ToProfileID == ownerID) {
			related[rel.Other(ownerID)] = true
		}
	}
	return util.Filter(candidates, func(id string) bool { return related[id] }), nil
}

// resolveMembers runs candidates through the identity and relation filters
// and appends the owner.
func (r *recipientResolver) resolveMembers(ctx context.Context, actor models.Actor, ownerID string, candidates []string) ([]string, error) {
	if err := r.guardSender(ctx, actor.ProfileID); err != nil {
		return nil, err
	}
	candidates = util.Filter(util.Unique(candidates), func(id string) bool { return id != ownerID })
	if len(candidates) == 0 {
		return nil, models.ErrNoEligibleRecipients
	}

	active, err := r.filterActiveProfiles(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, models.ErrNoEligibleRecipients
	}
	related, err := r.filterActiveRelations(ctx, ownerID, active)
	if err != nil {
		return nil, err
	}
	if len(related) == 0 {
		return nil, models.ErrNoEligibleRecipients
	}
	return append(related, ownerID), nil
}

func (r *recipientResolver) ResolveGroup(ctx context.Context, actor models.Actor, g *models.Group) ([]string, error) {
	return r.resolveMembers(ctx, actor, g.OwnerID, g.ActiveMembers())
}

func (r *recipientResolver) ResolveBroadcast(ctx context.Context, actor models.Actor, b *models.Broadcast) ([]string, error) {
	candidates := b.ActiveMembers()
	if actor.Scoped(b.ManagedBy) {
		assigned, err := r.identity.GetAssignedProfiles(ctx, actor.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("get assigned profiles: %w", err)
		}
		candidates = append(candidates, assigned...)
	}
	return r.resolveMembers(ctx, actor, b.OwnerID, candidates)
}
