package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
)

// lifecycleTracker applies the per-message transitions shared by every
// variant. Each method returns a nil message when the target is missing or
// the actor may not perform the transition.
type lifecycleTracker[M storedMessage] struct {
	repo    mongodb.MessageRepository[M]
	index   IndexSynchronizer
	fanout  FanoutDispatcher
	bg      util.Background
	catalog *models.Catalog
	now     func() time.Time
}

func (t *lifecycleTracker[M]) load(ctx context.Context, id string) (M, error) {
	m, err := t.repo.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		var zero M
		return zero, nil
	}
	return m, err
}

// submitted returns the message already stored for a resubmitted front id.
// It runs before any resolution so a retry sees the original outcome.
func (t *lifecycleTracker[M]) submitted(ctx context.Context, sub models.Submission) (M, bool, error) {
	m, err := t.repo.FindSubmitted(ctx, sub)
	switch {
	case err == nil:
		return m, true, nil
	case errors.Is(err, models.ErrNotFound):
		return m, false, nil
	}
	return m, false, fmt.Errorf("find submitted message: %w", err)
}

// isRecipient reports whether profileID is addressed by m and is not its sender.
func isRecipient(m models.Message, profileID string) bool {
	return m.GetBase().FromProfileID != profileID && util.SliceIncludes(m.Recipients(), profileID)
}

func isParticipant(m models.Message, profileID string) bool {
	return m.GetBase().FromProfileID == profileID || util.SliceIncludes(m.Recipients(), profileID)
}

// publish runs the post-persist side effects of m: rollup, cascaded
// documents and push of every changed message.
func (t *lifecycleTracker[M]) publish(ctx context.Context, m M, cascaded []models.ObjectID) {
	t.bg.Go(ctx, func(ctx context.Context) {
		if err := t.index.Sync(ctx, m); err != nil {
			log.Warnw(ctx, "failed to sync message index", "message_id", m.GetObjectID(), "error", err)
		}
		t.syncCascaded(ctx, m.GetObjectID(), cascaded)
		t.fanout.Push(ctx, m)
	})
}

func (t *lifecycleTracker[M]) syncCascaded(ctx context.Context, self models.ObjectID, ids []models.ObjectID) {
	ids = util.Filter(ids, func(id models.ObjectID) bool { return id != self })
	if len(ids) == 0 {
		return
	}
	found, err := t.repo.FindByIDs(ctx, ids)
	if err != nil {
		log.Warnw(ctx, "failed to load cascaded messages", "count", len(ids), "error", err)
		return
	}
	msgs := util.ConvertList(found, func(m M) models.Message { return m })
	if err := t.index.SyncDocuments(ctx, msgs...); err != nil {
		log.Warnw(ctx, "failed to index cascaded messages", "count", len(ids), "error", err)
	}
	for _, m := range msgs {
		t.fanout.Push(ctx, m)
	}
}

func (t *lifecycleTracker[M]) get(ctx context.Context, profileID, id string) (M, error) {
	var zero M
	m, err := t.load(ctx, id)
	if err != nil || isMissing(m) {
		return zero, err
	}
	if !isParticipant(m, profileID) {
		return zero, nil
	}
	return m, nil
}

// view marks m viewed by profileID, cascading over earlier unviewed
// messages addressed to profileID in the conversation.
func (t *lifecycleTracker[M]) view(ctx context.Context, profileID, id string) (M, []models.ObjectID, error) {
	var zero M
	m, err := t.load(ctx, id)
	if err != nil || isMissing(m) || !isRecipient(m, profileID) {
		return zero, nil, err
	}
	ids, err := t.repo.MarkViewed(ctx, m, profileID, t.now())
	if err != nil {
		return zero, nil, fmt.Errorf("mark viewed: %w", err)
	}
	if len(ids) == 0 {
		return m, nil, nil
	}
	updated, err := t.repo.FindByID(ctx, id)
	if err != nil {
		return zero, nil, fmt.Errorf("reload viewed message: %w", err)
	}
	return updated, ids, nil
}

func (t *lifecycleTracker[M]) react(ctx context.Context, profileID, id, reactionID string) (M, bool, error) {
	var zero M
	if _, ok := t.catalog.Reaction(reactionID); !ok {
		return zero, false, models.NewInvalidArgument("unknown reaction %q", reactionID)
	}
	m, err := t.load(ctx, id)
	if err != nil || isMissing(m) || !isRecipient(m, profileID) {
		return zero, false, err
	}
	updated, err := t.repo.AddReaction(ctx, m.GetObjectID(), models.Reaction{
		ProfileID:  profileID,
		ReactionID: reactionID,
		Time:       t.now(),
	})
	if errors.Is(err, models.ErrNotFound) {
		return m, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("add reaction: %w", err)
	}
	return updated, true, nil
}

func (t *lifecycleTracker[M]) unreact(ctx context.Context, profileID, id, reactionID string) (M, bool, error) {
	var zero M
	m, err := t.load(ctx, id)
	if err != nil || isMissing(m) || !isRecipient(m, profileID) {
		return zero, false, err
	}
	updated, err := t.repo.RemoveReaction(ctx, m.GetObjectID(), profileID, reactionID, t.now())
	if errors.Is(err, models.ErrNotFound) {
		return m, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("remove reaction: %w", err)
	}
	return updated, true, nil
}

func (t *lifecycleTracker[M]) click(ctx context.Context, profileID, id string, clickType models.ClickType, value string) (M, bool, error) {
	var zero M
	if !t.catalog.HasClickType(clickType) {
		return zero, false, models.NewInvalidArgument("unknown click type %q", clickType)
	}
	if clickType == models.ClickLink && value == "" {
		return zero, false, models.NewInvalidArgument("link click requires a value")
	}
	m, err := t.load(ctx, id)
	if err != nil || isMissing(m) || !isRecipient(m, profileID) {
		return zero, false, err
	}
	click := models.Click{ProfileID: profileID, Type: clickType, Time: t.now()}
	if clickType == models.ClickLink {
		click.Value = value
	}
	updated, err := t.repo.AddClick(ctx, m.GetObjectID(), click)
	if errors.Is(err, models.ErrNotFound) {
		return m, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("add click: %w", err)
	}
	return updated, true, nil
}

// remove deletes m for its sender while it is still unviewed.
func (t *lifecycleTracker[M]) remove(ctx context.Context, profileID, id string) (M, error) {
	var zero M
	m, err := t.load(ctx, id)
	if err != nil || isMissing(m) {
		return zero, err
	}
	b := m.GetBase()
	if b.FromProfileID != profileID || b.IsViewed || b.IsDeleted {
		return zero, nil
	}
	updated, err := t.repo.MarkDeleted(ctx, m.GetObjectID(), profileID, t.now())
	if errors.Is(err, models.ErrNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("mark deleted: %w", err)
	}
	return updated, nil
}
