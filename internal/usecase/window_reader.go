package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/chat-engine/pkg/util"
	"golang.org/x/sync/errgroup"
)

// storedMessage is a pointer to a stored message variant.
type storedMessage interface {
	comparable
	models.Message
}

func isMissing[M storedMessage](m M) bool {
	var zero M
	return m == zero
}

// WindowRequest selects one page of a conversation. At most one anchor is honored,
// in the order SearchedMessageID, ToMessageID, FromMessageID.
type WindowRequest struct {
	ChatID    string `query:"chat_id" param:"chat_id" validate:"required,chatid"`
	ProfileID string `query:"-" json:"-"`
	Limit     int    `query:"limit"`
	// oldest-before anchor
	ToMessageID string `query:"to_message_id"`
	// latest-after anchor
	FromMessageID     string `query:"from_message_id"`
	SearchedMessageID string `query:"searched_message_id"`
}

type windowReader[M storedMessage] struct {
	repo         mongodb.MessageRepository[M]
	index        IndexSynchronizer
	bg           util.Background
	truncateLen  int
	defaultLimit int
	maxLimit     int
	// deliver marks fetched inbound messages delivered
	deliver bool
}

func (w *windowReader[M]) limit(n int) int {
	if n <= 0 {
		return w.defaultLimit
	}
	if w.maxLimit > 0 && n > w.maxLimit {
		return w.maxLimit
	}
	return n
}

// anchor returns the anchor message when it belongs to the conversation.
func (w *windowReader[M]) anchor(ctx context.Context, chatID, id string) (M, error) {
	var zero M
	if id == "" {
		return zero, nil
	}
	m, err := w.repo.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("find anchor: %w", err)
	}
	if m.GetBase().ChatID != chatID {
		return zero, nil
	}
	return m, nil
}

func (w *windowReader[M]) Read(ctx context.Context, req WindowRequest) ([]M, error) {
	limit := w.limit(req.Limit)
	q := mongodb.WindowQuery{ChatID: req.ChatID, ProfileID: req.ProfileID, Limit: limit}

	var msgs []M
	var err error
	switch {
	case req.SearchedMessageID != "":
		anchor, aerr := w.anchor(ctx, req.ChatID, req.SearchedMessageID)
		if aerr != nil {
			return nil, aerr
		}
		if isMissing(anchor) {
			msgs, err = w.repo.Window(ctx, q)
			break
		}
		msgs, err = w.searched(ctx, q, anchor.GetBase().CreatedAt)
		if err != nil {
			return nil, err
		}
		return w.present(ctx, msgs)
	case req.ToMessageID != "":
		anchor, aerr := w.anchor(ctx, req.ChatID, req.ToMessageID)
		if aerr != nil {
			return nil, aerr
		}
		if !isMissing(anchor) {
			q.Before = &anchor.GetBase().CreatedAt
		}
		msgs, err = w.repo.Window(ctx, q)
	case req.FromMessageID != "":
		anchor, aerr := w.anchor(ctx, req.ChatID, req.FromMessageID)
		if aerr != nil {
			return nil, aerr
		}
		if !isMissing(anchor) {
			q.After = &anchor.GetBase().CreatedAt
			q.Ascending = true
		}
		msgs, err = w.repo.Window(ctx, q)
		sortNewestFirst(msgs)
	default:
		msgs, err = w.repo.Window(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	msgs, err = w.present(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if w.deliver {
		w.markDelivered(ctx, req.ProfileID, msgs)
	}
	return msgs, nil
}

// searched unions the messages around the anchor time: the older half
// includes the anchor, the newer half starts at it.
func (w *windowReader[M]) searched(ctx context.Context, q mongodb.WindowQuery, at time.Time) ([]M, error) {
	older, newer := q, q
	older.Before, older.Limit = &at, q.Limit/2+1
	newer.After, newer.Limit, newer.Ascending = &at, (q.Limit+1)/2, true

	var olderMsgs, newerMsgs []M
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		olderMsgs, err = w.repo.Window(gctx, older)
		return err
	})
	group.Go(func() error {
		var err error
		newerMsgs, err = w.repo.Window(gctx, newer)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("read searched window: %w", err)
	}

	seen := make(map[models.ObjectID]bool, len(olderMsgs)+len(newerMsgs))
	out := make([]M, 0, len(olderMsgs)+len(newerMsgs))
	for _, m := range append(olderMsgs, newerMsgs...) {
		id := m.GetObjectID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, m)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst[M models.Message](msgs []M) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i].GetBase(), msgs[j].GetBase()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func (w *windowReader[M]) markDelivered(ctx context.Context, profileID string, msgs []M) {
	var pending []M
	for _, m := range msgs {
		b := m.GetBase()
		if !b.IsDelivered && b.FromProfileID != profileID && util.SliceIncludes(m.Recipients(), profileID) {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return
	}
	now := time.Now()
	ids := util.ConvertList(pending, func(m M) models.ObjectID { return m.GetObjectID() })
	if _, err := w.repo.MarkDelivered(ctx, profileID, ids, now); err != nil {
		log.Warnw(ctx, "failed to mark window delivered", "count", len(ids), "error", err)
		return
	}
	indexed := make([]models.Message, len(pending))
	for i, m := range pending {
		b := m.GetBase()
		b.IsDelivered = true
		b.DeliveredAt = &now
		indexed[i] = m
	}
	w.bg.Go(ctx, func(ctx context.Context) {
		if err := w.index.SyncDocuments(ctx, indexed...); err != nil {
			log.Warnw(ctx, "failed to index delivered messages", "error", err)
		}
	})
}

// present applies the read transform: truncated text, resolved and reduced
// replies, nulled content of deleted messages.
func (w *windowReader[M]) present(ctx context.Context, msgs []M) ([]M, error) {
	var replyIDs []models.ObjectID
	for _, m := range msgs {
		if id := m.GetBase().ReplyToMessageID; id != "" {
			replyIDs = append(replyIDs, id)
		}
	}
	replies := map[models.ObjectID]*models.MessageBase{}
	if len(replyIDs) > 0 {
		found, err := w.repo.FindByIDs(ctx, util.Unique(replyIDs))
		if err != nil {
			return nil, fmt.Errorf("find replies: %w", err)
		}
		for _, r := range found {
			replies[r.GetObjectID()] = r.GetBase()
		}
	}
	for _, m := range msgs {
		presentBase(m.GetBase(), replies, w.truncateLen)
	}
	return msgs, nil
}

func presentBase(b *models.MessageBase, replies map[models.ObjectID]*models.MessageBase, n int) {
	if b.IsDeleted {
		b.Content = nil
	} else {
		b.Content = b.Content.Truncate(n)
	}
	b.ReplyToMessage = nil
	if r, ok := replies[b.ReplyToMessageID]; ok {
		reduced := *r
		reduced.ReplyToMessage = nil
		if reduced.IsDeleted {
			reduced.Content = nil
		} else {
			reduced.Content = reduced.Content.Truncate(n)
		}
		reduced.Views, reduced.Clicks, reduced.Reactions = nil, nil, nil
		b.ReplyToMessage = &reduced
	}
}
