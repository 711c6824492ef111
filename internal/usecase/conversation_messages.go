package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
)

// conversationMessages runs the lifecycle transitions of group and broadcast
// messages, publishing each effective change.
type conversationMessages[M storedMessage] struct {
	tracker *lifecycleTracker[M]
	window  *windowReader[M]
	prefix  string
}

func (c *conversationMessages[M]) read(ctx context.Context, actor models.Actor, req WindowRequest) ([]M, error) {
	if models.ChatKind(req.ChatID) != c.prefix {
		return nil, nil
	}
	req.ProfileID = actor.ProfileID
	return c.window.Read(ctx, req)
}

func (c *conversationMessages[M]) get(ctx context.Context, actor models.Actor, id string) (M, error) {
	m, err := c.tracker.get(ctx, actor.ProfileID, id)
	if err != nil || isMissing(m) {
		return m, err
	}
	out, err := c.window.present(ctx, []M{m})
	if err != nil {
		var zero M
		return zero, err
	}
	return out[0], nil
}

func (c *conversationMessages[M]) view(ctx context.Context, actor models.Actor, id string) (M, error) {
	m, cascaded, err := c.tracker.view(ctx, actor.ProfileID, id)
	if err == nil && len(cascaded) > 0 {
		c.tracker.publish(ctx, m, cascaded)
	}
	return m, err
}

func (c *conversationMessages[M]) click(ctx context.Context, actor models.Actor, id string, clickType models.ClickType, value string) (M, error) {
	m, changed, err := c.tracker.click(ctx, actor.ProfileID, id, clickType, value)
	if changed {
		c.tracker.publish(ctx, m, nil)
	}
	return m, err
}

func (c *conversationMessages[M]) react(ctx context.Context, actor models.Actor, id, reactionID string) (M, error) {
	m, changed, err := c.tracker.react(ctx, actor.ProfileID, id, reactionID)
	if changed {
		c.tracker.publish(ctx, m, nil)
	}
	return m, err
}

func (c *conversationMessages[M]) unreact(ctx context.Context, actor models.Actor, id, reactionID string) (M, error) {
	m, changed, err := c.tracker.unreact(ctx, actor.ProfileID, id, reactionID)
	if changed {
		c.tracker.publish(ctx, m, nil)
	}
	return m, err
}

func (c *conversationMessages[M]) remove(ctx context.Context, actor models.Actor, id string) (M, error) {
	m, err := c.tracker.remove(ctx, actor.ProfileID, id)
	if err == nil && !isMissing(m) {
		c.tracker.publish(ctx, m, nil)
	}
	return m, err
}
