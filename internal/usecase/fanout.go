package usecase

import (
	"context"
	"time"

	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/socket"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
)

// FanoutDispatcher pushes message snapshots to their recipients.
type FanoutDispatcher interface {
	// Push is best effort: failures are logged, never returned.
	Push(ctx context.Context, m models.Message)
}

type fanoutDispatcher struct {
	socket socket.Client
	direct mongodb.DirectMessageRepository
	index  IndexSynchronizer
}

func NewFanoutDispatcher(s socket.Client, direct mongodb.DirectMessageRepository, index IndexSynchronizer) FanoutDispatcher {
	return &fanoutDispatcher{socket: s, direct: direct, index: index}
}

func moduleOf(v models.Variant) string {
	switch v {
	case models.VariantGroup:
		return socket.ModuleGroupMessage
	case models.VariantBroadcast:
		return socket.ModuleBroadcastMessage
	default:
		return socket.ModuleMessage
	}
}

// pushTargets is the recipient snapshot plus the sender, without duplicates.
func pushTargets(m models.Message) []string {
	targets := append([]string(nil), m.Recipients()...)
	from := m.GetBase().FromProfileID
	for _, id := range targets {
		if id == from {
			return targets
		}
	}
	if from == models.SystemProfileID {
		return targets
	}
	return append(targets, from)
}

func (d *fanoutDispatcher) Push(ctx context.Context, m models.Message) {
	b := m.GetBase()
	event := socket.Event{
		Service: socket.ServiceChat,
		Module:  moduleOf(m.Variant()),
		Action:  socket.ActionSetMessage,
		Payload: map[string]any{
			"data": map[string]any{
				"profile_id": b.FromProfileID,
				"message":    reduceForPush(m),
			},
		},
	}
	acks, err := d.socket.Send(ctx, pushTargets(m), event)
	if err != nil {
		log.Warnw(ctx, "failed to push message", "message_id", b.ID, "chat_id", b.ChatID, "error", err)
		return
	}

	direct, ok := m.(*models.DirectMessage)
	if !ok || direct.IsDelivered || !socket.Delivered(acks, direct.ToProfileID) {
		return
	}
	now := time.Now()
	n, err := d.direct.MarkDelivered(ctx, direct.ToProfileID, []models.ObjectID{direct.ID}, now)
	if err != nil {
		log.Warnw(ctx, "failed to mark message delivered", "message_id", direct.ID, "error", err)
		return
	}
	if n == 0 {
		return
	}
	delivered := *direct
	delivered.IsDelivered = true
	delivered.DeliveredAt = &now
	if err := d.index.SyncDocuments(ctx, &delivered); err != nil {
		log.Warnw(ctx, "failed to index delivered message", "message_id", direct.ID, "error", err)
	}
}

// reduceForPush drops fields private to the sender's session and broadcast bookkeeping.
func reduceForPush(m models.Message) any {
	direct, ok := m.(*models.DirectMessage)
	if !ok {
		return m
	}
	out := *direct
	out.SessionID = ""
	out.DeviceID = ""
	out.BroadcastMessageID = ""
	return &out
}
