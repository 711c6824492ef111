package socket

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/bus"
	log "github.com/nguyentranbao-ct/chat-engine/pkg/logger/logctx"
	"golang.org/x/time/rate"
)

const (
	ServiceChat = "chat"

	ModuleMessage          = "message"
	ModuleGroupMessage     = "groupMessage"
	ModuleBroadcastMessage = "broadcastMessage"

	ActionSetMessage = "setMessage"
)

// Event is the envelope delivered to connected clients.
type Event struct {
	Service string `json:"service"`
	Module  string `json:"module"`
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type sendRequest struct {
	ToProfileIDs []string `json:"to_profile_ids"`
	MsgObj       Event    `json:"msg_obj"`
}

// Client pushes events to the real-time delivery service.
type Client interface {
	Send(ctx context.Context, toProfileIDs []string, event Event) ([]models.DeliveryAck, error)
}

type client struct {
	bus     bus.Client
	limiter *rate.Limiter
}

func NewClient(conf *config.Config, b bus.Client) Client {
	limit := rate.Inf
	if conf.Push.RatePerSecond > 0 {
		limit = rate.Limit(conf.Push.RatePerSecond)
	}
	burst := conf.Push.Burst
	if burst <= 0 {
		burst = 1
	}
	return &client{
		bus:     b,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *client) Send(ctx context.Context, toProfileIDs []string, event Event) ([]models.DeliveryAck, error) {
	if len(toProfileIDs) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait push limiter: %w", err)
	}

	res, err := c.bus.SendAndRead(ctx, bus.RouteWSSend, sendRequest{
		ToProfileIDs: toProfileIDs,
		MsgObj:       event,
	})
	if err != nil {
		return nil, fmt.Errorf("send events: %w", err)
	}

	items := res.Data().Array()
	acks := make([]models.DeliveryAck, 0, len(items))
	for _, item := range items {
		acks = append(acks, models.DeliveryAck{
			ProfileID: item.Get("profile_id").String(),
			Delivered: item.Get("delivered").Bool(),
		})
	}
	log.Debugw(ctx, "sent events to socket server", "recipients", len(toProfileIDs), "acks", len(acks))
	return acks, nil
}

// Delivered reports whether the ack for profileID is affirmative.
func Delivered(acks []models.DeliveryAck, profileID string) bool {
	for _, a := range acks {
		if a.ProfileID == profileID {
			return a.Delivered
		}
	}
	return false
}
