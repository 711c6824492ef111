package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
)

func (h *controller) CreateBroadcast(c echo.Context, req conversationRequest) (*models.Broadcast, error) {
	return h.broadcasts.CreateBroadcast(c.Request().Context(), req.Actor, req.ConversationInput)
}

func (h *controller) UpdateBroadcast(c echo.Context, req updateConversationRequest) (*models.Broadcast, error) {
	return h.broadcasts.UpdateBroadcast(c.Request().Context(), req.Actor, req.ConversationID, req.ConversationInput)
}

func (h *controller) DeleteBroadcast(c echo.Context, req chatRequest) (*models.Broadcast, error) {
	return h.broadcasts.DeleteBroadcast(c.Request().Context(), req.Actor, req.ChatID)
}

func (h *controller) GetBroadcast(c echo.Context, req chatRequest) (*models.Broadcast, error) {
	return h.broadcasts.GetBroadcast(c.Request().Context(), req.Actor, req.ChatID)
}

func (h *controller) ListBroadcasts(c echo.Context, req listRequest) (*mongodb.PaginateWithTotal[*models.Broadcast], error) {
	return h.broadcasts.ListBroadcasts(c.Request().Context(), req.Actor, req.Limit, req.Skip)
}

func (h *controller) ChangeBroadcastMember(c echo.Context, req memberStatusRequest) (*models.Broadcast, error) {
	return h.broadcasts.ChangeMemberStatus(c.Request().Context(), req.Actor, req.ChatID, req.input())
}

func (h *controller) CreateBroadcastMessage(c echo.Context, req conversationMessageRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.CreateBroadcastMessage(c.Request().Context(), req.Actor, req.ConversationID, req.CreateMessageInput)
}

func (h *controller) GetBroadcastMessages(c echo.Context, req windowRequest) ([]*models.BroadcastMessage, error) {
	return h.broadcasts.GetBroadcastMessages(c.Request().Context(), req.Actor, req.WindowRequest)
}

func (h *controller) GetBroadcastMessage(c echo.Context, req messageIDRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.GetBroadcastMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) ViewBroadcastMessage(c echo.Context, req messageIDRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.ViewBroadcastMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) ClickBroadcastMessage(c echo.Context, req clickRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.ClickBroadcastMessage(c.Request().Context(), req.Actor, req.ID, req.Type, req.Value)
}

func (h *controller) ReactBroadcastMessage(c echo.Context, req reactionRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.ReactBroadcastMessage(c.Request().Context(), req.Actor, req.ID, req.ReactionID)
}

func (h *controller) DeleteBroadcastMessageReaction(c echo.Context, req reactionRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.DeleteBroadcastMessageReaction(c.Request().Context(), req.Actor, req.ID, req.ReactionID)
}

func (h *controller) DeleteBroadcastMessage(c echo.Context, req messageIDRequest) (*models.BroadcastMessage, error) {
	return h.broadcasts.DeleteBroadcastMessage(c.Request().Context(), req.Actor, req.ID)
}
