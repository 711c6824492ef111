package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/mongodb"
)

func (h *controller) CreateGroup(c echo.Context, req conversationRequest) (*models.Group, error) {
	return h.groups.CreateGroup(c.Request().Context(), req.Actor, req.ConversationInput)
}

func (h *controller) UpdateGroup(c echo.Context, req updateConversationRequest) (*models.Group, error) {
	return h.groups.UpdateGroup(c.Request().Context(), req.Actor, req.ConversationID, req.ConversationInput)
}

func (h *controller) DeleteGroup(c echo.Context, req chatRequest) (*models.Group, error) {
	return h.groups.DeleteGroup(c.Request().Context(), req.Actor, req.ChatID)
}

func (h *controller) GetGroup(c echo.Context, req chatRequest) (*models.Group, error) {
	return h.groups.GetGroup(c.Request().Context(), req.Actor, req.ChatID)
}

func (h *controller) ListGroups(c echo.Context, req listRequest) (*mongodb.PaginateWithTotal[*models.Group], error) {
	return h.groups.ListGroups(c.Request().Context(), req.Actor, req.Limit, req.Skip)
}

func (h *controller) ChangeGroupMember(c echo.Context, req memberStatusRequest) (*models.Group, error) {
	return h.groups.ChangeMemberStatus(c.Request().Context(), req.Actor, req.ChatID, req.input())
}

func (h *controller) CreateGroupMessage(c echo.Context, req conversationMessageRequest) (*models.GroupMessage, error) {
	return h.groups.CreateGroupMessage(c.Request().Context(), req.Actor, req.ConversationID, req.CreateMessageInput)
}

func (h *controller) GetGroupMessages(c echo.Context, req windowRequest) ([]*models.GroupMessage, error) {
	return h.groups.GetGroupMessages(c.Request().Context(), req.Actor, req.WindowRequest)
}

func (h *controller) GetGroupMessage(c echo.Context, req messageIDRequest) (*models.GroupMessage, error) {
	return h.groups.GetGroupMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) ViewGroupMessage(c echo.Context, req messageIDRequest) (*models.GroupMessage, error) {
	return h.groups.ViewGroupMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) ClickGroupMessage(c echo.Context, req clickRequest) (*models.GroupMessage, error) {
	return h.groups.ClickGroupMessage(c.Request().Context(), req.Actor, req.ID, req.Type, req.Value)
}

func (h *controller) ReactGroupMessage(c echo.Context, req reactionRequest) (*models.GroupMessage, error) {
	return h.groups.ReactGroupMessage(c.Request().Context(), req.Actor, req.ID, req.ReactionID)
}

func (h *controller) DeleteGroupMessageReaction(c echo.Context, req reactionRequest) (*models.GroupMessage, error) {
	return h.groups.DeleteGroupMessageReaction(c.Request().Context(), req.Actor, req.ID, req.ReactionID)
}

func (h *controller) DeleteGroupMessage(c echo.Context, req messageIDRequest) (*models.GroupMessage, error) {
	return h.groups.DeleteGroupMessage(c.Request().Context(), req.Actor, req.ID)
}
