package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
)

type createMessageRequest struct {
	models.Actor `json:"-"`
	usecase.CreateMessageInput
}

type systemMessageRequest struct {
	ToProfileID string          `json:"to_profile_id" validate:"required"`
	Content     *models.Content `json:"content" validate:"required"`
}

type betweenRequest struct {
	models.Actor   `json:"-"`
	OtherProfileID string `query:"other_profile_id" validate:"required"`
}

type searchRequest struct {
	models.Actor `json:"-"`
	usecase.SearchInput
}

func (h *controller) CreateMessage(c echo.Context, req createMessageRequest) (*models.DirectMessage, error) {
	return h.messages.CreateMessage(c.Request().Context(), req.Actor, req.CreateMessageInput)
}

func (h *controller) CreateMailMessage(c echo.Context, req createMessageRequest) (*models.DirectMessage, error) {
	return h.messages.CreateMailMessage(c.Request().Context(), req.Actor, req.CreateMessageInput)
}

func (h *controller) CreateSystemMessage(c echo.Context, req systemMessageRequest) (*models.DirectMessage, error) {
	return h.messages.CreateSystemMessage(c.Request().Context(), req.ToProfileID, req.Content)
}

func (h *controller) GetMessages(c echo.Context, req windowRequest) ([]*models.DirectMessage, error) {
	return h.messages.GetMessages(c.Request().Context(), req.Actor, req.WindowRequest)
}

func (h *controller) GetMessage(c echo.Context, req messageIDRequest) (*models.DirectMessage, error) {
	return h.messages.GetMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) FirstMessage(c echo.Context, req betweenRequest) (*models.DirectMessage, error) {
	return h.messages.FirstMessage(c.Request().Context(), req.Actor, req.OtherProfileID)
}

func (h *controller) LastMessage(c echo.Context, req betweenRequest) (*models.DirectMessage, error) {
	return h.messages.LastMessage(c.Request().Context(), req.Actor, req.OtherProfileID)
}

func (h *controller) SearchMessages(c echo.Context, req searchRequest) ([]*models.MessageDocument, error) {
	return h.messages.SearchMessages(c.Request().Context(), req.Actor, req.SearchInput)
}

func (h *controller) Counts(c echo.Context, req chatRequest) (*models.Counts, error) {
	return h.messages.Counts(c.Request().Context(), req.Actor, req.ChatID)
}

func (h *controller) ViewMessage(c echo.Context, req messageIDRequest) (*models.DirectMessage, error) {
	return h.messages.ViewMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) ClickMessage(c echo.Context, req clickRequest) (*models.DirectMessage, error) {
	return h.messages.ClickMessage(c.Request().Context(), req.Actor, req.ID, req.Type, req.Value)
}

func (h *controller) ReactMessage(c echo.Context, req reactionRequest) (*models.DirectMessage, error) {
	return h.messages.ReactMessage(c.Request().Context(), req.Actor, req.ID, req.ReactionID)
}

func (h *controller) DeleteMessageReaction(c echo.Context, req reactionRequest) (*models.DirectMessage, error) {
	return h.messages.DeleteMessageReaction(c.Request().Context(), req.Actor, req.ID, req.ReactionID)
}

func (h *controller) DeleteMessage(c echo.Context, req messageIDRequest) (*models.DirectMessage, error) {
	return h.messages.DeleteMessage(c.Request().Context(), req.Actor, req.ID)
}

func (h *controller) HideInDashboard(c echo.Context, req messageIDRequest) (*models.DirectMessage, error) {
	return h.messages.HideInDashboard(c.Request().Context(), req.Actor, req.ID)
}
