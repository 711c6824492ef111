package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/chat-engine/internal/models"
	"github.com/nguyentranbao-ct/chat-engine/internal/usecase"
)

type Controller interface {
	Health(c echo.Context) error
	Register(api *echo.Group)
}

type controller struct {
	messages   usecase.MessageUsecase
	groups     usecase.GroupUsecase
	broadcasts usecase.BroadcastUsecase
}

func NewHandler(
	messages usecase.MessageUsecase,
	groups usecase.GroupUsecase,
	broadcasts usecase.BroadcastUsecase,
) Controller {
	return &controller{
		messages:   messages,
		groups:     groups,
		broadcasts: broadcasts,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chat-engine",
	})
}

type messageIDRequest struct {
	models.Actor `json:"-"`
	ID           string `param:"id" validate:"required"`
}

type clickRequest struct {
	models.Actor `json:"-"`
	ID           string           `param:"id" validate:"required"`
	Type         models.ClickType `json:"type" validate:"required"`
	Value        string           `json:"value"`
}

type reactionRequest struct {
	models.Actor `json:"-"`
	ID           string `param:"id" validate:"required"`
	ReactionID   string `json:"reaction_id" query:"reaction_id" validate:"required"`
}

type windowRequest struct {
	models.Actor `json:"-"`
	usecase.WindowRequest
}

type chatRequest struct {
	models.Actor `json:"-"`
	ChatID       string `param:"chat_id" validate:"required,chatid"`
}

type listRequest struct {
	models.Actor `json:"-"`
	Limit        int64 `query:"limit" validate:"gte=0,lte=200"`
	Skip         int64 `query:"skip" validate:"gte=0"`
}

type conversationRequest struct {
	models.Actor `json:"-"`
	usecase.ConversationInput
}

type updateConversationRequest struct {
	models.Actor   `json:"-"`
	ConversationID string `param:"chat_id" validate:"required,chatid"`
	usecase.ConversationInput
}

type memberStatusRequest struct {
	models.Actor `json:"-"`
	ChatID       string              `param:"chat_id" validate:"required,chatid"`
	MemberID     string              `param:"profile_id" validate:"required"`
	Status       models.MemberStatus `json:"status" validate:"required,oneof=active suspended archived"`
}

func (r memberStatusRequest) input() usecase.MemberStatusInput {
	return usecase.MemberStatusInput{ProfileID: r.MemberID, Status: r.Status}
}

type conversationMessageRequest struct {
	models.Actor   `json:"-"`
	ConversationID string `param:"chat_id" validate:"required,chatid"`
	usecase.CreateMessageInput
}
