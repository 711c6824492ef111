package server

import (
	"github.com/labstack/echo/v4"
	pkgmdw "github.com/nguyentranbao-ct/chat-engine/internal/server/middleware"
)

func (h *controller) Register(api *echo.Group) {
	wrap := pkgmdw.WrapHandler

	api.POST("/messages", wrap(h.CreateMessage))
	api.POST("/messages/system", wrap(h.CreateSystemMessage))
	api.POST("/messages/mail", wrap(h.CreateMailMessage))
	api.GET("/messages", wrap(h.GetMessages))
	api.GET("/messages/first", wrap(h.FirstMessage))
	api.GET("/messages/last", wrap(h.LastMessage))
	api.GET("/messages/search", wrap(h.SearchMessages))
	api.GET("/messages/:id", wrap(h.GetMessage))
	api.POST("/messages/:id/view", wrap(h.ViewMessage))
	api.POST("/messages/:id/click", wrap(h.ClickMessage))
	api.POST("/messages/:id/reaction", wrap(h.ReactMessage))
	api.POST("/messages/:id/hide", wrap(h.HideInDashboard))
	api.DELETE("/messages/:id", wrap(h.DeleteMessage))
	api.DELETE("/messages/:id/reaction", wrap(h.DeleteMessageReaction))
	api.GET("/chats/:chat_id/counts", wrap(h.Counts))

	api.POST("/groups", wrap(h.CreateGroup))
	api.GET("/groups", wrap(h.ListGroups))
	api.GET("/groups/:chat_id", wrap(h.GetGroup))
	api.PUT("/groups/:chat_id", wrap(h.UpdateGroup))
	api.DELETE("/groups/:chat_id", wrap(h.DeleteGroup))
	api.PUT("/groups/:chat_id/members/:profile_id", wrap(h.ChangeGroupMember))
	api.POST("/groups/:chat_id/messages", wrap(h.CreateGroupMessage))
	api.GET("/groups/:chat_id/messages", wrap(h.GetGroupMessages))
	api.GET("/group-messages/:id", wrap(h.GetGroupMessage))
	api.POST("/group-messages/:id/view", wrap(h.ViewGroupMessage))
	api.POST("/group-messages/:id/click", wrap(h.ClickGroupMessage))
	api.POST("/group-messages/:id/reaction", wrap(h.ReactGroupMessage))
	api.DELETE("/group-messages/:id", wrap(h.DeleteGroupMessage))
	api.DELETE("/group-messages/:id/reaction", wrap(h.DeleteGroupMessageReaction))

	api.POST("/broadcasts", wrap(h.CreateBroadcast))
	api.GET("/broadcasts", wrap(h.ListBroadcasts))
	api.GET("/broadcasts/:chat_id", wrap(h.GetBroadcast))
	api.PUT("/broadcasts/:chat_id", wrap(h.UpdateBroadcast))
	api.DELETE("/broadcasts/:chat_id", wrap(h.DeleteBroadcast))
	api.PUT("/broadcasts/:chat_id/members/:profile_id", wrap(h.ChangeBroadcastMember))
	api.POST("/broadcasts/:chat_id/messages", wrap(h.CreateBroadcastMessage))
	api.GET("/broadcasts/:chat_id/messages", wrap(h.GetBroadcastMessages))
	api.GET("/broadcast-messages/:id", wrap(h.GetBroadcastMessage))
	api.POST("/broadcast-messages/:id/view", wrap(h.ViewBroadcastMessage))
	api.POST("/broadcast-messages/:id/click", wrap(h.ClickBroadcastMessage))
	api.POST("/broadcast-messages/:id/reaction", wrap(h.ReactBroadcastMessage))
	api.DELETE("/broadcast-messages/:id", wrap(h.DeleteBroadcastMessage))
	api.DELETE("/broadcast-messages/:id/reaction", wrap(h.DeleteBroadcastMessageReaction))
}
