package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

type MessageHandler struct {
	svc service.MessageService
}

func NewMessageHandler(s service.MessageService) *MessageHandler {
	return &MessageHandler{svc: s}
}

type ListMessagesReq struct {
	ThreadID string `form:"threadId"`
	UserID   string `form:"userId"`
}

// ListMessages godoc
//
//	@Summary		List messages
//	@Description	With userId only the user's assistant thread is considered; a threadId that does not match it yields an empty list.
//	@Tags			messages
//	@Produce		json
//	@Param			threadId	query	string	false	"Thread key"
//	@Param			userId		query	string	false	"User ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Message}
//	@Router			/messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	req := ListMessagesReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	msgs, err := h.svc.List(c.Request.Context(), req.ThreadID, req.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: msgs})
}

// ListThreadMessages godoc
//
//	@Summary	List messages by thread key
//	@Tags		messages
//	@Produce	json
//	@Param		threadId	path	string	true	"Thread key"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.Message}
//	@Router		/messages/thread/{threadId} [get]
func (h *MessageHandler) ListThreadMessages(c *gin.Context) {
	msgs, err := h.svc.ListByThread(c.Request.Context(), c.Param("threadId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: msgs})
}

// ListUserMessages godoc
//
//	@Summary		List messages visible to a user
//	@Description	Union of the user's chat threads (local and provider ids) and the assistant thread, oldest first.
//	@Tags			messages
//	@Produce		json
//	@Param			userId	path	string	true	"User ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Message}
//	@Router			/messages/user/{userId} [get]
func (h *MessageHandler) ListUserMessages(c *gin.Context) {
	msgs, err := h.svc.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: msgs})
}

type CreateMessageReq struct {
	ThreadID string `json:"threadId" binding:"required"`
	Content  string `json:"content" binding:"required" example:"Hello"`
	Role     string `json:"role" binding:"omitempty,msgrole" example:"user"`
	UserID   string `json:"userId"`
}

// CreateMessage godoc
//
//	@Summary	Create message
//	@Tags		messages
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.CreateMessageReq	true	"CreateMessage payload"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Message}
//	@Router		/messages [post]
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	req := CreateMessageReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("threadId and content are required", err))
		return
	}
	h.create(c, service.CreateMessageInput{
		ThreadID: req.ThreadID,
		Content:  req.Content,
		Role:     req.Role,
		UserID:   req.UserID,
	})
}

type CreateThreadMessageReq struct {
	Content string `json:"content" binding:"required" example:"Hello"`
	Role    string `json:"role" binding:"omitempty,msgrole" example:"user"`
	UserID  string `json:"userId"`
}

// CreateThreadMessage godoc
//
//	@Summary	Create message under a thread key
//	@Tags		messages
//	@Accept		json
//	@Produce	json
//	@Param		threadId	path	string							true	"Thread key"
//	@Param		payload		body	handler.CreateThreadMessageReq	true	"CreateThreadMessage payload"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Message}
//	@Router		/messages/thread/{threadId} [post]
func (h *MessageHandler) CreateThreadMessage(c *gin.Context) {
	req := CreateThreadMessageReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("content is required", err))
		return
	}
	h.create(c, service.CreateMessageInput{
		ThreadID: c.Param("threadId"),
		Content:  req.Content,
		Role:     req.Role,
		UserID:   req.UserID,
	})
}

func (h *MessageHandler) create(c *gin.Context, in service.CreateMessageInput) {
	m, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: m})
}

type AskReq struct {
	Question string `json:"question" binding:"required" example:"What is Go?"`
}

// Ask godoc
//
//	@Summary		Ask the assistant
//	@Description	Store the question on the user's first chat thread (created on demand). The reply arrives later as a separate message.
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Param			userId	path	string			true	"User ID"
//	@Param			payload	body	handler.AskReq	true	"Ask payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Message}
//	@Router			/messages/ask/{userId} [post]
func (h *MessageHandler) Ask(c *gin.Context) {
	req := AskReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("Question is required", err))
		return
	}
	m, err := h.svc.Ask(c.Request.Context(), c.Param("userId"), req.Question)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: m})
}
