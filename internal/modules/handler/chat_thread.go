package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

type ChatThreadHandler struct {
	svc service.ChatThreadService
}

func NewChatThreadHandler(s service.ChatThreadService) *ChatThreadHandler {
	return &ChatThreadHandler{svc: s}
}

type CreateChatThreadReq struct {
	Name           string   `json:"name" binding:"required" example:"alice's Thread"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	UserID         string   `json:"userId"`
	AssistantID    string   `json:"assistantId"`
	OpenAIThreadID string   `json:"openaiThreadId"`
	Members        []string `json:"members"`
}

// CreateChatThread godoc
//
//	@Summary		Create chat thread
//	@Description	The owner is always part of the member list.
//	@Tags			chat_threads
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateChatThreadReq	true	"CreateChatThread payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.ChatThread}
//	@Router			/chat_threads [post]
func (h *ChatThreadHandler) CreateChatThread(c *gin.Context) {
	req := CreateChatThreadReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("Name is required", err))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), service.CreateChatThreadInput{
		Name:           req.Name,
		Title:          req.Title,
		Description:    req.Description,
		UserID:         req.UserID,
		AssistantID:    req.AssistantID,
		OpenAIThreadID: req.OpenAIThreadID,
		Members:        req.Members,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: t})
}

type ListChatThreadsReq struct {
	UserID string `form:"userId"`
}

// ListChatThreads godoc
//
//	@Summary	List chat threads
//	@Tags		chat_threads
//	@Produce	json
//	@Param		userId	query	string	false	"Owner filter"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.ChatThread}
//	@Router		/chat_threads [get]
func (h *ChatThreadHandler) ListChatThreads(c *gin.Context) {
	req := ListChatThreadsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	out, err := h.svc.List(c.Request.Context(), req.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// GetChatThread godoc
//
//	@Summary	Get chat thread
//	@Tags		chat_threads
//	@Produce	json
//	@Param		id	path	string	true	"Chat thread ID"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.ChatThread}
//	@Router		/chat_threads/{id} [get]
func (h *ChatThreadHandler) GetChatThread(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: t})
}

type UpdateChatThreadReq struct {
	Name        *string  `json:"name"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Members     []string `json:"members"`
}

// UpdateChatThread godoc
//
//	@Summary	Update chat thread
//	@Tags		chat_threads
//	@Accept		json
//	@Produce	json
//	@Param		id		path	string						true	"Chat thread ID"
//	@Param		payload	body	handler.UpdateChatThreadReq	true	"UpdateChatThread payload"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.ChatThread}
//	@Router		/chat_threads/{id} [put]
func (h *ChatThreadHandler) UpdateChatThread(c *gin.Context) {
	req := UpdateChatThreadReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateChatThreadInput{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: t})
}

// DeleteChatThread godoc
//
//	@Summary		Delete chat thread
//	@Description	Delete the thread and its messages. Messages under a provider thread id are kept while an assistant or another chat thread still uses that id.
//	@Tags			chat_threads
//	@Produce		json
//	@Param			id	path	string	true	"Chat thread ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.CascadeReport}
//	@Router			/chat_threads/{id} [delete]
func (h *ChatThreadHandler) DeleteChatThread(c *gin.Context) {
	rep, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "Chat thread deleted successfully", Data: rep})
}

// ListThreadMessages godoc
//
//	@Summary	List chat thread messages
//	@Tags		chat_threads
//	@Produce	json
//	@Param		id	path	string	true	"Chat thread ID"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.Message}
//	@Router		/chat_threads/{id}/messages [get]
func (h *ChatThreadHandler) ListThreadMessages(c *gin.Context) {
	msgs, err := h.svc.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: msgs})
}

type AddThreadMessageReq struct {
	Content string `json:"content" binding:"required" example:"Hello"`
	Role    string `json:"role" binding:"omitempty,msgrole" example:"user"`
	UserID  string `json:"userId"`
}

// AddThreadMessage godoc
//
//	@Summary	Add chat thread message
//	@Tags		chat_threads
//	@Accept		json
//	@Produce	json
//	@Param		id		path	string						true	"Chat thread ID"
//	@Param		payload	body	handler.AddThreadMessageReq	true	"AddThreadMessage payload"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.Message}
//	@Router		/chat_threads/{id}/messages [post]
func (h *ChatThreadHandler) AddThreadMessage(c *gin.Context) {
	req := AddThreadMessageReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("content is required", err))
		return
	}
	m, err := h.svc.AddMessage(c.Request.Context(), c.Param("id"), service.CreateMessageInput{
		Content: req.Content,
		Role:    req.Role,
		UserID:  req.UserID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: m})
}
