package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

type AssistantHandler struct {
	svc service.AssistantService
}

func NewAssistantHandler(s service.AssistantService) *AssistantHandler {
	return &AssistantHandler{svc: s}
}

type CreateAssistantReq struct {
	Name         string           `json:"name" binding:"required" example:"bot1"`
	Instructions string           `json:"instructions" example:"You are a helpful assistant."`
	Description  string           `json:"description"`
	Model        string           `json:"model" example:"gpt-4-turbo-preview"`
	Tools        []map[string]any `json:"tools"`
	OwnerUserID  string           `json:"ownerUserId"`
	// UserID is the older name for OwnerUserID.
	UserID       string           `json:"userId"`
}

func (r CreateAssistantReq) owner() string {
	if r.OwnerUserID != "" {
		return r.OwnerUserID
	}
	return r.UserID
}

// CreateAssistant godoc
//
//	@Summary		Create assistant
//	@Description	Create the assistant at the provider together with its thread. With ownerUserId the user gets a chat thread and is linked to the assistant.
//	@Tags			assistants
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateAssistantReq	true	"CreateAssistant payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Assistant}
//	@Router			/assistants [post]
func (h *AssistantHandler) CreateAssistant(c *gin.Context) {
	req := CreateAssistantReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("Name is required", err))
		return
	}

	a, err := h.svc.Create(c.Request.Context(), service.CreateAssistantInput{
		Name:         req.Name,
		Instructions: req.Instructions,
		Description:  req.Description,
		Model:        req.Model,
		Tools:        req.Tools,
		OwnerUserID:  req.owner(),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: a})
}

type ListAssistantsReq struct {
	UserID string `form:"userId"`
}

// ListAssistants godoc
//
//	@Summary	List assistants
//	@Tags		assistants
//	@Produce	json
//	@Param		userId	query	string	false	"Only the assistant linked to this user"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.Assistant}
//	@Router		/assistants [get]
func (h *AssistantHandler) ListAssistants(c *gin.Context) {
	req := ListAssistantsReq{}
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

// GetAssistant godoc
//
//	@Summary	Get assistant
//	@Tags		assistants
//	@Produce	json
//	@Param		id	path	string	true	"Assistant ID"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.Assistant}
//	@Router		/assistants/{id} [get]
func (h *AssistantHandler) GetAssistant(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: a})
}

type UpdateAssistantReq struct {
	Name         *string          `json:"name"`
	Instructions *string          `json:"instructions"`
	Description  *string          `json:"description"`
	Model        *string          `json:"model"`
	Tools        []map[string]any `json:"tools"`
}

// UpdateAssistant godoc
//
//	@Summary		Update assistant
//	@Description	Merge the given fields and push the result to the provider. A provider failure leaves the record unchanged.
//	@Tags			assistants
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string						true	"Assistant ID"
//	@Param			payload	body	handler.UpdateAssistantReq	true	"UpdateAssistant payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Assistant}
//	@Router			/assistants/{id} [put]
func (h *AssistantHandler) UpdateAssistant(c *gin.Context) {
	req := UpdateAssistantReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateAssistantInput{
		Name:         req.Name,
		Instructions: req.Instructions,
		Description:  req.Description,
		Model:        req.Model,
		Tools:        req.Tools,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: a})
}

// DeleteAssistant godoc
//
//	@Summary		Delete assistant
//	@Description	Delete the assistant with its thread messages and files, and unlink every user pointing at it. The provider-side delete is best-effort.
//	@Tags			assistants
//	@Produce		json
//	@Param			id	path	string	true	"Assistant ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.CascadeReport}
//	@Router			/assistants/{id} [delete]
func (h *AssistantHandler) DeleteAssistant(c *gin.Context) {
	rep, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "Assistant deleted successfully", Data: rep})
}
