package handler

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(s service.UserService) *UserHandler {
	return &UserHandler{svc: s}
}

type CreateUserReq struct {
	Name        string `json:"name" example:"alice"`
	Username    string `json:"username" example:"alice"`
	Email       string `json:"email" binding:"omitempty,email" example:"alice@example.com"`
	Password    string `json:"password"`
	Role        string `json:"role" example:"user"`
	AssistantID string `json:"assistantId"`
}

// CreateUser godoc
//
//	@Summary		Create user
//	@Description	Create a user. Either name or username is required; email must be unique when given.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateUserReq	true	"CreateUser payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.User}
//	@Router			/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	req := CreateUserReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	u, err := h.svc.Create(c.Request.Context(), service.CreateUserInput{
		Name:        req.Name,
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		AssistantID: req.AssistantID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: u})
}

// ListUsers godoc
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.User}
//	@Router		/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: users})
}

// GetUser godoc
//
//	@Summary	Get user
//	@Tags		users
//	@Produce	json
//	@Param		id	path	string	true	"User ID"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.User}
//	@Router		/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: u})
}

type UpdateUserReq struct {
	Name        *string `json:"name"`
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
	AssistantID *string `json:"assistantId"`
}

// UpdateUser godoc
//
//	@Summary		Update user
//	@Description	Partial merge. Send "assistantId": null to unlink the user's assistant.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"User ID"
//	@Param			payload	body	handler.UpdateUserReq	true	"UpdateUser payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.User}
//	@Router			/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := UpdateUserReq{}
	fields := map[string]any{}
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &req); err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
			return
		}
		if err := sonic.Unmarshal(raw, &fields); err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
			return
		}
	}

	in := service.UpdateUserInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		AssistantID: req.AssistantID,
	}
	if in.Name == nil {
		in.Name = req.Username
	}
	if v, ok := fields["assistantId"]; ok && v == nil {
		in.ClearAssistant = true
	}

	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: u})
}

// DeleteUser godoc
//
//	@Summary		Delete user
//	@Description	Delete a user and everything it owns: its assistant (remote side best-effort), chat threads, files and messages.
//	@Tags			users
//	@Produce		json
//	@Param			id	path	string	true	"User ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.CascadeReport}
//	@Router			/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	rep, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "User and all associated data deleted successfully", Data: rep})
}
