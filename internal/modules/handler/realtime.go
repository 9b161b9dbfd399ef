package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Stream godoc
//
//	@Summary		Open event stream
//	@Description	Server-sent events. The first "ready" event carries the client id used by subscribe/unsubscribe.
//	@Tags			realtime
//	@Produce		text/event-stream
//	@Param			threadId	query	string	false	"Thread key to subscribe right away"
//	@Security		BearerAuth
//	@Success		200
//	@Router			/realtime/stream [get]
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.hub.NewClient()
	defer h.hub.CloseClient(client)

	if threadID := c.Query("threadId"); threadID != "" {
		h.hub.Subscribe(client, threadID)
	}
	h.hub.Serve(c.Writer, c.Request, client)
}

type SubscriptionReq struct {
	ThreadID string `json:"threadId" binding:"required"`
}

// Subscribe godoc
//
//	@Summary	Subscribe a stream to a thread key
//	@Tags		realtime
//	@Accept		json
//	@Produce	json
//	@Param		clientId	path	string					true	"Client ID"
//	@Param		payload		body	handler.SubscriptionReq	true	"Subscription payload"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{}
//	@Router		/realtime/{clientId}/subscribe [post]
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	h.subscription(c, h.hub.Subscribe)
}

// Unsubscribe godoc
//
//	@Summary	Unsubscribe a stream from a thread key
//	@Tags		realtime
//	@Accept		json
//	@Produce	json
//	@Param		clientId	path	string					true	"Client ID"
//	@Param		payload		body	handler.SubscriptionReq	true	"Subscription payload"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{}
//	@Router		/realtime/{clientId}/unsubscribe [post]
func (h *RealtimeHandler) Unsubscribe(c *gin.Context) {
	h.subscription(c, h.hub.Unsubscribe)
}

func (h *RealtimeHandler) subscription(c *gin.Context, apply func(*realtime.Client, string)) {
	req := SubscriptionReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("threadId is required", err))
		return
	}
	client, ok := h.hub.Client(c.Param("clientId"))
	if !ok {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("Client not found"))
		return
	}
	apply(client, req.ThreadID)
	c.JSON(http.StatusOK, serializer.Response{Data: gin.H{"clientId": client.ID, "threadId": req.ThreadID}})
}
