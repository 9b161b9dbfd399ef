package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

var notFoundMessages = []struct {
	err error
	msg string
}{
	{service.ErrUserNotFound, "User not found"},
	{service.ErrAssistantNotFound, "Assistant not found"},
	{service.ErrChatThreadNotFound, "Chat thread not found"},
	{service.ErrFileNotFound, "File not found"},
}

// writeServiceError maps service errors onto the HTTP error envelope.
func writeServiceError(c *gin.Context, err error) {
	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			c.JSON(http.StatusNotFound, serializer.NotFoundErr(nf.msg))
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
		c.JSON(http.StatusBadRequest, serializer.ParamErr(msg, err))
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusBadRequest, serializer.ParamErr("User already exists", err))
	case errors.Is(err, service.ErrUpstream):
		c.JSON(http.StatusInternalServerError, serializer.UpstreamErr(err))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("Server error", err))
	}
}
