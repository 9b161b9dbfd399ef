package serializer

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErr_DetailHiddenInRelease(t *testing.T) {
	prev := gin.Mode()
	defer gin.SetMode(prev)

	gin.SetMode(gin.TestMode)
	res := ParamErr("", errors.New("name missing"))
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "parameter error", res.Msg)
	assert.Equal(t, "name missing", res.Error)

	gin.SetMode(gin.ReleaseMode)
	res = DBErr("", errors.New("disk full"))
	assert.Equal(t, "database error", res.Msg)
	assert.Empty(t, res.Error)
}

func TestErr_LogsServerFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	_ = NotFoundErr("User not found")
	_ = ParamErr("bad", errors.New("x"))
	assert.Zero(t, logs.Len())

	res := UpstreamErr(errors.New("provider 503"))
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "upstream error", res.Msg)
	assert.Equal(t, 1, logs.Len())
}
