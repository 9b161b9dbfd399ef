package serializer

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// SetLogger installs the logger used to report server-side failures.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}

func log() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Response
type Response struct {
	Code  int         `json:"code"`
	Data  interface{} `json:"data,omitempty"`
	Msg   string      `json:"msg"`
	Error string      `json:"error,omitempty"`
}

// Err
func Err(errCode int, msg string, err error) Response {
	res := Response{
		Code: errCode,
		Msg:  msg,
	}
	if err != nil && errCode >= http.StatusInternalServerError {
		log().Error(msg, zap.Int("code", errCode), zap.Error(err))
	}
	// development mode, show error detail
	if err != nil && gin.Mode() != gin.ReleaseMode {
		res.Error = fmt.Sprintf("%+v", err)
	}
	return res
}

// DBErr
func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(http.StatusInternalServerError, msg, err)
}

// ParamErr
func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(http.StatusBadRequest, msg, err)
}

// AuthErr
func AuthErr(msg string) Response {
	if msg == "" {
		msg = "authentication error"
	}
	return Err(http.StatusUnauthorized, msg, nil)
}

// NotFoundErr
func NotFoundErr(msg string) Response {
	if msg == "" {
		msg = "not found"
	}
	return Err(http.StatusNotFound, msg, nil)
}

// UpstreamErr reports a failed call to the assistant provider.
func UpstreamErr(err error) Response {
	return Err(http.StatusInternalServerError, "upstream error", err)
}
