package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

// maxUploadBytes caps PUT /files/:id/content bodies.
const maxUploadBytes = 32 << 20

type FileHandler struct {
	svc service.FileService
}

func NewFileHandler(s service.FileService) *FileHandler {
	return &FileHandler{svc: s}
}

type CreateFileReq struct {
	UserID       string `json:"userId"`
	AssistantID  string `json:"assistantId"`
	Name         string `json:"name" binding:"required" example:"notes.md"`
	Size         int64  `json:"size"`
	Type         string `json:"type" example:"text/markdown"`
	OpenAIFileID string `json:"openaiFileId"`
}

// CreateFile godoc
//
//	@Summary	Create file record
//	@Tags		files
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.CreateFileReq	true	"CreateFile payload"
//	@Security	BearerAuth
//	@Success	201	{object}	serializer.Response{data=model.File}
//	@Router		/files [post]
func (h *FileHandler) CreateFile(c *gin.Context) {
	req := CreateFileReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("name is required", err))
		return
	}
	f, err := h.svc.Create(c.Request.Context(), service.CreateFileInput{
		UserID:       req.UserID,
		AssistantID:  req.AssistantID,
		Name:         req.Name,
		Size:         req.Size,
		Type:         req.Type,
		OpenAIFileID: req.OpenAIFileID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: f})
}

type ListFilesReq struct {
	UserID string `form:"userId"`
}

// ListFiles godoc
//
//	@Summary	List files
//	@Tags		files
//	@Produce	json
//	@Param		userId	query	string	false	"Owner filter"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=[]model.File}
//	@Router		/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	req := ListFilesReq{}
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

// GetFile godoc
//
//	@Summary	Get file record
//	@Tags		files
//	@Produce	json
//	@Param		id	path	string	true	"File ID"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.File}
//	@Router		/files/{id} [get]
func (h *FileHandler) GetFile(c *gin.Context) {
	f, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: f})
}

// DeleteFile godoc
//
//	@Summary	Delete file
//	@Tags		files
//	@Produce	json
//	@Param		id	path	string	true	"File ID"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{}
//	@Router		/files/{id} [delete]
func (h *FileHandler) DeleteFile(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Msg: "File deleted successfully"})
}

// GetFileContent godoc
//
//	@Summary		Get file content
//	@Description	A presigned URL for uploaded content, otherwise placeholder text with a URL.
//	@Tags			files
//	@Produce		json
//	@Param			id	path	string	true	"File ID"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.FileContent}
//	@Router			/files/{id}/content [get]
func (h *FileHandler) GetFileContent(c *gin.Context) {
	fc, err := h.svc.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: fc})
}

// UploadFileContent godoc
//
//	@Summary	Upload file content
//	@Tags		files
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		string	true	"File ID"
//	@Param		file	formData	file	true	"Content"
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.File}
//	@Router		/files/{id}/content [put]
func (h *FileHandler) UploadFileContent(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is unreadable", err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is unreadable", err))
		return
	}

	f, err := h.svc.Upload(c.Request.Context(), c.Param("id"), fh.Filename, data)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: f})
}

// DownloadFile godoc
//
//	@Summary	Download file
//	@Tags		files
//	@Param		id	path	string	true	"File ID"
//	@Security	BearerAuth
//	@Success	302
//	@Router		/files/{id}/download [get]
func (h *FileHandler) DownloadFile(c *gin.Context) {
	url, err := h.svc.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
