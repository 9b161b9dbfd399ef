package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/service"
)

func fileRouter(svc *MockFileService) http.Handler {
	r := newTestRouter()
	h := NewFileHandler(svc)
	r.POST("/files", h.CreateFile)
	r.GET("/files", h.ListFiles)
	r.GET("/files/:id", h.GetFile)
	r.DELETE("/files/:id", h.DeleteFile)
	r.GET("/files/:id/content", h.GetFileContent)
	r.PUT("/files/:id/content", h.UploadFileContent)
	r.GET("/files/:id/download", h.DownloadFile)
	return r
}

func TestFileHandler_CreateFile(t *testing.T) {
	svc := &MockFileService{}
	svc.On("Create", mock.Anything, service.CreateFileInput{UserID: "u1", Name: "notes.md", Size: 12}).
		Return(&model.File{ID: "f1", UserID: "u1", Name: "notes.md", Size: 12}, nil)
	r := fileRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/files", map[string]any{"userId": "u1", "name": "notes.md", "size": 12})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/files", map[string]any{"userId": "u1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestFileHandler_GetFileContent(t *testing.T) {
	svc := &MockFileService{}
	svc.On("Content", mock.Anything, "f1").Return(&service.FileContent{
		Content: "This is the content of file notes.md",
		URL:     "https://example.com/files/f1",
	}, nil)
	svc.On("Content", mock.Anything, "ghost").Return(nil, service.ErrFileNotFound)
	r := fileRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/files/f1/content", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := decode(t, w).Data.(map[string]any)
	if assert.True(t, ok) {
		assert.Equal(t, "https://example.com/files/f1", data["url"])
	}

	w = doJSON(t, r, http.MethodGet, "/files/ghost/content", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", decode(t, w).Msg)
}

func TestFileHandler_UploadFileContent(t *testing.T) {
	svc := &MockFileService{}
	svc.On("Upload", mock.Anything, "f1", "report.csv", []byte("a,b\n1,2\n")).
		Return(&model.File{ID: "f1", Name: "report.csv", Type: "text/csv", Size: 8}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "report.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/files/f1/content", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	fileRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestFileHandler_UploadFileContent_MissingPart(t *testing.T) {
	svc := &MockFileService{}
	w := doJSON(t, fileRouter(svc), http.MethodPut, "/files/f1/content", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFileHandler_DownloadFile(t *testing.T) {
	svc := &MockFileService{}
	svc.On("DownloadURL", mock.Anything, "f1").Return("https://blob.test/files/f1/a.txt?sig=1", nil)
	svc.On("DownloadURL", mock.Anything, "f2").
		Return("", fmt.Errorf("%w: %s", service.ErrInvalidInput, "file has no uploaded content"))
	r := fileRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/files/f1/download", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://blob.test/files/f1/a.txt?sig=1", w.Header().Get("Location"))

	w = doJSON(t, r, http.MethodGet, "/files/f2/download", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file has no uploaded content", decode(t, w).Msg)
}

func TestFileHandler_DeleteFile(t *testing.T) {
	svc := &MockFileService{}
	svc.On("Delete", mock.Anything, "f1").Return(nil)
	svc.On("Delete", mock.Anything, "ghost").Return(service.ErrFileNotFound)
	r := fileRouter(svc)

	w := doJSON(t, r, http.MethodDelete, "/files/f1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/files/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
