package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/modules/service"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, in service.CreateUserInput) (*model.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*model.User)
	return out, args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id string, in service.UpdateUserInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id string) (*service.CascadeReport, error) {
	args := m.Called(ctx, id)
	rep, _ := args.Get(0).(*service.CascadeReport)
	return rep, args.Error(1)
}

// MockAssistantService is a mock implementation of AssistantService
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Create(ctx context.Context, in service.CreateAssistantInput) (*model.Assistant, error) {
	args := m.Called(ctx, in)
	a, _ := args.Get(0).(*model.Assistant)
	return a, args.Error(1)
}

func (m *MockAssistantService) Get(ctx context.Context, id string) (*model.Assistant, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Assistant)
	return a, args.Error(1)
}

func (m *MockAssistantService) List(ctx context.Context, userID string) ([]*model.Assistant, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]*model.Assistant)
	return out, args.Error(1)
}

func (m *MockAssistantService) Update(ctx context.Context, id string, in service.UpdateAssistantInput) (*model.Assistant, error) {
	args := m.Called(ctx, id, in)
	a, _ := args.Get(0).(*model.Assistant)
	return a, args.Error(1)
}

func (m *MockAssistantService) Delete(ctx context.Context, id string) (*service.CascadeReport, error) {
	args := m.Called(ctx, id)
	rep, _ := args.Get(0).(*service.CascadeReport)
	return rep, args.Error(1)
}

// MockChatThreadService is a mock implementation of ChatThreadService
type MockChatThreadService struct {
	mock.Mock
}

func (m *MockChatThreadService) Create(ctx context.Context, in service.CreateChatThreadInput) (*model.ChatThread, error) {
	args := m.Called(ctx, in)
	t, _ := args.Get(0).(*model.ChatThread)
	return t, args.Error(1)
}

func (m *MockChatThreadService) Get(ctx context.Context, id string) (*model.ChatThread, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.ChatThread)
	return t, args.Error(1)
}

func (m *MockChatThreadService) List(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]*model.ChatThread)
	return out, args.Error(1)
}

func (m *MockChatThreadService) Update(ctx context.Context, id string, in service.UpdateChatThreadInput) (*model.ChatThread, error) {
	args := m.Called(ctx, id, in)
	t, _ := args.Get(0).(*model.ChatThread)
	return t, args.Error(1)
}

func (m *MockChatThreadService) Delete(ctx context.Context, id string) (*service.CascadeReport, error) {
	args := m.Called(ctx, id)
	rep, _ := args.Get(0).(*service.CascadeReport)
	return rep, args.Error(1)
}

func (m *MockChatThreadService) Messages(ctx context.Context, id string) ([]*model.Message, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).([]*model.Message)
	return out, args.Error(1)
}

func (m *MockChatThreadService) AddMessage(ctx context.Context, id string, in service.CreateMessageInput) (*model.Message, error) {
	args := m.Called(ctx, id, in)
	msg, _ := args.Get(0).(*model.Message)
	return msg, args.Error(1)
}

// MockMessageService is a mock implementation of MessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Create(ctx context.Context, in service.CreateMessageInput) (*model.Message, error) {
	args := m.Called(ctx, in)
	msg, _ := args.Get(0).(*model.Message)
	return msg, args.Error(1)
}

func (m *MockMessageService) List(ctx context.Context, threadID, userID string) ([]*model.Message, error) {
	args := m.Called(ctx, threadID, userID)
	out, _ := args.Get(0).([]*model.Message)
	return out, args.Error(1)
}

func (m *MockMessageService) ListByThread(ctx context.Context, threadID string) ([]*model.Message, error) {
	args := m.Called(ctx, threadID)
	out, _ := args.Get(0).([]*model.Message)
	return out, args.Error(1)
}

func (m *MockMessageService) ListByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]*model.Message)
	return out, args.Error(1)
}

func (m *MockMessageService) Ask(ctx context.Context, userID, question string) (*model.Message, error) {
	args := m.Called(ctx, userID, question)
	msg, _ := args.Get(0).(*model.Message)
	return msg, args.Error(1)
}

// MockFileService is a mock implementation of FileService
type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Create(ctx context.Context, in service.CreateFileInput) (*model.File, error) {
	args := m.Called(ctx, in)
	f, _ := args.Get(0).(*model.File)
	return f, args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*model.File)
	return f, args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, userID string) ([]*model.File, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]*model.File)
	return out, args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileService) Content(ctx context.Context, id string) (*service.FileContent, error) {
	args := m.Called(ctx, id)
	fc, _ := args.Get(0).(*service.FileContent)
	return fc, args.Error(1)
}

func (m *MockFileService) Upload(ctx context.Context, id, filename string, data []byte) (*model.File, error) {
	args := m.Called(ctx, id, filename, data)
	f, _ := args.Get(0).(*model.File)
	return f, args.Error(1)
}

func (m *MockFileService) DownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	return gin.New()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			raw, err := sonic.Marshal(b)
			require.NoError(t, err)
			buf.Write(raw)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) serializer.Response {
	t.Helper()
	var resp serializer.Response
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
