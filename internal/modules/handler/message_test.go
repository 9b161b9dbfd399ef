package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/service"
)

func messageRouter(svc *MockMessageService) http.Handler {
	r := newTestRouter()
	h := NewMessageHandler(svc)
	r.GET("/messages", h.ListMessages)
	r.POST("/messages", h.CreateMessage)
	r.GET("/messages/thread/:threadId", h.ListThreadMessages)
	r.POST("/messages/thread/:threadId", h.CreateThreadMessage)
	r.GET("/messages/user/:userId", h.ListUserMessages)
	r.POST("/messages/ask/:userId", h.Ask)
	return r
}

func TestMessageHandler_CreateMessage(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           any
		mockSetup      func(*MockMessageService)
		expectedStatus int
	}{
		{
			name: "created",
			path: "/messages",
			body: map[string]any{"threadId": "t1", "content": "hi", "role": "assistant"},
			mockSetup: func(m *MockMessageService) {
				m.On("Create", mock.Anything, service.CreateMessageInput{ThreadID: "t1", Content: "hi", Role: "assistant"}).
					Return(&model.Message{ID: "m1", ThreadID: "t1", Content: "hi", Role: model.RoleAssistant}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown role rejected by binding",
			path:           "/messages",
			body:           map[string]any{"threadId": "t1", "content": "hi", "role": "robot"},
			mockSetup:      func(*MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing thread",
			path:           "/messages",
			body:           map[string]any{"content": "hi"},
			mockSetup:      func(*MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "thread from path",
			path: "/messages/thread/thread_abc",
			body: map[string]any{"content": "hello"},
			mockSetup: func(m *MockMessageService) {
				m.On("Create", mock.Anything, service.CreateMessageInput{ThreadID: "thread_abc", Content: "hello"}).
					Return(&model.Message{ID: "m2", ThreadID: "thread_abc"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockMessageService{}
			tt.mockSetup(svc)

			w := doJSON(t, messageRouter(svc), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestMessageHandler_ListMessages(t *testing.T) {
	svc := &MockMessageService{}
	svc.On("List", mock.Anything, "t1", "u1").Return([]*model.Message{}, nil)
	svc.On("List", mock.Anything, "", "ghost").Return(nil, service.ErrUserNotFound)
	r := messageRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/messages?threadId=t1&userId=u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/messages?userId=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestMessageHandler_ListByPath(t *testing.T) {
	svc := &MockMessageService{}
	svc.On("ListByThread", mock.Anything, "thread_abc").Return([]*model.Message{{ID: "m1"}}, nil)
	svc.On("ListByUser", mock.Anything, "u1").Return([]*model.Message{{ID: "m1"}, {ID: "m2"}}, nil)
	r := messageRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/messages/thread/thread_abc", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)

	w = doJSON(t, r, http.MethodGet, "/messages/user/u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 2)
}

func TestMessageHandler_Ask(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		mockSetup      func(*MockMessageService)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "accepted",
			body: map[string]any{"question": "What is Go?"},
			mockSetup: func(m *MockMessageService) {
				m.On("Ask", mock.Anything, "u1", "What is Go?").
					Return(&model.Message{ID: "m1", Role: model.RoleUser, Content: "What is Go?"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "question missing",
			body:           map[string]any{},
			mockSetup:      func(*MockMessageService) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Question is required",
		},
		{
			name: "blank question",
			body: map[string]any{"question": "  "},
			mockSetup: func(m *MockMessageService) {
				m.On("Ask", mock.Anything, "u1", "  ").
					Return(nil, fmt.Errorf("%w: %s", service.ErrInvalidInput, "Question is required"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Question is required",
		},
		{
			name: "unknown user",
			body: map[string]any{"question": "hi"},
			mockSetup: func(m *MockMessageService) {
				m.On("Ask", mock.Anything, "u1", "hi").Return(nil, service.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "User not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockMessageService{}
			tt.mockSetup(svc)

			w := doJSON(t, messageRouter(svc), http.MethodPost, "/messages/ask/u1", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decode(t, w).Msg)
			}
			svc.AssertExpectations(t)
		})
	}
}
