package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
)

type ChatThreadService interface {
	Create(ctx context.Context, in CreateChatThreadInput) (*model.ChatThread, error)
	Get(ctx context.Context, id string) (*model.ChatThread, error)
	List(ctx context.Context, userID string) ([]*model.ChatThread, error)
	Update(ctx context.Context, id string, in UpdateChatThreadInput) (*model.ChatThread, error)
	Delete(ctx context.Context, id string) (*CascadeReport, error)
	Messages(ctx context.Context, id string) ([]*model.Message, error)
	AddMessage(ctx context.Context, id string, in CreateMessageInput) (*model.Message, error)
}

type CreateChatThreadInput struct {
	Name           string
	Title          string
	Description    string
	UserID         string
	AssistantID    string
	OpenAIThreadID string
	Members        []string
}

type UpdateChatThreadInput struct {
	Name        *string
	Title       *string
	Description *string
	Members     []string
}

type chatThreadService struct {
	threads  repo.ChatThreadRepo
	messages repo.MessageRepo
	msgSvc   MessageService
	cascade  CascadeEngine
}

func NewChatThreadService(threads repo.ChatThreadRepo, messages repo.MessageRepo, msgSvc MessageService, cascade CascadeEngine) ChatThreadService {
	return &chatThreadService{threads: threads, messages: messages, msgSvc: msgSvc, cascade: cascade}
}

func (s *chatThreadService) Create(ctx context.Context, in CreateChatThreadInput) (*model.ChatThread, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	owner := in.UserID
	if owner == "" {
		owner = model.AnonymousOwner
	}
	members := in.Members
	if !slices.Contains(members, owner) {
		members = append([]string{owner}, members...)
	}

	t := &model.ChatThread{
		ID:             uuid.NewString(),
		Name:           name,
		Title:          in.Title,
		Description:    in.Description,
		UserID:         owner,
		AssistantID:    in.AssistantID,
		OpenAIThreadID: in.OpenAIThreadID,
		CreatedBy:      owner,
		Members:        members,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.threads.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *chatThreadService) Get(ctx context.Context, id string) (*model.ChatThread, error) {
	t, err := s.threads.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrChatThreadNotFound)
	}
	return t, nil
}

func (s *chatThreadService) List(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	return s.threads.List(ctx, userID)
}

func (s *chatThreadService) Update(ctx context.Context, id string, in UpdateChatThreadInput) (*model.ChatThread, error) {
	patch := store.Patch{repo.FieldUpdatedAt: time.Now().UTC()}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("Name is required")
		}
		patch["name"] = name
	}
	if in.Title != nil {
		patch["title"] = *in.Title
	}
	if in.Description != nil {
		patch["description"] = *in.Description
	}
	if in.Members != nil {
		patch["members"] = in.Members
	}
	t, err := s.threads.Update(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, ErrChatThreadNotFound)
	}
	return t, nil
}

func (s *chatThreadService) Delete(ctx context.Context, id string) (*CascadeReport, error) {
	return s.cascade.DeleteChatThread(ctx, id)
}

// Messages lists the thread's messages under both its local and remote key.
func (s *chatThreadService) Messages(ctx context.Context, id string) ([]*model.Message, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByThreadKeys(ctx, t.Keys())
	if err != nil {
		return nil, err
	}
	return sortChronological(msgs), nil
}

func (s *chatThreadService) AddMessage(ctx context.Context, id string, in CreateMessageInput) (*model.Message, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ThreadID = t.ID
	return s.msgSvc.Create(ctx, in)
}
