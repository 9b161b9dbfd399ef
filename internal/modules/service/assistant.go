package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/userlink/userlink-server/internal/infra/httpclient"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"go.uber.org/zap"
)

type AssistantService interface {
	Create(ctx context.Context, in CreateAssistantInput) (*model.Assistant, error)
	Get(ctx context.Context, id string) (*model.Assistant, error)
	List(ctx context.Context, userID string) ([]*model.Assistant, error)
	Update(ctx context.Context, id string, in UpdateAssistantInput) (*model.Assistant, error)
	Delete(ctx context.Context, id string) (*CascadeReport, error)
}

type CreateAssistantInput struct {
	Name         string
	Instructions string
	Description  string
	Model        string
	Tools        []map[string]any
	OwnerUserID  string
}

type UpdateAssistantInput struct {
	Name         *string
	Instructions *string
	Description  *string
	Model        *string
	Tools        []map[string]any
}

type assistantService struct {
	assistants   repo.AssistantRepo
	users        repo.UserRepo
	threads      repo.ChatThreadRepo
	remote       RemoteAssistantClient
	cascade      CascadeEngine
	defaultModel string
	log          *zap.Logger
}

func NewAssistantService(
	assistants repo.AssistantRepo,
	users repo.UserRepo,
	threads repo.ChatThreadRepo,
	remote RemoteAssistantClient,
	cascade CascadeEngine,
	defaultModel string,
	log *zap.Logger,
) AssistantService {
	if defaultModel == "" {
		defaultModel = model.DefaultAssistantModel
	}
	return &assistantService{
		assistants:   assistants,
		users:        users,
		threads:      threads,
		remote:       remote,
		cascade:      cascade,
		defaultModel: defaultModel,
		log:          log,
	}
}

// Create provisions the remote assistant and its companion thread, then
// records both locally. With an owner it also opens the owner's chat thread
// and links the assistant to the user.
func (s *assistantService) Create(ctx context.Context, in CreateAssistantInput) (*model.Assistant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	if in.OwnerUserID != "" {
		if _, err := s.users.Get(ctx, in.OwnerUserID); err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
	}

	mdl := in.Model
	if mdl == "" {
		mdl = s.defaultModel
	}
	tools := in.Tools
	if tools == nil {
		tools = []map[string]any{}
	}

	remoteAsst, err := s.remote.CreateAssistant(ctx, httpclient.AssistantConfig{
		Name:         name,
		Instructions: in.Instructions,
		Description:  in.Description,
		Model:        mdl,
		Tools:        tools,
	})
	if err != nil {
		return nil, upstream("create assistant", err)
	}

	remoteThread, err := s.remote.CreateThread(ctx)
	if err != nil {
		if derr := s.remote.DeleteAssistant(ctx, remoteAsst.ID); derr != nil {
			s.log.Warn("compensating remote assistant delete failed",
				zap.String("remote_id", remoteAsst.ID), zap.Error(derr))
		}
		return nil, upstream("create thread", err)
	}

	now := time.Now().UTC()
	a := &model.Assistant{
		ID:           uuid.NewString(),
		OpenAIID:     remoteAsst.ID,
		Name:         name,
		Instructions: in.Instructions,
		Description:  in.Description,
		Model:        mdl,
		Tools:        tools,
		ThreadID:     remoteThread.ID,
		CreatedAt:    now,
	}
	if err := s.assistants.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("store assistant: %w", err)
	}

	if in.OwnerUserID == "" {
		return a, nil
	}
	ct := &model.ChatThread{
		ID:             uuid.NewString(),
		Name:           fmt.Sprintf("%s's Thread", name),
		UserID:         in.OwnerUserID,
		AssistantID:    a.ID,
		OpenAIThreadID: remoteThread.ID,
		CreatedBy:      in.OwnerUserID,
		Members:        []string{in.OwnerUserID},
		CreatedAt:      now,
	}
	if err := s.threads.Create(ctx, ct); err != nil {
		return nil, fmt.Errorf("store owner chat thread: %w", err)
	}
	if _, err := s.users.Update(ctx, in.OwnerUserID, store.Patch{
		repo.FieldAssistantID: a.ID,
		repo.FieldUpdatedAt:   now,
	}); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return a, nil
}

func (s *assistantService) Get(ctx context.Context, id string) (*model.Assistant, error) {
	a, err := s.assistants.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAssistantNotFound)
	}
	return a, nil
}

// List returns every assistant, or only the one linked to userID when given.
func (s *assistantService) List(ctx context.Context, userID string) ([]*model.Assistant, error) {
	if userID == "" {
		return s.assistants.List(ctx)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if u.AssistantID == nil || *u.AssistantID == "" {
		return []*model.Assistant{}, nil
	}
	a, err := s.assistants.Get(ctx, *u.AssistantID)
	if err != nil {
		if store.IsNotFound(err) {
			return []*model.Assistant{}, nil
		}
		return nil, err
	}
	return []*model.Assistant{a}, nil
}

// Update pushes the merged configuration to the provider first; a remote
// failure leaves the local record untouched.
func (s *assistantService) Update(ctx context.Context, id string, in UpdateAssistantInput) (*model.Assistant, error) {
	a, err := s.assistants.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAssistantNotFound)
	}

	// empty values keep what is stored
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		a.Name = strings.TrimSpace(*in.Name)
	}
	a.Instructions = orCurrent(in.Instructions, a.Instructions)
	a.Description = orCurrent(in.Description, a.Description)
	a.Model = orCurrent(in.Model, a.Model)
	if in.Tools != nil {
		a.Tools = in.Tools
	}
	if a.Tools == nil {
		a.Tools = []map[string]any{}
	}

	if _, err := s.remote.UpdateAssistant(ctx, a.OpenAIID, httpclient.AssistantConfig{
		Name:         a.Name,
		Instructions: a.Instructions,
		Description:  a.Description,
		Model:        a.Model,
		Tools:        a.Tools,
	}); err != nil {
		return nil, upstream("update assistant", err)
	}

	updated, err := s.assistants.Update(ctx, id, store.Patch{
		"name":              a.Name,
		"instructions":      a.Instructions,
		"description":       a.Description,
		"model":             a.Model,
		"tools":             a.Tools,
		repo.FieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, notFound(err, ErrAssistantNotFound)
	}
	return updated, nil
}

func orCurrent(v *string, current string) string {
	if v == nil || *v == "" {
		return current
	}
	return *v
}

func (s *assistantService) Delete(ctx context.Context, id string) (*CascadeReport, error) {
	return s.cascade.DeleteAssistant(ctx, id)
}
