package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"github.com/userlink/userlink-server/internal/pkg/utils/secrets"
)

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id string) (*CascadeReport, error)
}

type CreateUserInput struct {
	Name        string
	Username    string
	Email       string
	Password    string
	Role        string
	AssistantID string
}

// UpdateUserInput is a partial merge; nil fields are left untouched.
// ClearAssistant distinguishes an explicit null from an absent assistantId.
type UpdateUserInput struct {
	Name           *string
	Email          *string
	Password       *string
	Role           *string
	AssistantID    *string
	ClearAssistant bool
}

type userService struct {
	users      repo.UserRepo
	assistants repo.AssistantRepo
	cascade    CascadeEngine
	pepper     string
}

func NewUserService(users repo.UserRepo, assistants repo.AssistantRepo, cascade CascadeEngine, pepper string) UserService {
	return &userService{users: users, assistants: assistants, cascade: cascade, pepper: pepper}
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(in.Username)
	}
	if name == "" {
		return nil, invalid("Name is required")
	}

	u := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      in.Role,
		CreatedAt: time.Now().UTC(),
	}
	if u.Role == "" {
		u.Role = "user"
	}

	if email := strings.TrimSpace(in.Email); email != "" {
		if err := s.ensureEmailFree(ctx, email, ""); err != nil {
			return nil, err
		}
		u.Email = &email
	}
	if in.AssistantID != "" {
		if err := s.ensureAssistant(ctx, in.AssistantID); err != nil {
			return nil, err
		}
		u.AssistantID = &in.AssistantID
	}
	if in.Password != "" {
		hash, err := secrets.HashPassword(in.Password, s.pepper)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u.Sanitized(), nil
}

func (s *userService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

func (s *userService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	if _, err := s.users.Get(ctx, id); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	patch := store.Patch{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("Name is required")
		}
		patch["name"] = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			patch[repo.FieldEmail] = nil
		} else {
			if err := s.ensureEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
			patch[repo.FieldEmail] = email
		}
	}
	if in.Role != nil {
		patch["role"] = *in.Role
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := secrets.HashPassword(*in.Password, s.pepper)
		if err != nil {
			return nil, err
		}
		patch["password"] = hash
	}
	switch {
	case in.ClearAssistant || (in.AssistantID != nil && *in.AssistantID == ""):
		patch[repo.FieldAssistantID] = nil
	case in.AssistantID != nil:
		if err := s.ensureAssistant(ctx, *in.AssistantID); err != nil {
			return nil, err
		}
		patch[repo.FieldAssistantID] = *in.AssistantID
	}
	patch[repo.FieldUpdatedAt] = time.Now().UTC()

	u, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u.Sanitized(), nil
}

func (s *userService) Delete(ctx context.Context, id string) (*CascadeReport, error) {
	return s.cascade.DeleteUser(ctx, id)
}

func (s *userService) ensureEmailFree(ctx context.Context, email, self string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != self {
			return ErrUserExists
		}
		return nil
	case store.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func (s *userService) ensureAssistant(ctx context.Context, id string) error {
	if _, err := s.assistants.Get(ctx, id); err != nil {
		if store.IsNotFound(err) {
			return invalid("assistant " + id + " does not exist")
		}
		return err
	}
	return nil
}
