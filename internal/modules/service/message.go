package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/userlink/userlink-server/internal/infra/llm"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"go.uber.org/zap"
)

const DefaultReplyDelay = time.Second

type MessageService interface {
	Create(ctx context.Context, in CreateMessageInput) (*model.Message, error)
	List(ctx context.Context, threadID, userID string) ([]*model.Message, error)
	ListByThread(ctx context.Context, threadID string) ([]*model.Message, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Message, error)
	Ask(ctx context.Context, userID, question string) (*model.Message, error)
}

type CreateMessageInput struct {
	ThreadID string
	Content  string
	Role     string
	UserID   string
}

type MessageServiceDeps struct {
	Messages   repo.MessageRepo
	Threads    repo.ChatThreadRepo
	Users      repo.UserRepo
	Assistants repo.AssistantRepo
	Publisher  MessagePublisher
	Responder  Responder
	ReplyDelay time.Duration
	Log        *zap.Logger
}

type messageService struct {
	messages   repo.MessageRepo
	threads    repo.ChatThreadRepo
	users      repo.UserRepo
	assistants repo.AssistantRepo
	publisher  MessagePublisher
	responder  Responder
	replyDelay time.Duration
	log        *zap.Logger
}

func NewMessageService(d MessageServiceDeps) MessageService {
	s := &messageService{
		messages:   d.Messages,
		threads:    d.Threads,
		users:      d.Users,
		assistants: d.Assistants,
		publisher:  d.Publisher,
		responder:  d.Responder,
		replyDelay: d.ReplyDelay,
		log:        d.Log,
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.responder == nil {
		s.responder = llm.NewMock()
	}
	if s.replyDelay <= 0 {
		s.replyDelay = DefaultReplyDelay
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Create stores a message under any thread key, known or not, and
// broadcasts it once the write succeeded.
func (s *messageService) Create(ctx context.Context, in CreateMessageInput) (*model.Message, error) {
	if strings.TrimSpace(in.ThreadID) == "" {
		return nil, invalid("threadId is required")
	}
	if in.Content == "" {
		return nil, invalid("content is required")
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, invalid(fmt.Sprintf("role must be one of user, assistant, system; got %q", role))
	}
	return s.store(ctx, &model.Message{
		ID:        uuid.NewString(),
		ThreadID:  in.ThreadID,
		Content:   in.Content,
		Role:      role,
		UserID:    in.UserID,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *messageService) store(ctx context.Context, m *model.Message) (*model.Message, error) {
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publisher.PublishMessage(ctx, m)
	return m, nil
}

// List filters by thread key and, with userID, narrows to the user's
// assistant thread. A user without an assistant thread has no messages here.
func (s *messageService) List(ctx context.Context, threadID, userID string) ([]*model.Message, error) {
	if userID == "" {
		msgs, err := s.messages.List(ctx, threadID, "")
		if err != nil {
			return nil, err
		}
		return sortChronological(msgs), nil
	}

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	key, err := s.assistantThread(ctx, u)
	if err != nil {
		return nil, err
	}
	if key == "" || (threadID != "" && threadID != key) {
		return []*model.Message{}, nil
	}
	msgs, err := s.messages.List(ctx, key, "")
	if err != nil {
		return nil, err
	}
	return sortChronological(msgs), nil
}

func (s *messageService) ListByThread(ctx context.Context, threadID string) ([]*model.Message, error) {
	msgs, err := s.messages.ListByThreadKeys(ctx, model.NewThreadKeySet(threadID))
	if err != nil {
		return nil, err
	}
	return sortChronological(msgs), nil
}

// ListByUser unions the messages of every chat thread the user owns, under
// both local and remote keys, with the messages of the user's assistant thread.
func (s *messageService) ListByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	threads, err := s.threads.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	keys := model.NewThreadKeySet()
	for _, t := range threads {
		keys.Union(t.Keys())
	}

	u, err := s.users.Get(ctx, userID)
	switch {
	case err == nil:
		key, err := s.assistantThread(ctx, u)
		if err != nil {
			return nil, err
		}
		keys.Add(key)
	case !store.IsNotFound(err):
		return nil, err
	}

	msgs, err := s.messages.ListByThreadKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	return sortChronological(dedupe(msgs)), nil
}

// assistantThread returns the remote thread id of the user's assistant, or "".
func (s *messageService) assistantThread(ctx context.Context, u *model.User) (string, error) {
	if u.AssistantID == nil || *u.AssistantID == "" {
		return "", nil
	}
	a, err := s.assistants.Get(ctx, *u.AssistantID)
	if err != nil {
		if store.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return a.ThreadID, nil
}

// Ask files the question on the user's current chat thread, creating one on
// first use, and schedules the assistant reply. The reply is written after
// the delay whether or not the thread still exists.
func (s *messageService) Ask(ctx context.Context, userID, question string) (*model.Message, error) {
	if strings.TrimSpace(question) == "" {
		return nil, invalid("question is required")
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	t, err := s.threads.FirstByUser(ctx, userID)
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, err
		}
		t = &model.ChatThread{
			ID:             uuid.NewString(),
			Name:           fmt.Sprintf("%s's Thread", u.Name),
			UserID:         userID,
			OpenAIThreadID: "thread_" + uuid.NewString(),
			CreatedBy:      userID,
			Members:        []string{userID},
			CreatedAt:      time.Now().UTC(),
		}
		if u.AssistantID != nil {
			t.AssistantID = *u.AssistantID
		}
		if err := s.threads.Create(ctx, t); err != nil {
			return nil, err
		}
	}

	q, err := s.store(ctx, &model.Message{
		ID:        uuid.NewString(),
		ThreadID:  t.ID,
		Content:   question,
		Role:      model.RoleUser,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	replyCtx := context.WithoutCancel(ctx)
	time.AfterFunc(s.replyDelay, func() { s.reply(replyCtx, t.ID, question) })
	return q, nil
}

func (s *messageService) reply(ctx context.Context, threadID, question string) {
	text, err := s.responder.Reply(ctx, question)
	if err != nil {
		s.log.Warn("reply generation failed, using canned reply", zap.String("thread_id", threadID), zap.Error(err))
		text = llm.MockReply(question)
	}
	if _, err := s.store(ctx, &model.Message{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Content:   text,
		Role:      model.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.log.Error("store deferred reply", zap.String("thread_id", threadID), zap.Error(err))
	}
}

func dedupe(msgs []*model.Message) []*model.Message {
	seen := make(map[string]struct{}, len(msgs))
	out := msgs[:0]
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func sortChronological(msgs []*model.Message) []*model.Message {
	if msgs == nil {
		return []*model.Message{}
	}
	slices.SortStableFunc(msgs, func(a, b *model.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return msgs
}
