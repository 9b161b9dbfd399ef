package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/userlink/userlink-server/internal/infra/httpclient"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// fakeRemote is a scriptable stand-in for the provider API.
type fakeRemote struct {
	mu  sync.Mutex
	seq int

	createAssistantErr error
	createThreadErr    error
	updateErr          error
	deleteErr          error

	created           []string
	updated           []string
	deletedAssistants []string
	deletedThreads    []string
}

func (f *fakeRemote) CreateAssistant(_ context.Context, _ httpclient.AssistantConfig) (*httpclient.RemoteObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createAssistantErr != nil {
		return nil, f.createAssistantErr
	}
	f.seq++
	id := fmt.Sprintf("asst_%d", f.seq)
	f.created = append(f.created, id)
	return &httpclient.RemoteObject{ID: id, Object: "assistant"}, nil
}

func (f *fakeRemote) UpdateAssistant(_ context.Context, id string, _ httpclient.AssistantConfig) (*httpclient.RemoteObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, id)
	return &httpclient.RemoteObject{ID: id, Object: "assistant"}, nil
}

func (f *fakeRemote) DeleteAssistant(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedAssistants = append(f.deletedAssistants, id)
	return f.deleteErr
}

func (f *fakeRemote) CreateThread(_ context.Context) (*httpclient.RemoteObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createThreadErr != nil {
		return nil, f.createThreadErr
	}
	f.seq++
	return &httpclient.RemoteObject{ID: fmt.Sprintf("thread_%d", f.seq), Object: "thread"}, nil
}

func (f *fakeRemote) DeleteThread(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedThreads = append(f.deletedThreads, id)
	return f.deleteErr
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created) + len(f.updated) + len(f.deletedAssistants) + len(f.deletedThreads)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*model.Message
}

func (p *recordingPublisher) PublishMessage(_ context.Context, m *model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, m)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	deleteErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *fakeBlobs) Upload(_ context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *fakeBlobs) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://blob.test/" + key + "?sig=1", nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	return nil
}

func (b *fakeBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

type fixture struct {
	store      store.Store
	users      repo.UserRepo
	assistants repo.AssistantRepo
	threads    repo.ChatThreadRepo
	messages   repo.MessageRepo
	files      repo.FileRepo

	remote *fakeRemote
	blobs  *fakeBlobs
	pub    *recordingPublisher

	cascade      CascadeEngine
	userSvc      UserService
	assistantSvc AssistantService
	threadSvc    ChatThreadService
	messageSvc   MessageService
	fileSvc      FileService
}

type fixtureOption func(*CascadeDeps)

func withEvents(e EventPublisher) fixtureOption {
	return func(d *CascadeDeps) { d.Events = e }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	s, err := store.NewFileStore(afero.NewMemMapFs(), "/data/db.json")
	require.NoError(t, err)
	require.NoError(t, s.EnsureCollections(context.Background()))

	log := zaptest.NewLogger(t)
	f := &fixture{
		store:      s,
		users:      repo.NewUserRepo(s),
		assistants: repo.NewAssistantRepo(s),
		threads:    repo.NewChatThreadRepo(s),
		messages:   repo.NewMessageRepo(s),
		files:      repo.NewFileRepo(s),
		remote:     &fakeRemote{},
		blobs:      newFakeBlobs(),
		pub:        &recordingPublisher{},
	}

	deps := CascadeDeps{
		Users:      f.users,
		Assistants: f.assistants,
		Threads:    f.threads,
		Messages:   f.messages,
		Files:      f.files,
		Remote:     f.remote,
		Blobs:      f.blobs,
		Log:        log,
	}
	for _, o := range opts {
		o(&deps)
	}
	f.cascade = NewCascadeEngine(deps)

	f.messageSvc = NewMessageService(MessageServiceDeps{
		Messages:   f.messages,
		Threads:    f.threads,
		Users:      f.users,
		Assistants: f.assistants,
		Publisher:  f.pub,
		ReplyDelay: 10 * time.Millisecond,
		Log:        zap.NewNop(),
	})
	f.userSvc = NewUserService(f.users, f.assistants, f.cascade, "pepper")
	f.assistantSvc = NewAssistantService(f.assistants, f.users, f.threads, f.remote, f.cascade, "", log)
	f.threadSvc = NewChatThreadService(f.threads, f.messages, f.messageSvc, f.cascade)
	f.fileSvc = NewFileService(f.files, f.blobs, "https://example.com/files", time.Minute, log)
	return f
}

func (f *fixture) plantMessage(t *testing.T, id, threadID string, at time.Time) {
	t.Helper()
	require.NoError(t, f.messages.Create(context.Background(), &model.Message{
		ID: id, ThreadID: threadID, Content: id, Role: model.RoleUser, CreatedAt: at,
	}))
}

func (f *fixture) messagesUnder(t *testing.T, keys ...string) []*model.Message {
	t.Helper()
	msgs, err := f.messages.ListByThreadKeys(context.Background(), model.NewThreadKeySet(keys...))
	require.NoError(t, err)
	return msgs
}

func ids(msgs []*model.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
