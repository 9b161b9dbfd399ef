package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
)

func strPtr(s string) *string { return &s }

// seedOwnedAssistant creates alice with assistant bot1 and data under every key space.
func seedOwnedAssistant(t *testing.T, f *fixture) (*model.User, *model.Assistant, *model.ChatThread) {
	t.Helper()
	ctx := context.Background()

	alice, err := f.userSvc.Create(ctx, CreateUserInput{Name: "alice"})
	require.NoError(t, err)
	bot, err := f.assistantSvc.Create(ctx, CreateAssistantInput{Name: "bot1", OwnerUserID: alice.ID})
	require.NoError(t, err)
	threads, err := f.threads.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, threads, 1)

	side, err := f.threadSvc.Create(ctx, CreateChatThreadInput{Name: "side", UserID: alice.ID, OpenAIThreadID: "thread_side"})
	require.NoError(t, err)

	now := time.Now().UTC()
	f.plantMessage(t, "on-assistant-thread", bot.ThreadID, now)
	f.plantMessage(t, "on-owner-chat-thread", threads[0].ID, now)
	f.plantMessage(t, "on-side-local", side.ID, now)
	f.plantMessage(t, "on-side-remote", "thread_side", now)
	require.NoError(t, f.messages.Create(ctx, &model.Message{
		ID: "authored-elsewhere", ThreadID: "somewhere", Content: "x", Role: model.RoleUser, UserID: alice.ID, CreatedAt: now,
	}))
	f.plantMessage(t, "unrelated", "thread_other", now)

	require.NoError(t, f.files.Create(ctx, &model.File{ID: "f-asst", UserID: "someone", AssistantID: bot.ID, StorageKey: "files/f-asst/a.txt"}))
	require.NoError(t, f.files.Create(ctx, &model.File{ID: "f-user", UserID: alice.ID}))
	require.NoError(t, f.files.Create(ctx, &model.File{ID: "f-other", UserID: "someone"}))
	require.NoError(t, f.blobs.Upload(ctx, "files/f-asst/a.txt", "text/plain", strings.NewReader("content")))

	return alice, bot, threads[0]
}

func TestCascade_DeleteUser_RemoteFailureStillCleansLocalState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice, bot, ownerThread := seedOwnedAssistant(t, f)
	f.remote.deleteErr = errors.New("provider unavailable")

	rep, err := f.userSvc.Delete(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{bot.OpenAIID}, f.remote.deletedAssistants)
	assert.Equal(t, []string{bot.ThreadID}, f.remote.deletedThreads)
	assert.Len(t, rep.RemoteFailures, 2)
	assert.Equal(t, int64(1), rep.RemovedAssistants)
	assert.Equal(t, int64(2), rep.RemovedChatThreads)
	assert.Equal(t, int64(5), rep.RemovedMessages)
	assert.Equal(t, int64(2), rep.RemovedFiles)

	assert.Empty(t, f.messagesUnder(t, bot.ThreadID, ownerThread.ID, "thread_side", "somewhere"))
	assert.Equal(t, []string{"unrelated"}, ids(f.messagesUnder(t, "thread_other")))

	left, err := f.files.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "f-other", left[0].ID)
	assert.False(t, f.blobs.has("files/f-asst/a.txt"))

	threads, err := f.threads.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, threads)

	_, err = f.userSvc.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.assistantSvc.Get(ctx, bot.ID)
	assert.ErrorIs(t, err, ErrAssistantNotFound)
}

func TestCascade_AliceBotScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice, err := f.userSvc.Create(ctx, CreateUserInput{Name: "alice"})
	require.NoError(t, err)
	bot, err := f.assistantSvc.Create(ctx, CreateAssistantInput{Name: "bot1", OwnerUserID: alice.ID})
	require.NoError(t, err)
	_, err = f.messageSvc.Create(ctx, CreateMessageInput{ThreadID: bot.ThreadID, Content: "hi", Role: "user"})
	require.NoError(t, err)

	_, err = f.userSvc.Delete(ctx, alice.ID)
	require.NoError(t, err)

	_, err = f.assistantSvc.Get(ctx, bot.ID)
	assert.ErrorIs(t, err, ErrAssistantNotFound)
	msgs, err := f.messageSvc.List(ctx, bot.ThreadID, "")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	_, err = f.userSvc.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCascade_DeleteAssistant_UnlinksEveryUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice, bot, ownerThread := seedOwnedAssistant(t, f)

	bob, err := f.userSvc.Create(ctx, CreateUserInput{Name: "bob", AssistantID: bot.ID})
	require.NoError(t, err)
	require.NotNil(t, bob.AssistantID)

	f.remote.deleteErr = errors.New("timeout")
	rep, err := f.assistantSvc.Delete(ctx, bot.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), rep.UnlinkedUsers)
	assert.Equal(t, int64(1), rep.RemovedMessages)
	assert.Equal(t, int64(1), rep.RemovedFiles)
	assert.Equal(t, []string{"delete_assistant:" + bot.OpenAIID}, rep.RemoteFailures)
	assert.Empty(t, f.remote.deletedThreads)

	for _, id := range []string{alice.ID, bob.ID} {
		u, err := f.users.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, u.AssistantID, id)
	}
	assert.Empty(t, f.messagesUnder(t, bot.ThreadID))
	assert.Len(t, f.messagesUnder(t, ownerThread.ID), 1)

	_, err = f.files.Get(ctx, "f-asst")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.assistants.Get(ctx, bot.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCascade_MissingRootHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.plantMessage(t, "m1", "ghost", time.Now())

	_, err := f.cascade.DeleteUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.cascade.DeleteAssistant(ctx, "ghost")
	assert.ErrorIs(t, err, ErrAssistantNotFound)
	_, err = f.cascade.DeleteChatThread(ctx, "ghost")
	assert.ErrorIs(t, err, ErrChatThreadNotFound)

	assert.Zero(t, f.remote.calls())
	assert.Len(t, f.messagesUnder(t, "ghost"), 1)
}

func TestCascade_DeleteAssistantTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, bot, ownerThread := seedOwnedAssistant(t, f)

	_, err := f.assistantSvc.Delete(ctx, bot.ID)
	require.NoError(t, err)
	calls := f.remote.calls()
	files, err := f.files.List(ctx, "")
	require.NoError(t, err)

	_, err = f.assistantSvc.Delete(ctx, bot.ID)
	assert.ErrorIs(t, err, ErrAssistantNotFound)

	assert.Equal(t, calls, f.remote.calls())
	left, err := f.files.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, left, len(files))
	assert.Len(t, f.messagesUnder(t, ownerThread.ID), 1)
	assert.Len(t, f.messagesUnder(t, "thread_other"), 1)
}

func TestCascade_DeleteBareUserLeavesOthersUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice, bot, ownerThread := seedOwnedAssistant(t, f)
	bob, err := f.userSvc.Create(ctx, CreateUserInput{Name: "bob"})
	require.NoError(t, err)

	keys := []string{bot.ThreadID, ownerThread.ID, "thread_side", "somewhere", "thread_other"}
	before := ids(f.messagesUnder(t, keys...))
	calls := f.remote.calls()

	rep, err := f.userSvc.Delete(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, rep.RemovedAssistants)
	assert.Zero(t, rep.RemovedChatThreads)
	assert.Zero(t, rep.RemovedMessages)
	assert.Zero(t, rep.RemovedFiles)
	assert.Equal(t, calls, f.remote.calls())

	assert.ElementsMatch(t, before, ids(f.messagesUnder(t, keys...)))
	u, err := f.userSvc.Get(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, u.AssistantID)
	assert.Equal(t, bot.ID, *u.AssistantID)
	_, err = f.assistantSvc.Get(ctx, bot.ID)
	assert.NoError(t, err)
	threads, err := f.threads.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 2)
	files, err := f.files.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.True(t, f.blobs.has("files/f-asst/a.txt"))

	_, err = f.userSvc.Get(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCascade_DeleteUser_DanglingAssistantReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.users.Create(ctx, &model.User{ID: "u1", Name: "carol", AssistantID: strPtr("gone")}))

	rep, err := f.cascade.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, rep.RemovedAssistants)
	assert.Zero(t, f.remote.calls())
	_, err = f.users.Get(ctx, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCascade_DeleteChatThread_ExternalKey(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("private remote key is purged", func(t *testing.T) {
		f := newFixture(t)
		ct, err := f.threadSvc.Create(ctx, CreateChatThreadInput{Name: "solo", UserID: "u1", OpenAIThreadID: "thread_solo"})
		require.NoError(t, err)
		f.plantMessage(t, "local", ct.ID, now)
		f.plantMessage(t, "remote", "thread_solo", now)

		rep, err := f.threadSvc.Delete(ctx, ct.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rep.RemovedMessages)
		assert.Empty(t, f.messagesUnder(t, ct.ID, "thread_solo"))
		assert.Zero(t, f.remote.calls())
	})

	t.Run("remote key shared with an assistant survives", func(t *testing.T) {
		f := newFixture(t)
		_, bot, ownerThread := seedOwnedAssistant(t, f)

		rep, err := f.threadSvc.Delete(ctx, ownerThread.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rep.RemovedMessages)
		assert.Len(t, f.messagesUnder(t, bot.ThreadID), 1)

		_, err = f.threadSvc.Get(ctx, ownerThread.ID)
		assert.ErrorIs(t, err, ErrChatThreadNotFound)
	})

	t.Run("remote key shared with another chat thread survives", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.threadSvc.Create(ctx, CreateChatThreadInput{Name: "a", OpenAIThreadID: "thread_shared"})
		require.NoError(t, err)
		_, err = f.threadSvc.Create(ctx, CreateChatThreadInput{Name: "b", OpenAIThreadID: "thread_shared"})
		require.NoError(t, err)
		f.plantMessage(t, "remote", "thread_shared", now)

		_, err = f.threadSvc.Delete(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, f.messagesUnder(t, "thread_shared"), 1)
	})
}

func TestCascade_PublishesLifecycleEvent(t *testing.T) {
	ctx := context.Background()
	events := &MockEventPublisher{}
	events.On("Publish", mock.Anything, "user.deleted", mock.MatchedBy(func(e LifecycleEvent) bool {
		return e.Type == "user.deleted" && e.Report != nil && e.Report.Entity == "user"
	})).Return(errors.New("broker down")).Once()

	f := newFixture(t, withEvents(events))
	u, err := f.userSvc.Create(ctx, CreateUserInput{Name: "dave"})
	require.NoError(t, err)

	_, err = f.userSvc.Delete(ctx, u.ID)
	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestCascade_NoEventOnFailure(t *testing.T) {
	events := &MockEventPublisher{}
	f := newFixture(t, withEvents(events))

	_, err := f.cascade.DeleteUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}
