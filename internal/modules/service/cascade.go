package service

import (
	"context"
	"fmt"
	"time"

	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"github.com/userlink/userlink-server/internal/telemetry"
	"go.uber.org/zap"
)

// CascadeEngine owns every delete that crosses entity boundaries.
// Dependents are removed before the root record, so an interrupted
// cascade leaves orphans at worst and never dangling references.
type CascadeEngine interface {
	DeleteAssistant(ctx context.Context, id string) (*CascadeReport, error)
	DeleteUser(ctx context.Context, id string) (*CascadeReport, error)
	DeleteChatThread(ctx context.Context, id string) (*CascadeReport, error)
}

// CascadeReport summarizes what one delete removed.
type CascadeReport struct {
	Entity             string   `json:"entity"`
	ID                 string   `json:"id"`
	RemovedAssistants  int64    `json:"removedAssistants"`
	RemovedChatThreads int64    `json:"removedChatThreads"`
	RemovedMessages    int64    `json:"removedMessages"`
	RemovedFiles       int64    `json:"removedFiles"`
	UnlinkedUsers      int64    `json:"unlinkedUsers"`
	RemoteFailures     []string `json:"remoteFailures,omitempty"`
}

func (r *CascadeReport) counts() map[string]int64 {
	return map[string]int64{
		"assistants":   r.RemovedAssistants,
		"chat_threads": r.RemovedChatThreads,
		"messages":     r.RemovedMessages,
		"files":        r.RemovedFiles,
		"users":        r.UnlinkedUsers,
	}
}

// LifecycleEvent is published to the broker after a cascade commits.
type LifecycleEvent struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Report    *CascadeReport `json:"report"`
	Timestamp time.Time      `json:"timestamp"`
}

type cascadeEngine struct {
	users      repo.UserRepo
	assistants repo.AssistantRepo
	threads    repo.ChatThreadRepo
	messages   repo.MessageRepo
	files      repo.FileRepo
	remote     RemoteAssistantClient
	blobs      BlobStore
	events     EventPublisher
	log        *zap.Logger
}

type CascadeDeps struct {
	Users      repo.UserRepo
	Assistants repo.AssistantRepo
	Threads    repo.ChatThreadRepo
	Messages   repo.MessageRepo
	Files      repo.FileRepo
	Remote     RemoteAssistantClient
	// Blobs and Events are optional.
	Blobs  BlobStore
	Events EventPublisher
	Log    *zap.Logger
}

func NewCascadeEngine(d CascadeDeps) CascadeEngine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &cascadeEngine{
		users:      d.Users,
		assistants: d.Assistants,
		threads:    d.Threads,
		messages:   d.Messages,
		files:      d.Files,
		remote:     d.Remote,
		blobs:      d.Blobs,
		events:     d.Events,
		log:        log,
	}
}

func (e *cascadeEngine) DeleteAssistant(ctx context.Context, id string) (_ *CascadeReport, err error) {
	start := time.Now()
	rep := &CascadeReport{Entity: "assistant", ID: id}
	defer func() { e.finish(ctx, rep, start, err) }()

	a, err := e.assistants.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAssistantNotFound)
	}
	if err := e.purgeAssistant(ctx, a, false, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// purgeAssistant removes an assistant with its messages and files and
// unlinks its owners. Remote deletes are best-effort.
func (e *cascadeEngine) purgeAssistant(ctx context.Context, a *model.Assistant, withThread bool, rep *CascadeReport) error {
	if a.OpenAIID != "" {
		if err := e.remote.DeleteAssistant(ctx, a.OpenAIID); err != nil {
			e.remoteFailed(rep, "delete_assistant", a.OpenAIID, err)
		}
	}
	if withThread && a.ThreadID != "" {
		if err := e.remote.DeleteThread(ctx, a.ThreadID); err != nil {
			e.remoteFailed(rep, "delete_thread", a.ThreadID, err)
		}
	}

	n, err := e.messages.DeleteByThreadKeys(ctx, model.NewThreadKeySet(a.ThreadID))
	if err != nil {
		return fmt.Errorf("delete assistant messages: %w", err)
	}
	rep.RemovedMessages += n

	removed, err := e.files.DeleteByAssistant(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("delete assistant files: %w", err)
	}
	rep.RemovedFiles += int64(len(removed))
	e.dropContent(ctx, removed)

	n, err = e.users.ClearAssistant(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("unlink users: %w", err)
	}
	rep.UnlinkedUsers += n

	if err := e.assistants.Delete(ctx, a.ID); err != nil {
		// a concurrent delete got there first
		if store.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete assistant: %w", err)
	}
	rep.RemovedAssistants++
	return nil
}

func (e *cascadeEngine) DeleteUser(ctx context.Context, id string) (_ *CascadeReport, err error) {
	start := time.Now()
	rep := &CascadeReport{Entity: "user", ID: id}
	defer func() { e.finish(ctx, rep, start, err) }()

	u, err := e.users.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	if u.AssistantID != nil && *u.AssistantID != "" {
		a, err := e.assistants.Get(ctx, *u.AssistantID)
		switch {
		case err == nil:
			if err := e.purgeAssistant(ctx, a, true, rep); err != nil {
				return nil, err
			}
		case store.IsNotFound(err):
			e.log.Warn("user references a missing assistant",
				zap.String("user_id", u.ID), zap.String("assistant_id", *u.AssistantID))
		default:
			return nil, fmt.Errorf("load assistant: %w", err)
		}
	}

	threads, err := e.threads.List(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list chat threads: %w", err)
	}
	keys := model.NewThreadKeySet()
	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		keys.Union(t.Keys())
		ids = append(ids, t.ID)
	}
	n, err := e.messages.DeleteByThreadKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("delete chat thread messages: %w", err)
	}
	rep.RemovedMessages += n
	n, err = e.threads.DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("delete chat threads: %w", err)
	}
	rep.RemovedChatThreads += n

	removed, err := e.files.DeleteByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("delete user files: %w", err)
	}
	rep.RemovedFiles += int64(len(removed))
	e.dropContent(ctx, removed)

	n, err = e.messages.DeleteByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("delete user messages: %w", err)
	}
	rep.RemovedMessages += n

	if err := e.users.Delete(ctx, u.ID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return rep, nil
}

func (e *cascadeEngine) DeleteChatThread(ctx context.Context, id string) (_ *CascadeReport, err error) {
	start := time.Now()
	rep := &CascadeReport{Entity: "chat_thread", ID: id}
	defer func() { e.finish(ctx, rep, start, err) }()

	t, err := e.threads.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrChatThreadNotFound)
	}

	keys := model.NewThreadKeySet(t.ID)
	if t.OpenAIThreadID != "" {
		shared, err := e.externalKeyShared(ctx, t)
		if err != nil {
			return nil, err
		}
		if !shared {
			keys.Add(t.OpenAIThreadID)
		}
	}

	n, err := e.messages.DeleteByThreadKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("delete chat thread messages: %w", err)
	}
	rep.RemovedMessages += n

	if err := e.threads.Delete(ctx, t.ID); err != nil {
		return nil, notFound(err, ErrChatThreadNotFound)
	}
	rep.RemovedChatThreads++
	return rep, nil
}

// externalKeyShared reports whether another record still files messages under t's remote thread id.
func (e *cascadeEngine) externalKeyShared(ctx context.Context, t *model.ChatThread) (bool, error) {
	_, err := e.assistants.FindByThreadID(ctx, t.OpenAIThreadID)
	if err == nil {
		return true, nil
	}
	if !store.IsNotFound(err) {
		return false, fmt.Errorf("lookup assistant by thread: %w", err)
	}
	others, err := e.threads.ListByExternalID(ctx, t.OpenAIThreadID)
	if err != nil {
		return false, fmt.Errorf("lookup chat threads by remote id: %w", err)
	}
	for _, o := range others {
		if o.ID != t.ID {
			return true, nil
		}
	}
	return false, nil
}

func (e *cascadeEngine) dropContent(ctx context.Context, files []*model.File) {
	if e.blobs == nil {
		return
	}
	for _, f := range files {
		if f.StorageKey == "" {
			continue
		}
		if err := e.blobs.Delete(ctx, f.StorageKey); err != nil {
			e.log.Warn("delete file content failed",
				zap.String("file_id", f.ID), zap.String("key", f.StorageKey), zap.Error(err))
		}
	}
}

func (e *cascadeEngine) remoteFailed(rep *CascadeReport, op, id string, err error) {
	rep.RemoteFailures = append(rep.RemoteFailures, op+":"+id)
	e.log.Warn("best-effort remote call failed",
		zap.String("op", op), zap.String("remote_id", id), zap.Error(err))
}

func (e *cascadeEngine) finish(ctx context.Context, rep *CascadeReport, start time.Time, err error) {
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	telemetry.RecordCascade(ctx, rep.Entity, elapsed, rep.counts(), len(rep.RemoteFailures), err)
	if err != nil {
		return
	}
	e.log.Info("cascade delete finished",
		zap.String("entity", rep.Entity),
		zap.String("id", rep.ID),
		zap.Int64("messages", rep.RemovedMessages),
		zap.Int64("files", rep.RemovedFiles),
		zap.Int64("chat_threads", rep.RemovedChatThreads),
		zap.Int64("unlinked_users", rep.UnlinkedUsers),
		zap.Int("remote_failures", len(rep.RemoteFailures)))

	if e.events == nil {
		return
	}
	evt := LifecycleEvent{Type: rep.Entity + ".deleted", ID: rep.ID, Report: rep, Timestamp: time.Now().UTC()}
	if err := e.events.Publish(ctx, evt.Type, evt); err != nil {
		e.log.Warn("publish lifecycle event failed", zap.String("type", evt.Type), zap.Error(err))
	}
}
