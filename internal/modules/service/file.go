package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
	"github.com/userlink/userlink-server/internal/modules/repo"
	"github.com/userlink/userlink-server/internal/pkg/utils/mime"
	"go.uber.org/zap"
)

type FileService interface {
	Create(ctx context.Context, in CreateFileInput) (*model.File, error)
	Get(ctx context.Context, id string) (*model.File, error)
	List(ctx context.Context, userID string) ([]*model.File, error)
	Delete(ctx context.Context, id string) error
	Content(ctx context.Context, id string) (*FileContent, error)
	Upload(ctx context.Context, id, filename string, data []byte) (*model.File, error)
	DownloadURL(ctx context.Context, id string) (string, error)
}

type CreateFileInput struct {
	UserID       string
	AssistantID  string
	Name         string
	Size         int64
	Type         string
	OpenAIFileID string
}

// FileContent is either placeholder text or a link to the stored object.
type FileContent struct {
	Content string `json:"content,omitempty"`
	URL     string `json:"url"`
}

type fileService struct {
	files         repo.FileRepo
	blobs         BlobStore
	placeholder   string
	presignExpire time.Duration
	log           *zap.Logger
}

// NewFileService accepts a nil blobs when object storage is disabled.
func NewFileService(files repo.FileRepo, blobs BlobStore, placeholderBaseURL string, presignExpire time.Duration, log *zap.Logger) FileService {
	if presignExpire <= 0 {
		presignExpire = 15 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &fileService{
		files:         files,
		blobs:         blobs,
		placeholder:   strings.TrimSuffix(placeholderBaseURL, "/"),
		presignExpire: presignExpire,
		log:           log,
	}
}

func (s *fileService) Create(ctx context.Context, in CreateFileInput) (*model.File, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name is required")
	}
	f := &model.File{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		AssistantID:  in.AssistantID,
		Name:         in.Name,
		Size:         in.Size,
		Type:         in.Type,
		OpenAIFileID: in.OpenAIFileID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *fileService) Get(ctx context.Context, id string) (*model.File, error) {
	f, err := s.files.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrFileNotFound)
	}
	return f, nil
}

func (s *fileService) List(ctx context.Context, userID string) ([]*model.File, error) {
	return s.files.List(ctx, userID)
}

func (s *fileService) Delete(ctx context.Context, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, id); err != nil {
		return notFound(err, ErrFileNotFound)
	}
	if f.StorageKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
			s.log.Warn("delete file content failed", zap.String("file_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *fileService) Content(ctx context.Context, id string) (*FileContent, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.StorageKey != "" && s.blobs != nil {
		url, err := s.blobs.PresignGet(ctx, f.StorageKey, s.presignExpire)
		if err != nil {
			return nil, fmt.Errorf("presign content: %w", err)
		}
		return &FileContent{URL: url}, nil
	}
	return &FileContent{
		Content: "This is the content of file " + f.Name,
		URL:     s.placeholder + "/" + f.ID,
	}, nil
}

// Upload stores data as the file's content and refreshes its size and type.
func (s *fileService) Upload(ctx context.Context, id, filename string, data []byte) (*model.File, error) {
	if s.blobs == nil {
		return nil, invalid("file content storage is not configured")
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = f.Name
	}

	contentType := mime.Detect(data, filename)
	key := path.Join("files", f.ID, path.Base(filename))
	if err := s.blobs.Upload(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("upload content: %w", err)
	}

	updated, err := s.files.Update(ctx, id, store.Patch{
		"storageKey":        key,
		"size":              int64(len(data)),
		"type":              mime.Base(contentType),
		repo.FieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, notFound(err, ErrFileNotFound)
	}
	if f.StorageKey != "" && f.StorageKey != key {
		if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
			s.log.Warn("delete replaced content failed", zap.String("file_id", id), zap.Error(err))
		}
	}
	return updated, nil
}

func (s *fileService) DownloadURL(ctx context.Context, id string) (string, error) {
	c, err := s.Content(ctx, id)
	if err != nil {
		return "", err
	}
	return c.URL, nil
}
