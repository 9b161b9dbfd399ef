package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/userlink/userlink-server/internal/config"
)

func TestOpenStore_FileBackendCreatesCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	cfg := &config.Config{Database: config.DatabaseCfg{
		Backend:     config.BackendFile,
		FilePath:    path,
		AutoMigrate: true,
	}}

	s, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, coll := range []string{"users", "assistants", "chat_threads", "messages", "files"} {
		assert.Contains(t, string(raw), `"`+coll+`"`)
	}
}

func TestOpenStore_SkipsCollectionsWithoutAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	cfg := &config.Config{Database: config.DatabaseCfg{Backend: config.BackendFile, FilePath: path}}

	s, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseCfg{Backend: "cassandra"}}
	_, err := OpenStore(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
