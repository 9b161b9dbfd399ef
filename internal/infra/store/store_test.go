package store

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userlink/userlink-server/internal/config"
	"github.com/userlink/userlink-server/internal/infra/db"
)

type record struct {
	ID       string  `json:"id" bson:"id"`
	ThreadID string  `json:"threadId" bson:"threadId"`
	UserID   *string `json:"userId" bson:"userId"`
	N        int     `json:"n" bson:"n"`
}

func strPtr(s string) *string { return &s }

func backends(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{
		"memory": NewMemoryStore(),
	}

	fs, err := NewFileStore(afero.NewMemMapFs(), "/data/db.json")
	require.NoError(t, err)
	out["file"] = fs

	gdb, err := db.New(&config.Config{Database: config.DatabaseCfg{Backend: config.BackendSQLite, DSN: ":memory:"}})
	require.NoError(t, err)
	out["sqlite"] = NewSQLStore(gdb)

	if uri := os.Getenv("USERLINK_TEST_MONGO_URI"); uri != "" {
		ms, err := NewMongoStore(context.Background(), uri, "userlink_test_"+t.Name())
		if err != nil {
			t.Logf("mongo unavailable, skipping mongo backend: %v", err)
		} else {
			_ = ms.db.Drop(context.Background())
			out["mongo"] = ms
		}
	}
	return out
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			defer s.Close(ctx)
			require.NoError(t, s.EnsureCollections(ctx))

			require.NoError(t, s.Insert(ctx, Messages, record{ID: "a", ThreadID: "t1", UserID: strPtr("u1"), N: 1}))
			require.NoError(t, s.Insert(ctx, Messages, record{ID: "b", ThreadID: "t2", UserID: strPtr("u1"), N: 2}))
			require.NoError(t, s.Insert(ctx, Messages, record{ID: "c", ThreadID: "t3", N: 3}))

			t.Run("duplicate id rejected", func(t *testing.T) {
				err := s.Insert(ctx, Messages, record{ID: "a"})
				assert.ErrorIs(t, err, ErrDuplicate)
			})

			t.Run("find one by id", func(t *testing.T) {
				var got record
				require.NoError(t, s.FindOne(ctx, Messages, ByID("b"), &got))
				assert.Equal(t, "t2", got.ThreadID)
				assert.Equal(t, 2, got.N)
			})

			t.Run("find one missing", func(t *testing.T) {
				var got record
				assert.ErrorIs(t, s.FindOne(ctx, Messages, ByID("zzz"), &got), ErrNotFound)
			})

			t.Run("find many with key set", func(t *testing.T) {
				var got []record
				require.NoError(t, s.FindMany(ctx, Messages, Where(In("threadId", []string{"t1", "t3", "nope"})), &got))
				require.Len(t, got, 2)
				assert.ElementsMatch(t, []string{"a", "c"}, []string{got[0].ID, got[1].ID})
			})

			t.Run("empty key set matches nothing", func(t *testing.T) {
				var got []record
				require.NoError(t, s.FindMany(ctx, Messages, Where(In("threadId", nil)), &got))
				assert.Empty(t, got)
			})

			t.Run("eq nil matches null", func(t *testing.T) {
				var got []record
				require.NoError(t, s.FindMany(ctx, Messages, Where(Eq("userId", nil)), &got))
				require.Len(t, got, 1)
				assert.Equal(t, "c", got[0].ID)
			})

			t.Run("conjunction", func(t *testing.T) {
				var got []record
				require.NoError(t, s.FindMany(ctx, Messages, Where(Eq("userId", "u1"), Eq("threadId", "t2")), &got))
				require.Len(t, got, 1)
				assert.Equal(t, "b", got[0].ID)
			})

			t.Run("update one", func(t *testing.T) {
				var got record
				require.NoError(t, s.UpdateOne(ctx, Messages, ByID("a"), Patch{"userId": nil, "n": 10}, &got))
				assert.Nil(t, got.UserID)
				assert.Equal(t, 10, got.N)

				var again record
				require.NoError(t, s.FindOne(ctx, Messages, ByID("a"), &again))
				assert.Equal(t, got, again)
			})

			t.Run("update missing", func(t *testing.T) {
				assert.ErrorIs(t, s.UpdateOne(ctx, Messages, ByID("zzz"), Patch{"n": 1}, nil), ErrNotFound)
			})

			t.Run("remove many", func(t *testing.T) {
				n, err := s.RemoveMany(ctx, Messages, Where(Eq("userId", nil)))
				require.NoError(t, err)
				assert.Equal(t, int64(2), n)

				n, err = s.RemoveMany(ctx, Messages, Where(Eq("userId", nil)))
				require.NoError(t, err)
				assert.Equal(t, int64(0), n)

				var left []record
				require.NoError(t, s.FindMany(ctx, Messages, nil, &left))
				require.Len(t, left, 1)
				assert.Equal(t, "b", left[0].ID)
			})

			t.Run("collections are independent", func(t *testing.T) {
				var got []record
				require.NoError(t, s.FindMany(ctx, Files, nil, &got))
				assert.Empty(t, got)
			})
		})
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()

	s, err := NewFileStore(fs, "/var/lib/userlink/db.json")
	require.NoError(t, err)
	require.NoError(t, s.EnsureCollections(ctx))
	require.NoError(t, s.Insert(ctx, Users, record{ID: "u1", N: 7}))

	raw, err := afero.ReadFile(fs, "/var/lib/userlink/db.json")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"users"`)
	assert.Contains(t, string(raw), `"chat_threads"`)

	reopened, err := NewFileStore(fs, "/var/lib/userlink/db.json")
	require.NoError(t, err)
	var got record
	require.NoError(t, reopened.FindOne(ctx, Users, ByID("u1"), &got))
	assert.Equal(t, 7, got.N)

	exists, err := afero.Exists(fs, "/var/lib/userlink/db.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "db.json", []byte("{not json"), 0o644))
	_, err := NewFileStore(fs, "db.json")
	assert.Error(t, err)
}

func TestInsert_RequiresID(t *testing.T) {
	s := NewMemoryStore()
	err := s.Insert(context.Background(), Users, record{N: 1})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestFileStore_FailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/data/db.json",
		[]byte(`{"users":[{"id":"u1","threadId":"","userId":null,"n":1}]}`), 0o644))

	s, err := NewFileStore(afero.NewReadOnlyFs(base), "/data/db.json")
	require.NoError(t, err)

	require.Error(t, s.Insert(ctx, Users, record{ID: "u2", N: 2}))
	var got record
	assert.ErrorIs(t, s.FindOne(ctx, Users, ByID("u2"), &got), ErrNotFound)

	var updated record
	require.Error(t, s.UpdateOne(ctx, Users, ByID("u1"), Patch{"n": 9}, &updated))
	require.NoError(t, s.FindOne(ctx, Users, ByID("u1"), &got))
	assert.Equal(t, 1, got.N)

	n, err := s.RemoveMany(ctx, Users, ByID("u1"))
	require.Error(t, err)
	assert.Zero(t, n)
	require.NoError(t, s.FindOne(ctx, Users, ByID("u1"), &got))

	require.Error(t, s.EnsureCollections(ctx))
	_, ok := s.data[string(Messages)]
	assert.False(t, ok)

	raw, err := afero.ReadFile(base, "/data/db.json")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "u2")
}
