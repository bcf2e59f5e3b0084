package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// testRedisAddr points at a local server; Redis tests skip when unreachable.
const testRedisAddr = "localhost:6379"

type backendFactory func(t *testing.T) Store

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) Store {
			return NewMemory()
		},
		"file": func(t *testing.T) Store {
			s, err := NewFile(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLite(":memory:")
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) Store {
			client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
			if err := client.Ping(context.Background()).Err(); err != nil {
				client.Close()
				t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
			}
			prefix := "taskboard-test:" + t.Name() + ":"
			t.Cleanup(func() {
				// The store closes its client, so clean up with a fresh one.
				c := redis.NewClient(&redis.Options{Addr: testRedisAddr})
				defer c.Close()
				ctx := context.Background()
				keys, _ := c.Keys(ctx, prefix+"*").Result()
				if len(keys) > 0 {
					c.Del(ctx, keys...)
				}
			})
			return NewRedis(client, prefix)
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			defer s.Close()

			_, err := s.Get(ctx, "kanban-tasks")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "kanban-tasks", []byte(`[]`)))
			got, err := s.Get(ctx, "kanban-tasks")
			require.NoError(t, err)
			require.Equal(t, `[]`, string(got))

			require.NoError(t, s.Set(ctx, "kanban-tasks", []byte(`[{"id":"a"}]`)))
			got, err = s.Get(ctx, "kanban-tasks")
			require.NoError(t, err)
			require.Equal(t, `[{"id":"a"}]`, string(got))

			require.NoError(t, s.Set(ctx, "kanban-theme", []byte("dark")))

			require.NoError(t, s.Delete(ctx, "kanban-tasks"))
			_, err = s.Get(ctx, "kanban-tasks")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Delete(ctx, "kanban-tasks"), "deleting an absent key")

			theme, err := s.Get(ctx, "kanban-theme")
			require.NoError(t, err)
			require.Equal(t, "dark", string(theme))
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := m.Get(ctx, "k")
	require.Equal(t, "abc", string(again))
}

func TestFileStore(t *testing.T) {
	t.Run("empty dir rejected", func(t *testing.T) {
		_, err := NewFile("  ")
		require.Error(t, err)
	})

	t.Run("creates nested dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		s, err := NewFile(dir)
		require.NoError(t, err)
		require.Equal(t, dir, s.Dir())
		_, err = os.Stat(dir)
		require.NoError(t, err)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFile(dir)
		require.NoError(t, err)
		require.NoError(t, s.Set(context.Background(), "kanban-tasks", []byte("[]")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "kanban-tasks.json", entries[0].Name())
	})

	t.Run("keys are sanitized", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewFile(dir)
		require.NoError(t, err)
		require.NoError(t, s.Set(context.Background(), "../escape/key", []byte("x")))

		_, err = os.Stat(filepath.Join(dir, "_._escape_key.json"))
		require.NoError(t, err)
	})
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"kanban-tasks": "kanban-tasks",
		"a b/c":        "a_b_c",
		".hidden":      "_hidden",
		"":             "_",
	}
	for in, want := range tests {
		require.Equal(t, want, sanitizeKey(in), "sanitizeKey(%q)", in)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: "FILE", Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &File{}, s)

	s, err = Open(ctx, Options{Backend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "db", "board.db")})
	require.NoError(t, err)
	require.IsType(t, &Gorm{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	require.Error(t, err)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "kanban-theme", []byte("light")))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "kanban-theme")
	require.NoError(t, err)
	require.Equal(t, "light", string(got))
}
