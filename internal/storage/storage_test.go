package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/require"

	"github.com/olgkv/tasklist/internal/domain"
)

func newTestStorage(t *testing.T) (*FileStorage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "tasks.json")
	return NewFileStorage(NewJSONRepository(path)), path
}

func TestFileStorageCreateAndGet(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	task, err := st.Create(ctx, "Do laundry", domain.StatusPending, created)
	require.NoError(t, err)
	require.Equal(t, 1, task.ID)

	got, err := st.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Do laundry", got.Name)
	require.Equal(t, domain.StatusPending, got.Status)
	require.True(t, got.CreationDate.Equal(created))
}

func TestFileStorageMissingFileIsEmpty(t *testing.T) {
	st, path := newTestStorage(t)

	list, err := st.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist, "reading must not create the file")
}

func TestFileStorageMalformedFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"object", `{"id": 1}`},
		{"garbage", `not json`},
		{"null", `null`},
		{"unknown status", `[{"id":1,"name":"x","status":"Done","creationDate":"2025-03-01T10:30:00Z"}]`},
		{"null record", `[null]`},
		{"empty", ``},
		{"whitespace", "  \n"},
		{"max id", `[{"id":9223372036854775807,"name":"x","status":"Pending","creationDate":"2025-03-01T10:30:00Z"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, path := newTestStorage(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := st.List(context.Background())
			require.ErrorIs(t, err, domain.ErrDataFormat)

			_, err = st.Create(context.Background(), "x", domain.StatusPending, time.Now())
			require.ErrorIs(t, err, domain.ErrDataFormat)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, tc.content, string(data), "malformed file must not be rewritten")
		})
	}
}

func TestFileStoragePersistedFormat(t *testing.T) {
	st, path := newTestStorage(t)
	created := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	_, err := st.Create(context.Background(), "Write report", domain.StatusPending, created)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "\n    {", "file should be pretty-printed")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	require.Equal(t, float64(1), raw[0]["id"])
	require.Equal(t, "Write report", raw[0]["name"])
	require.Equal(t, "Pending", raw[0]["status"])
	require.Equal(t, "2025-03-01T10:30:00Z", raw[0]["creationDate"])
}

func TestFileStorageMutations(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()
	now := time.Now()

	for _, name := range []string{"a", "b", "c"} {
		_, err := st.Create(ctx, name, domain.StatusPending, now)
		require.NoError(t, err)
	}

	require.NoError(t, st.Rename(ctx, 2, "b2"))
	require.NoError(t, st.UpdateStatus(ctx, 3, domain.StatusInProgress))
	require.NoError(t, st.Delete(ctx, 2))

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 1, list[0].ID)
	require.Equal(t, 3, list[1].ID)
	require.Equal(t, domain.StatusInProgress, list[1].Status)

	next, err := st.Create(ctx, "d", domain.StatusPending, now)
	require.NoError(t, err)
	require.Equal(t, 4, next.ID)
}

func TestFileStorageNotFound(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()
	_, err := st.Create(ctx, "a", domain.StatusPending, time.Now())
	require.NoError(t, err)

	_, err = st.Get(ctx, 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, st.Rename(ctx, 42, "x"), domain.ErrNotFound)
	require.ErrorIs(t, st.UpdateStatus(ctx, 42, domain.StatusCompleted), domain.ErrNotFound)
	require.ErrorIs(t, st.Delete(ctx, 42), domain.ErrNotFound)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestJSONRepositoryUnreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := NewJSONRepository(path).Load()
	require.ErrorIs(t, err, domain.ErrDataFormat)
	require.Equal(t, "Invalid task data format", domain.Message(err))
}

func TestJSONRepositorySaveWaitsForLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	repo := NewJSONRepository(path)

	other := flock.New(path + ".lock")
	require.NoError(t, other.Lock())

	done := make(chan error, 1)
	go func() {
		done <- repo.Save([]*domain.Task{{ID: 1, Name: "a", Status: domain.StatusPending}})
	}()

	select {
	case err := <-done:
		t.Fatalf("Save returned while the lock was held: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist, "file written while the lock was held")

	require.NoError(t, other.Unlock())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Save did not finish after the lock was released")
	}

	tasks, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestJSONRepositorySaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	repo := NewJSONRepository(filepath.Join(blocker, "tasks.json"))
	err := repo.Save([]*domain.Task{{ID: 1, Name: "a", Status: domain.StatusPending}})
	require.ErrorIs(t, err, domain.ErrStorageWrite)
}
