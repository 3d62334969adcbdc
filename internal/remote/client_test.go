package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"taskSync/internal/remote"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// TestClient_FetchAll тестирует отображение удалённых записей
func TestClient_FetchAll(t *testing.T) {
	fetchedAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	srv, calls := serve(t, http.StatusOK, `{
		"todos": [
			{"id": 1, "todo": "Buy milk", "completed": false, "userId": 7},
			{"id": 2, "todo": "Walk dog", "completed": true, "userId": 3}
		],
		"total": 2, "skip": 0, "limit": 30
	}`)

	client := remote.NewClient(srv.URL, time.Second, remote.WithClock(func() time.Time { return fetchedAt }))
	tasks, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, int64(1), tasks[0].ID)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "", tasks[0].Description)
	assert.False(t, tasks[0].IsCompleted)
	assert.Equal(t, fetchedAt, tasks[0].DateCreated)

	assert.Equal(t, int64(2), tasks[1].ID)
	assert.True(t, tasks[1].IsCompleted)
	assert.Equal(t, fetchedAt, tasks[1].DateCreated)

	assert.Equal(t, int32(1), calls.Load())
}

// TestClient_FetchAll_Errors тестирует единый канал ошибок без повторов
func TestClient_FetchAll_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"boom"}`},
		{name: "not found", status: http.StatusNotFound, body: ``},
		{name: "invalid json", status: http.StatusOK, body: `{"todos": [`},
		{name: "missing todos", status: http.StatusOK, body: `{"items": []}`},
		{name: "wrong shape", status: http.StatusOK, body: `{"todos": {"id": 1}}`},
		{name: "missing field", status: http.StatusOK, body: `{"todos": [{"id": 1, "completed": false}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := serve(t, tt.status, tt.body)
			client := remote.NewClient(srv.URL, time.Second)

			tasks, err := client.FetchAll(context.Background())

			assert.Nil(t, tasks)
			require.Error(t, err)
			assert.ErrorIs(t, err, remote.ErrRemoteFetch)

			var fetchErr *remote.FetchError
			assert.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, int32(1), calls.Load(), "без повторных запросов")
		})
	}
}

// TestClient_FetchAll_Unreachable тестирует сетевую ошибку
func TestClient_FetchAll_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := remote.NewClient(url, time.Second).FetchAll(context.Background())
	assert.ErrorIs(t, err, remote.ErrRemoteFetch)
}

// TestClient_FetchAll_EmptyList тестирует пустой, но корректный ответ
func TestClient_FetchAll_EmptyList(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"todos": []}`)

	tasks, err := remote.NewClient(srv.URL, time.Second).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// TestClient_FetchAll_DuplicateIDs тестирует отбрасывание повторных id
func TestClient_FetchAll_DuplicateIDs(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"todos": [
		{"id": 5, "todo": "first", "completed": false, "userId": 1},
		{"id": 5, "todo": "second", "completed": true, "userId": 1}
	]}`)

	tasks, err := remote.NewClient(srv.URL, time.Second).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "first", tasks[0].Title)
}

// TestClient_WithToken тестирует заголовок авторизации
func TestClient_WithToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"todos": []}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	client := remote.NewClient(srv.URL, time.Second, remote.WithToken("secret"))
	_, err := client.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
}

// TestClient_WithToken_CustomHTTPClient тестирует токен при своём http-клиенте, переданном после токена
func TestClient_WithToken_CustomHTTPClient(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"todos": []}`))
	}))
	defer srv.Close()

	custom := &http.Client{Timeout: time.Second}
	client := remote.NewClient(srv.URL, time.Second,
		remote.WithToken("secret"),
		remote.WithHTTPClient(custom))

	_, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Nil(t, custom.Transport, "переданный клиент не изменён")
}

// TestClient_ContextCanceled тестирует отмену контекста
func TestClient_ContextCanceled(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"todos": []}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := remote.NewClient(srv.URL, time.Second).FetchAll(ctx)
	assert.ErrorIs(t, err, remote.ErrRemoteFetch)
	assert.ErrorIs(t, err, context.Canceled)
}
