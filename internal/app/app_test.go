package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"taskSync/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const todosPayload = `{"todos":[
	{"id":1,"todo":"Купить хлеб","completed":false,"userId":5},
	{"id":2,"todo":"Позвонить маме","completed":true,"userId":7}
]}`

func newRemote(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(todosPayload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(remoteURL, repoType, dbPath string) *config.Config {
	cfg := config.Default()
	cfg.Repository.Type = repoType
	cfg.SQLite.Path = dbPath
	cfg.Remote.URL = remoteURL
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Logging.Development = true
	return cfg
}

type listBody struct {
	Tasks []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		IsCompleted bool   `json:"is_completed"`
	} `json:"tasks"`
	Count int `json:"count"`
}

func getTasks(t *testing.T, router http.Handler) listBody {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/tasks", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// TestApp_InMemoryRoundTrip тестирует сборку приложения и путь запроса через роутер
func TestApp_InMemoryRoundTrip(t *testing.T) {
	var calls atomic.Int32
	srv := newRemote(t, &calls)

	a, err := New(testConfig(srv.URL, config.RepoInMemory, "")).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	router := a.Router()

	body := getTasks(t, router)
	assert.Equal(t, 2, body.Count)
	body = getTasks(t, router)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, int32(1), calls.Load(), "тёплый старт не обращается к сети")

	req := httptest.NewRequest("POST", "/tasks", bytes.NewBufferString(`{"id": 10, "title": "новая"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/tasks/1/toggle", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body = getTasks(t, router)
	require.Equal(t, 3, body.Count)
	assert.Equal(t, int64(10), body.Tasks[0].ID)
	for _, item := range body.Tasks {
		if item.ID == 1 {
			assert.True(t, item.IsCompleted)
		}
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestApp_SQLiteSurvivesRestart тестирует тёплый старт после перезапуска на том же файле
func TestApp_SQLiteSurvivesRestart(t *testing.T) {
	var calls atomic.Int32
	srv := newRemote(t, &calls)
	dbPath := filepath.Join(t.TempDir(), "tasks.db")

	first, err := New(testConfig(srv.URL, config.RepoSQLite, dbPath)).Init(context.Background())
	require.NoError(t, err)
	tasks, err := first.Synchronizer().LoadTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	first.Shutdown()

	second, err := New(testConfig(srv.URL, config.RepoSQLite, dbPath)).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(second.Shutdown)

	tasks, err = second.Synchronizer().LoadTasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, int32(1), calls.Load())
}

// TestApp_RemoteDown тестирует ответ 502 при сбое первой загрузки
func TestApp_RemoteDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	a, err := New(testConfig(srv.URL, config.RepoInMemory, "")).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest("GET", "/tasks", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// TestApp_EditAfterToggle тестирует, что PUT с одним названием не откатывает отметку о выполнении
func TestApp_EditAfterToggle(t *testing.T) {
	var calls atomic.Int32
	srv := newRemote(t, &calls)

	a, err := New(testConfig(srv.URL, config.RepoInMemory, "")).Init(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	router := a.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/tasks/1/toggle", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req := httptest.NewRequest("PUT", "/tasks/1", bytes.NewBufferString(`{"title": "Купить батон"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest("PUT", "/tasks/404", bytes.NewBufferString(`{"title": "нет"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := getTasks(t, router)
	require.Equal(t, 2, body.Count)
	for _, item := range body.Tasks {
		if item.ID == 1 {
			assert.Equal(t, "Купить батон", item.Title)
			assert.True(t, item.IsCompleted)
		}
	}
	assert.Equal(t, int32(1), calls.Load())
}
