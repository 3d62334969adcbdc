package inmemory_test

import (
	"context"
	"sync"
	"taskSync/internal/models/task"
	"taskSync/internal/repository"
	"taskSync/internal/repository/task/inmemory"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTaskStorage_New тестирует создание хранилища
func TestTaskStorage_New(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NotNil(t, storage)

	has, err := storage.HasData(context.Background())
	require.NoError(t, err)
	assert.False(t, has)
}

// TestTaskStorage_HealthCheck тестирует проверку здоровья
func TestTaskStorage_HealthCheck(t *testing.T) {
	storage := inmemory.NewTaskStorage()
	assert.NoError(t, storage.HealthCheck(context.Background()))
}

// TestTaskStorage_Create тестирует создание задачи
func TestTaskStorage_Create(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := time.Now()
	taskToCreate := &task.Task{
		ID:          1,
		Title:       "Test Task",
		Description: "Test Description",
		DateCreated: created,
	}

	require.NoError(t, storage.Create(ctx, taskToCreate))

	retrievedTask, err := storage.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", retrievedTask.Title)
	assert.True(t, created.Equal(retrievedTask.DateCreated))

	has, err := storage.HasData(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	// повторный id запрещён
	err = storage.Create(ctx, &task.Task{ID: 1, Title: "dup"})
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}

// TestTaskStorage_ReturnsCopies тестирует, что вызывающий не может изменить хранилище напрямую
func TestTaskStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	original := &task.Task{ID: 1, Title: "Original"}
	require.NoError(t, storage.Create(ctx, original))
	original.Title = "changed after create"

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	all[0].Title = "changed after read"

	retrieved, err := storage.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Original", retrieved.Title)
}

// TestTaskStorage_CreateBatch тестирует пакетную вставку
func TestTaskStorage_CreateBatch(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	err := storage.CreateBatch(ctx, []*task.Task{
		{ID: 1, Title: "one"},
		{ID: 2, Title: "two"},
	})
	require.NoError(t, err)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(2), all[1].ID)
}

// TestTaskStorage_CreateBatch_Atomic тестирует откат при дубликате
func TestTaskStorage_CreateBatch_Atomic(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	err := storage.CreateBatch(ctx, []*task.Task{
		{ID: 1, Title: "one"},
		{ID: 1, Title: "again"},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	has, err := storage.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

// TestTaskStorage_SeededEmptyBatch тестирует, что пустая первая синхронизация помечает хранилище
func TestTaskStorage_SeededEmptyBatch(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	require.NoError(t, storage.CreateBatch(ctx, nil))

	has, err := storage.HasData(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

// TestTaskStorage_Update тестирует обновление задачи
func TestTaskStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Create(ctx, &task.Task{ID: 1, Title: "Original Title", DateCreated: created}))

	err := storage.Update(ctx, &task.Task{
		ID:          1,
		Title:       "Updated Title",
		Description: "Updated Description",
		IsCompleted: true,
	})
	require.NoError(t, err)

	retrievedTask, err := storage.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", retrievedTask.Title)
	assert.Equal(t, "Updated Description", retrievedTask.Description)
	assert.True(t, retrievedTask.IsCompleted)
	// нулевая дата не затирает дату создания
	assert.Equal(t, created, retrievedTask.DateCreated)
}

// TestTaskStorage_Update_NotFound тестирует обновление отсутствующей задачи
func TestTaskStorage_Update_NotFound(t *testing.T) {
	storage := inmemory.NewTaskStorage()

	err := storage.Update(context.Background(), &task.Task{ID: 42})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// TestTaskStorage_ToggleCompleted тестирует переключение выполнения
func TestTaskStorage_ToggleCompleted(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	require.NoError(t, storage.Create(ctx, &task.Task{ID: 1}))

	require.NoError(t, storage.ToggleCompleted(ctx, 1))
	got, err := storage.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	require.NoError(t, storage.ToggleCompleted(ctx, 1))
	got, err = storage.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)

	assert.ErrorIs(t, storage.ToggleCompleted(ctx, 2), repository.ErrNotFound)
}

// TestTaskStorage_Delete тестирует удаление
func TestTaskStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	require.NoError(t, storage.CreateBatch(ctx, []*task.Task{{ID: 1}, {ID: 2}, {ID: 3}}))

	require.NoError(t, storage.Delete(ctx, 2))

	_, err := storage.GetByID(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := storage.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(3), all[1].ID)

	assert.ErrorIs(t, storage.Delete(ctx, 2), repository.ErrNotFound)
}

// TestTaskStorage_Clear тестирует внешнюю очистку
func TestTaskStorage_Clear(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	require.NoError(t, storage.CreateBatch(ctx, []*task.Task{{ID: 1}}))

	require.NoError(t, storage.Clear(ctx))

	has, err := storage.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

// TestTaskStorage_ConcurrentToggle тестирует конкурентный доступ
func TestTaskStorage_ConcurrentToggle(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	require.NoError(t, storage.Create(ctx, &task.Task{ID: 1}))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = storage.ToggleCompleted(ctx, 1)
		}()
	}
	wg.Wait()

	// чётное число переключений возвращает исходное значение
	got, err := storage.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
}
