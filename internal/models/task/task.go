package task

import (
	"sort"
	"sync/atomic"
	"time"
)

type Task struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"desc_text"`
	DateCreated time.Time `json:"date_created" db:"date_created"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
}

var lastID atomic.Int64

// NextID выдаёт id из текущего времени в миллисекундах.
// В пределах процесса id строго возрастают, даже если два вызова попали в одну миллисекунду.
func NextID() int64 {
	for {
		now := time.Now().UnixMilli()
		prev := lastID.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if lastID.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// New создаёт локальную задачу с клиентским id
func New(title, description string) Task {
	return Task{
		ID:          NextID(),
		Title:       title,
		Description: description,
		DateCreated: time.Now(),
	}
}

// Empty - шаблон новой задачи до первого сохранения
func Empty() Task {
	return New("", "")
}

// SortNewestFirst упорядочивает список: сначала новые, при равной дате - по id
func SortNewestFirst(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DateCreated.Equal(tasks[j].DateCreated) {
			return tasks[i].DateCreated.After(tasks[j].DateCreated)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func FindByID(tasks []Task, id int64) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
