package remote

import (
	"taskSync/internal/models/task"
	"time"
)

type todoListResponse struct {
	Todos *[]todoRecord `json:"todos"`
}

type todoRecord struct {
	ID        *int64  `json:"id"`
	Todo      *string `json:"todo"`
	Completed *bool   `json:"completed"`
	UserID    int     `json:"userId"`
}

// описание у удалённой записи отсутствует, дата создания - момент получения
func (r todoRecord) toTask(fetchedAt time.Time) task.Task {
	return task.Task{
		ID:          *r.ID,
		Title:       *r.Todo,
		Description: "",
		DateCreated: fetchedAt,
		IsCompleted: *r.Completed,
	}
}

func (r todoRecord) valid() bool {
	return r.ID != nil && r.Todo != nil && r.Completed != nil
}
