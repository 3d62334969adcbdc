package dto

import (
	"taskSync/internal/models/task"
	"taskSync/internal/store"
	"time"
)

type CreateTaskRequest struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateCreated time.Time `json:"date_created,omitempty"`
	IsCompleted bool      `json:"is_completed"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// Options переводит заданные поля в опции задачи; отсутствующие поля не меняются
func (r UpdateTaskRequest) Options() []task.TaskOption {
	options := make([]task.TaskOption, 0, 3)
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.IsCompleted != nil {
		options = append(options, task.WithCompleted(*r.IsCompleted))
	}
	return options
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.IsCompleted == nil
}

type TaskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateCreated time.Time `json:"date_created"`
	IsCompleted bool      `json:"is_completed"`
}

type OutcomeResponse struct {
	Op     string `json:"op"`
	TaskID int64  `json:"task_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func FromTask(t task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DateCreated: t.DateCreated,
		IsCompleted: t.IsCompleted,
	}
}

func FromTaskList(tasks []task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func FromOutcome(o *store.Outcome) *OutcomeResponse {
	if o == nil {
		return nil
	}
	resp := &OutcomeResponse{
		Op:     string(o.Op),
		TaskID: o.TaskID,
		Status: string(o.Status),
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}
