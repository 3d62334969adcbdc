package handlers

import (
	"encoding/json"
	"net/http"
	"taskSync/internal/handlers/dto"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	"taskSync/internal/store"
	"taskSync/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// await ждёт результат в горутине запроса; false - клиент ушёл раньше
func await(w http.ResponseWriter, r *http.Request, ch <-chan worker.Result) (worker.Result, bool) {
	select {
	case res := <-ch:
		return res, true
	case <-r.Context().Done():
		logger.Warn("HTTP: Запрос отменён до получения результата",
			zap.Error(r.Context().Err()),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusServiceUnavailable, "запрос отменён")
		return worker.Result{}, false
	}
}

func (s *TaskHandler) respondError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusInternalServerError, err.Error())
}

func (s *TaskHandler) respondMutation(w http.ResponseWriter, r *http.Request, res worker.Result, operation string, start time.Time) {
	if res.Err != nil {
		s.respondError(w, r, res.Err, operation)
		return
	}

	outcome := dto.FromOutcome(res.Outcome)
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK),
	}
	if outcome != nil {
		fields = append(fields, zap.Int64("task_id", outcome.TaskID), zap.String("store", outcome.Status))
	}
	logger.Info("HTTP_OUT: Изменение выполнено", fields...)

	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(res.Tasks)),
		toPayload("outcome", outcome))
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	res, ok := await(w, r, s.TaskService.Load())
	if !ok {
		return
	}
	if res.Err != nil {
		s.respondError(w, r, res.Err, "load_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(res.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(res.Tasks)),
		toPayload("count", len(res.Tasks)))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if request.Title == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "title"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "название не может быть пустым")
		return
	}

	newTask := task.Task{
		ID:          request.ID,
		Title:       request.Title,
		Description: request.Description,
		DateCreated: request.DateCreated,
		IsCompleted: request.IsCompleted,
	}
	if newTask.ID == 0 {
		newTask.ID = task.NextID()
	}

	logger.Info("HTTP: Вызов сервиса создания задачи", zap.Int64("task_id", newTask.ID))

	res, ok := await(w, r, s.TaskService.Create(newTask))
	if !ok {
		return
	}
	s.respondMutation(w, r, res, "create_task", start)
}

func (s *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var request dto.UpdateTaskRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}
	if request.Empty() {
		responseWithError(w, http.StatusBadRequest, "не передано ни одного поля для обновления")
		return
	}

	logger.Info("HTTP: запрос к сервису обновления данных", zap.Int64("task_id", id))

	res, ok := await(w, r, s.TaskService.Edit(id, request.Options()...))
	if !ok {
		return
	}
	if res.Err == nil && res.Outcome != nil && res.Outcome.Status == store.StatusMissed {
		logger.Warn("HTTP: Задача не найдена", zap.Int64("task_id", id))
		responseWithJSON(w, http.StatusNotFound,
			toPayload("error", codeNotFound),
			toPayload("message", "задача не найдена"),
			toPayload("details", map[string]any{"id": id}))
		return
	}
	s.respondMutation(w, r, res, "update_task", start)
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи", zap.Int64("task_id", id))

	res, ok := await(w, r, s.TaskService.Delete(task.Task{ID: id}))
	if !ok {
		return
	}
	s.respondMutation(w, r, res, "delete_task", start)
}

func (s *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: Не удалось получить id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, ok := await(w, r, s.TaskService.Toggle(task.Task{ID: id}))
	if !ok {
		return
	}
	s.respondMutation(w, r, res, "toggle_task", start)
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	healthCheck(w, s.TaskService.HealthCheck(r.Context()))
}

// Register вешает обработчики на роутер
func (s *TaskHandler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.GetTasks)  // GET /tasks
		r.Post("/", s.PostTask) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", s.UpdateTask)        // PUT /tasks/{id}
			r.Delete("/", s.DeleteTask)     // DELETE /tasks/{id}
			r.Post("/toggle", s.ToggleTask) // POST /tasks/{id}/toggle
		})
	})

	r.Get("/health", s.HealthCheck)
}
