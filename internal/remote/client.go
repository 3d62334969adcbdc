package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"taskSync/internal/logger"
	"taskSync/internal/models/task"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var ErrRemoteFetch = errors.New("не удалось получить задачи из удалённого источника")

// FetchError - единый канал ошибок: сеть, статус, декодирование
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: статус %d: %v", ErrRemoteFetch, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrRemoteFetch, e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrRemoteFetch, e.Err}
}

const maxBodySize = 10 << 20

type Client struct {
	http  *http.Client
	url   string
	now   func() time.Time
	token string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithToken добавляет Bearer-токен через oauth2-транспорт.
// Токен навешивается после всех опций, поэтому порядок с WithHTTPClient не важен.
func WithToken(token string) Option {
	return func(client *Client) {
		client.token = token
	}
}

func WithClock(now func() time.Time) Option {
	return func(client *Client) {
		client.now = now
	}
}

func NewClient(url string, timeout time.Duration, options ...Option) *Client {
	client := &Client{
		http: &http.Client{Timeout: timeout},
		url:  url,
		now:  time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(client)
		}
	}
	if client.token != "" {
		client.http = withBearer(client.http, client.token)
	}
	return client
}

// withBearer копирует клиент, оборачивая его транспорт; исходный клиент не меняется
func withBearer(base *http.Client, token string) *http.Client {
	authed := *base
	authed.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   base.Transport,
	}
	return &authed
}

// FetchAll выполняет один GET без повторов и возвращает полный список
func (c *Client) FetchAll(ctx context.Context) ([]task.Task, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("Remote: Ошибка запроса", zap.String("url", c.url), zap.Error(err))
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		logger.Warn("Remote: Неожиданный статус ответа", zap.String("url", c.url), zap.Int("status", resp.StatusCode))
		return nil, &FetchError{URL: c.url, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	tasks, err := c.decode(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		logger.Warn("Remote: Ошибка декодирования ответа", zap.String("url", c.url), zap.Error(err))
		return nil, &FetchError{URL: c.url, Status: resp.StatusCode, Err: err}
	}

	logger.Info("Remote: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))
	return tasks, nil
}

func (c *Client) decode(body io.Reader) ([]task.Task, error) {
	var payload todoListResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("разбор JSON: %w", err)
	}
	if payload.Todos == nil {
		return nil, errors.New("в ответе нет поля todos")
	}

	fetchedAt := c.now()
	seen := make(map[int64]struct{}, len(*payload.Todos))
	tasks := make([]task.Task, 0, len(*payload.Todos))

	for i, record := range *payload.Todos {
		if !record.valid() {
			return nil, fmt.Errorf("запись %d: нет обязательных полей id/todo/completed", i)
		}
		// id - ключ связи с локальным хранилищем, дубликаты отбрасываем
		if _, dup := seen[*record.ID]; dup {
			logger.Warn("Remote: Повтор id в ответе", zap.Int64("task_id", *record.ID))
			continue
		}
		seen[*record.ID] = struct{}{}
		tasks = append(tasks, record.toTask(fetchedAt))
	}
	return tasks, nil
}
