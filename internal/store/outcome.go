package store

import "fmt"

type Op string

const (
	OpInsertAll Op = "insert_all"
	OpInsertOne Op = "insert_one"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpToggle    Op = "toggle"
	OpClear     Op = "clear"
)

type Status string

const (
	StatusApplied Status = "applied"
	StatusMissed  Status = "missed" // id не найден, изменений нет
	StatusFailed  Status = "failed" // ошибка записи поглощена хранилищем
)

// Outcome - наблюдаемый итог мутации. Вызывающему ошибка не возвращается,
// но факт промаха или сбоя виден здесь и в логе.
type Outcome struct {
	Op     Op
	TaskID int64
	Count  int
	Status Status
	Err    error
}

func (o Outcome) Applied() bool {
	return o.Status == StatusApplied
}

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s id=%d: %s (%v)", o.Op, o.TaskID, o.Status, o.Err)
	}
	return fmt.Sprintf("%s id=%d: %s", o.Op, o.TaskID, o.Status)
}
