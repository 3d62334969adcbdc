package task

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithCompleted(completed bool) TaskOption {
	return func(task *Task) {
		task.IsCompleted = completed
	}
}

// Apply возвращает изменённую копию; id и дата создания не трогаются.
// nil-опции пропускаются.
func (t Task) Apply(options ...TaskOption) Task {
	edited := t
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&edited)
	}
	edited.ID = t.ID
	edited.DateCreated = t.DateCreated
	return edited
}
