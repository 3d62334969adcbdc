package service

import "fmt"

const (
	CodeRemoteFetchFailed = "REMOTE_FETCH_FAILED"
	CodeValidation        = "VALIDATION_ERROR"
)

// LoadFailedMessage - единственное сообщение для пользователя при сбое первой загрузки
const LoadFailedMessage = "Произошла ошибка при загрузке задач."

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewRemoteFetchFailed(err error) *BusinessError {
	busErr := NewBusinessError(CodeRemoteFetchFailed, LoadFailedMessage)
	busErr.Err = err
	return busErr
}

// NewValidationError кладёт поле и причину в Details; дополнительные детали дописываются поверх
func NewValidationError(field, reason string, details ...Detail) *BusinessError {
	details = append([]Detail{ToDetail("field", field), ToDetail("reason", reason)}, details...)
	return NewBusinessError(CodeValidation,
		fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		details...)
}
