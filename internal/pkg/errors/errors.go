package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (нет пользователя, чужая попытка).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния.
	ErrConflict = errors.New("resource state conflict")

	// ErrAlreadySubmitted означает, что попытка экзамена уже завершена.
	// Оборачивает ErrConflict, чтобы хендлеры отдавали 409.
	ErrAlreadySubmitted = &conflictError{msg: "exam already submitted"}
)

type conflictError struct{ msg string }

func (e *conflictError) Error() string { return e.msg }
func (e *conflictError) Unwrap() error { return ErrConflict }

// StoreError оборачивает ошибку хранилища. Текст ошибки передается вызывающему как есть.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError создает StoreError, если err != nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError проверяет, является ли ошибка ошибкой хранилища.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
