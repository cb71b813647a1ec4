package service

import "errors"

// Ошибки сервисов, не покрытые общими ошибками apperrors
var (
	// ErrInvalidCredentials: неверный номер TC или пароль
	ErrInvalidCredentials = errors.New("invalid tc_no or password")
	// ErrInvalidSpreadsheet: файл импорта не читается как xlsx или пуст
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")
)
