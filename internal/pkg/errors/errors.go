package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable используется, когда внешняя зависимость (AI, почта) не настроена или недоступна.
	ErrUnavailable = errors.New("service unavailable")
)
