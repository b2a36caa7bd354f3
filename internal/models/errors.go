package models

import "errors"

var (
	// ErrNotFound сущность не найдена или не принадлежит пользователю.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken токен сброса пароля или обновления недействителен.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnsupportedMethod способ оплаты не поддерживается.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrInvalidAmount сумма платежа не указана или отрицательна.
	ErrInvalidAmount = errors.New("invalid payment amount")
	// ErrProvider ошибка внешнего ИИ‑провайдера.
	ErrProvider = errors.New("ai provider error")
	// ErrForbidden недостаточно прав на ресурс.
	ErrForbidden = errors.New("forbidden")
	// ErrAgentNotConfigured для предмета нет конфигурации агента по умолчанию.
	ErrAgentNotConfigured = errors.New("ai agent not configured for this subject")
)
