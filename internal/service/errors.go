// Пакет service — бизнес-логика бэкенда PureMeds.
package service

import "errors"

// Ошибки бизнес-логики. Ошибки хранилища (repository.ErrNotFound,
// repository.ErrConflict) пробрасываются без обёртки.
var (
	// ErrValidation — некорректные входные данные запроса.
	ErrValidation = errors.New("некорректные входные данные")
	// ErrForbidden — попытка доступа к чужому ресурсу.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrInsufficientStock — остатка препарата не хватает для заказа.
	ErrInsufficientStock = errors.New("недостаточный остаток препарата")
	// ErrPaymentUnavailable — платёжный шлюз не ответил или вернул сбой.
	ErrPaymentUnavailable = errors.New("платёжный шлюз недоступен")
)
