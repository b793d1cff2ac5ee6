// Пакет ledger — клиент внешнего неизменяемого реестра медикаментов.
//
// Реестр — внешняя система с независимыми режимами отказа. Движок проверки
// видит его только через интерфейс Client: регистрация факта
// "отпечаток → партия" и read-only запрос этого факта. Реализация на
// Ethereum-совместимом смарт-контракте — в ethereum.go; подменяется любым
// tamper-evident реестром без изменений в движке проверки.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Ошибки клиента реестра.
var (
	// ErrAlreadyRegistered — отпечаток уже зарегистрирован в реестре.
	ErrAlreadyRegistered = errors.New("отпечаток уже зарегистрирован в реестре")
	// ErrUnavailable — реестр недоступен (сеть, конфигурация, RPC).
	// Мягкая ошибка: проверка подлинности продолжается по локальным данным.
	ErrUnavailable = errors.New("реестр недоступен")
)

// Record — запись реестра об отпечатке. Read-only с точки зрения бэкенда.
type Record struct {
	// IsValid — известен ли отпечаток реестру.
	IsValid bool `json:"isValid"`
	// BatchID — код партии, записанный при регистрации.
	BatchID string `json:"batchId"`
	// RegisteredAt — время блока регистрации.
	RegisteredAt time.Time `json:"registeredAt"`
}

// Receipt — подтверждение транзакции регистрации.
type Receipt struct {
	// TxHash — хэш транзакции.
	TxHash string
	// BlockNumber — номер блока, в который включена транзакция.
	BlockNumber uint64
}

// Client — интерфейс клиента реестра, потребляемый сервисным слоем.
type Client interface {
	// Register записывает факт "отпечаток → партия" в реестр.
	// Возвращает ErrAlreadyRegistered при повторной регистрации
	// и ErrUnavailable при недоступности реестра.
	Register(ctx context.Context, fingerprint, batchID string) (*Receipt, error)

	// Verify запрашивает запись об отпечатке. Read-only: состояние реестра
	// не изменяется. Для неизвестного отпечатка возвращает Record с
	// IsValid=false (не ошибку); ErrUnavailable — только когда реестр
	// недостижим.
	Verify(ctx context.Context, fingerprint string) (*Record, error)
}
