// internal/blockchain/blockchain.go
// Package blockchain определяет минимальную поверхность работы с ledger'ом,
// необходимую executor'у. Реализации живут в подпакетах.
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// SimulationResult — результат симуляции транзакции.
type SimulationResult struct {
	// Err — ошибка исполнения внутри симуляции, как её вернул узел.
	Err any
	// Logs — журнал программ за время симуляции.
	Logs []string
	// UnitsConsumed — потребленные compute units; nil, если узел их не вернул.
	UnitsConsumed *uint64
}

// Client — интерфейс чтения ledger'а и симуляции. Подписание и отправка
// транзакций сюда намеренно не входят.
type Client interface {
	// GetMultipleAccounts возвращает данные аккаунтов одним запросом.
	// Результат позиционно выровнен с запросом; nil в слоте означает, что
	// аккаунт не существует.
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error)

	// GetLatestBlockhash возвращает последний blockhash.
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)

	// SimulateTransaction симулирует транзакцию с подменой blockhash, не
	// требуя подписи.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
}
