// internal/dex/raydium/loader.go
package raydium

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/raydium-executor/internal/blockchain"
	"go.uber.org/zap"
)

// Снапшот всех аккаунтов, нужных для котировки, читается одним батчевым
// запросом: состояние пула, резервы и очередь событий согласованы между собой
// в пределах одного ответа узла.

// accountSnapshot — сырые данные аккаунтов одного батчевого чтения.
type accountSnapshot struct {
	pool         []byte
	targetOrders []byte
	pcVault      []byte
	coinVault    []byte
	openOrders   []byte
	market       []byte
	eventQueue   []byte
}

// snapshotKeys строит список запроса. Порядок фиксирован, индексы ответа
// позиционно соответствуют ему.
func snapshotKeys(ammKeys *AmmKeys, marketKeys *MarketKeys) []solana.PublicKey {
	return []solana.PublicKey{
		ammKeys.AmmPool,
		ammKeys.AmmTarget,
		ammKeys.AmmPcVault,
		ammKeys.AmmCoinVault,
		ammKeys.AmmOpenOrders,
		ammKeys.Market,
		marketKeys.EventQueue,
	}
}

// loadSnapshot выполняет одно батчевое чтение и раскладывает результат по
// именованным слотам. Сетевая ошибка — UpstreamError; отсутствующий
// обязательный аккаунт — NotFoundError с его адресом.
func loadSnapshot(ctx context.Context, client blockchain.Client, logger *zap.Logger, ammKeys *AmmKeys, marketKeys *MarketKeys) (*accountSnapshot, error) {
	keys := snapshotKeys(ammKeys, marketKeys)

	accounts, err := client.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, &UpstreamError{Op: "account snapshot", Err: err}
	}
	if len(accounts) != len(keys) {
		return nil, &UpstreamError{Op: "account snapshot", Err: &DecodeError{
			Account: ammKeys.AmmPool.String(),
			Reason:  "response length does not match request",
		}}
	}

	snap := &accountSnapshot{
		pool:         accounts[0],
		targetOrders: accounts[1],
		pcVault:      accounts[2],
		coinVault:    accounts[3],
		openOrders:   accounts[4],
		market:       accounts[5],
		eventQueue:   accounts[6],
	}

	// target orders не участвует в расчетах, но обязан существовать:
	// его отсутствие означает, что пул не инициализирован до конца.
	required := []struct {
		name string
		key  solana.PublicKey
		data []byte
	}{
		{"pool", ammKeys.AmmPool, snap.pool},
		{"target orders", ammKeys.AmmTarget, snap.targetOrders},
		{"pc vault", ammKeys.AmmPcVault, snap.pcVault},
		{"coin vault", ammKeys.AmmCoinVault, snap.coinVault},
		{"open orders", ammKeys.AmmOpenOrders, snap.openOrders},
		{"market", ammKeys.Market, snap.market},
		{"event queue", marketKeys.EventQueue, snap.eventQueue},
	}
	for _, r := range required {
		if r.data == nil {
			return nil, &NotFoundError{Kind: "account", ID: r.name + " " + r.key.String()}
		}
	}

	logger.Debug("account snapshot loaded",
		zap.String("pool", ammKeys.AmmPool.String()),
		zap.Int("accounts", len(keys)))
	return snap, nil
}
