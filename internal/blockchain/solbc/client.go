// internal/blockchain/solbc/client.go
package solbc

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/raydium-executor/internal/blockchain"
	"go.uber.org/zap"
)

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

var _ blockchain.Client = (*Client)(nil)

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("solbc-client"),
	}
}

// GetMultipleAccounts получает данные нескольких аккаунтов за один запрос.
// Порядок результата совпадает с порядком запроса; несуществующий аккаунт
// остается nil-слотом.
func (c *Client) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	opts := rpc.GetMultipleAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	}

	res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, keys, &opts)
	if err != nil {
		c.logger.Debug("GetMultipleAccounts error", zap.Error(err))
		return nil, err
	}

	out := make([][]byte, len(keys))
	for i, acc := range res.Value {
		if acc == nil || acc.Data == nil {
			continue
		}
		out[i] = acc.Data.GetBinary()
	}
	return out, nil
}

// GetLatestBlockhash получает последний blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SimulateTransaction симулирует транзакцию с подменой blockhash: так
// неподписанная транзакция может быть оценена до выбора blockhash.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	opts := rpc.SimulateTransactionOpts{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             rpc.CommitmentConfirmed,
	}

	result, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &opts)
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}

	sim := &blockchain.SimulationResult{
		Err:           result.Value.Err,
		Logs:          result.Value.Logs,
		UnitsConsumed: result.Value.UnitsConsumed,
	}
	return sim, nil
}
