// internal/dex/raydium/mocks_test.go
package raydium

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/raydium-executor/internal/blockchain"
	"github.com/stretchr/testify/mock"
)

const defaultTestTimeout = 5 * time.Second

// MockClient реализует blockchain.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	args := m.Called(ctx, keys)
	if data := args.Get(0); data != nil {
		return data.([][]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockClient) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	args := m.Called(ctx, tx)
	if res := args.Get(0); res != nil {
		return res.(*blockchain.SimulationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMetadata реализует metadataService
type MockMetadata struct {
	mock.Mock
}

func (m *MockMetadata) FindPoolByMints(ctx context.Context, mintA, mintB solana.PublicKey) (solana.PublicKey, error) {
	args := m.Called(ctx, mintA, mintB)
	return args.Get(0).(solana.PublicKey), args.Error(1)
}

func (m *MockMetadata) FetchPoolKeys(ctx context.Context, pool solana.PublicKey) (*AmmKeys, *MarketKeys, error) {
	args := m.Called(ctx, pool)
	var amm *AmmKeys
	var market *MarketKeys
	if v := args.Get(0); v != nil {
		amm = v.(*AmmKeys)
	}
	if v := args.Get(1); v != nil {
		market = v.(*MarketKeys)
	}
	return amm, market, args.Error(2)
}

// MockedContext создает контекст с таймаутом для тестов
func MockedContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), defaultTestTimeout)
}
