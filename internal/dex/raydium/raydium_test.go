// internal/dex/raydium/raydium_test.go
package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// quoteFixture — согласованный набор ключей и снапшота для тестов полного
// потока котировки.
type quoteFixture struct {
	pool       solana.PublicKey
	ammKeys    *AmmKeys
	marketKeys *MarketKeys
	snapshot   [][]byte
	poolData   []byte
}

func tokenAccountBytes(amount uint64) []byte {
	buf := make([]byte, TokenAccountSize)
	binary.LittleEndian.PutUint64(buf[64:], amount)
	return buf
}

func openOrdersBytes(coinTotal, pcTotal uint64) []byte {
	buf := make([]byte, OpenOrdersSize)
	binary.LittleEndian.PutUint64(buf[openOrdersCoinTotalOffset:], coinTotal)
	binary.LittleEndian.PutUint64(buf[openOrdersPcTotalOffset:], pcTotal)
	return buf
}

// newQuoteFixture строит пул со статусом status, резервами vault'ов
// coinAmount/pcAmount и пустой очередью событий.
func newQuoteFixture(t *testing.T, status AmmStatus, coinAmount, pcAmount uint64) *quoteFixture {
	t.Helper()

	poolData, keys := ammInfoFixture(t)
	put64(poolData, 0, uint64(status))
	put64(poolData, 192, 0) // need take pnl coin
	put64(poolData, 200, 0) // need take pnl pc

	pool := solana.NewWallet().PublicKey()
	ammKeys := &AmmKeys{
		AmmPool:       pool,
		AmmCoinMint:   keys["coinMint"],
		AmmPcMint:     keys["pcMint"],
		AmmAuthority:  solana.NewWallet().PublicKey(),
		AmmTarget:     keys["targetOrders"],
		AmmCoinVault:  keys["coinVault"],
		AmmPcVault:    keys["pcVault"],
		AmmLpMint:     keys["lpMint"],
		AmmOpenOrders: keys["openOrders"],
		MarketProgram: keys["marketProgram"],
		Market:        keys["market"],
	}
	marketKeys := &MarketKeys{
		EventQueue:  solana.NewWallet().PublicKey(),
		Bids:        solana.NewWallet().PublicKey(),
		Asks:        solana.NewWallet().PublicKey(),
		CoinVault:   solana.NewWallet().PublicKey(),
		PcVault:     solana.NewWallet().PublicKey(),
		VaultSigner: solana.NewWallet().PublicKey(),
	}

	// Порядок снапшота: pool, target, pcVault, coinVault, openOrders,
	// market, eventQueue
	snapshot := [][]byte{
		poolData,
		make([]byte, 64),
		tokenAccountBytes(pcAmount),
		tokenAccountBytes(coinAmount),
		openOrdersBytes(0, 0),
		make([]byte, MarketStateSize),
		eventQueueFixture(4, 0, nil),
	}

	return &quoteFixture{
		pool:       pool,
		ammKeys:    ammKeys,
		marketKeys: marketKeys,
		snapshot:   snapshot,
		poolData:   poolData,
	}
}

func newTestExecutor(client *MockClient, metadata *MockMetadata, cfg *SwapConfig) *Executor {
	return NewExecutor(client, metadata, ExecutorOptions{
		LoadKeysByAPI: true,
		Config:        cfg,
	}, zap.NewNop())
}

func TestQuoteValidation(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	tests := []struct {
		name  string
		input *SwapInput
	}{
		{name: "nil input", input: nil},
		{
			name:  "equal mints",
			input: &SwapInput{InputTokenMint: mint, OutputTokenMint: mint, Amount: 100},
		},
		{
			name:  "zero amount",
			input: &SwapInput{InputTokenMint: mint, OutputTokenMint: other, Amount: 0},
		},
		{
			name:  "excessive slippage",
			input: &SwapInput{InputTokenMint: mint, OutputTokenMint: other, Amount: 100, SlippageBps: 10_001},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			metadata := new(MockMetadata)
			executor := newTestExecutor(client, metadata, nil)

			ctx, cancel := MockedContext()
			defer cancel()

			_, err := executor.Quote(ctx, tt.input)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)

			// Никаких сетевых обращений до валидации
			client.AssertNotCalled(t, "GetMultipleAccounts")
			metadata.AssertNotCalled(t, "FindPoolByMints")
		})
	}
}

func TestQuoteExactIn(t *testing.T) {
	fx := newQuoteFixture(t, AmmSwapOnly, 100_000_000, 200_000_000)

	client := new(MockClient)
	client.On("GetMultipleAccounts", mock.Anything, snapshotKeys(fx.ammKeys, fx.marketKeys)).
		Return(fx.snapshot, nil)
	metadata := new(MockMetadata)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	quote, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmCoinMint,
		OutputTokenMint: fx.ammKeys.AmmPcMint,
		SlippageBps:     100,
		Amount:          1_000_000,
		Mode:            ExactIn,
		Pool:            &fx.pool,
	})
	require.NoError(t, err)

	assert.Equal(t, fx.pool, quote.Pool)
	assert.Equal(t, uint64(1_000_000), quote.Amount)
	assert.Equal(t, uint64(1_975_297), quote.OtherAmount)
	assert.Equal(t, uint64(1_955_544), quote.OtherAmountThreshold)
	assert.True(t, quote.AmountSpecifiedIsInput)
	assert.Equal(t, uint8(9), quote.InputMintDecimals)
	assert.Equal(t, uint8(6), quote.OutputMintDecimals)
	assert.Equal(t, *fx.ammKeys, quote.AmmKeys)
	assert.Equal(t, *fx.marketKeys, quote.MarketKeys)

	// Явный пул: поиск через metadata-сервис не выполняется
	metadata.AssertNotCalled(t, "FindPoolByMints")
}

func TestQuoteExactInReverseDirection(t *testing.T) {
	fx := newQuoteFixture(t, AmmSwapOnly, 100_000_000, 200_000_000)

	client := new(MockClient)
	client.On("GetMultipleAccounts", mock.Anything, mock.Anything).Return(fx.snapshot, nil)
	metadata := new(MockMetadata)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	quote, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmPcMint,
		OutputTokenMint: fx.ammKeys.AmmCoinMint,
		SlippageBps:     100,
		Amount:          1_000_000,
		Mode:            ExactIn,
		Pool:            &fx.pool,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(496_275), quote.OtherAmount)
	assert.Equal(t, uint64(491_312), quote.OtherAmountThreshold)
	assert.Equal(t, uint8(6), quote.InputMintDecimals)
	assert.Equal(t, uint8(9), quote.OutputMintDecimals)
}

func TestQuoteOrderBookPath(t *testing.T) {
	fx := newQuoteFixture(t, AmmInitialized, 100_000_000, 200_000_000)
	put64(fx.poolData, 192, 50_000) // need take pnl coin
	put64(fx.poolData, 200, 60_000) // need take pnl pc

	fx.snapshot[4] = openOrdersBytes(1_000_000, 2_000_000)
	fx.snapshot[6] = eventQueueFixture(4, 0, []QueueEvent{
		{Flags: eventFlagFill | eventFlagBid, NativeQtyPaid: 300_000, NativeQtyReleased: 150_000, Owner: fx.ammKeys.AmmOpenOrders},
		{Flags: eventFlagFill, NativeQtyPaid: 100_000, NativeQtyReleased: 400_000, Owner: fx.ammKeys.AmmOpenOrders},
	})

	client := new(MockClient)
	client.On("GetMultipleAccounts", mock.Anything, mock.Anything).Return(fx.snapshot, nil)
	metadata := new(MockMetadata)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	quote, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmCoinMint,
		OutputTokenMint: fx.ammKeys.AmmPcMint,
		SlippageBps:     50,
		Amount:          1_000_000,
		Mode:            ExactIn,
		Pool:            &fx.pool,
	})
	require.NoError(t, err)

	// Резервы: coin 101_000_000, pc 202_040_000 после settlement и PnL
	assert.Equal(t, uint64(1_975_881), quote.OtherAmount)
	assert.Equal(t, uint64(1_966_001), quote.OtherAmountThreshold)
}

func TestQuoteResolvesPoolViaMetadata(t *testing.T) {
	fx := newQuoteFixture(t, AmmSwapOnly, 100_000_000, 200_000_000)

	client := new(MockClient)
	client.On("GetMultipleAccounts", mock.Anything, mock.Anything).Return(fx.snapshot, nil)
	metadata := new(MockMetadata)
	metadata.On("FindPoolByMints", mock.Anything, fx.ammKeys.AmmCoinMint, fx.ammKeys.AmmPcMint).
		Return(fx.pool, nil)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	quote, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmCoinMint,
		OutputTokenMint: fx.ammKeys.AmmPcMint,
		SlippageBps:     100,
		Amount:          1_000_000,
		Mode:            ExactIn,
	})
	require.NoError(t, err)
	assert.Equal(t, fx.pool, quote.Pool)
	metadata.AssertCalled(t, "FindPoolByMints", mock.Anything, fx.ammKeys.AmmCoinMint, fx.ammKeys.AmmPcMint)
}

func TestQuoteMintPairMismatch(t *testing.T) {
	fx := newQuoteFixture(t, AmmSwapOnly, 100_000_000, 200_000_000)

	client := new(MockClient)
	metadata := new(MockMetadata)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	// Один из mint'ов не принадлежит пулу
	_, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmCoinMint,
		OutputTokenMint: solana.NewWallet().PublicKey(),
		SlippageBps:     100,
		Amount:          1_000_000,
		Mode:            ExactIn,
		Pool:            &fx.pool,
	})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestQuoteMissingPoolAccount(t *testing.T) {
	fx := newQuoteFixture(t, AmmSwapOnly, 100_000_000, 200_000_000)
	fx.snapshot[0] = nil

	client := new(MockClient)
	client.On("GetMultipleAccounts", mock.Anything, mock.Anything).Return(fx.snapshot, nil)
	metadata := new(MockMetadata)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	_, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmCoinMint,
		OutputTokenMint: fx.ammKeys.AmmPcMint,
		SlippageBps:     100,
		Amount:          1_000_000,
		Mode:            ExactIn,
		Pool:            &fx.pool,
	})
	var notFoundErr *NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestQuoteTruncatedPoolAccount(t *testing.T) {
	fx := newQuoteFixture(t, AmmSwapOnly, 100_000_000, 200_000_000)
	fx.snapshot[0] = fx.snapshot[0][:AmmInfoSize-8]

	client := new(MockClient)
	client.On("GetMultipleAccounts", mock.Anything, mock.Anything).Return(fx.snapshot, nil)
	metadata := new(MockMetadata)
	metadata.On("FetchPoolKeys", mock.Anything, fx.pool).Return(fx.ammKeys, fx.marketKeys, nil)

	executor := newTestExecutor(client, metadata, nil)
	ctx, cancel := MockedContext()
	defer cancel()

	_, err := executor.Quote(ctx, &SwapInput{
		InputTokenMint:  fx.ammKeys.AmmCoinMint,
		OutputTokenMint: fx.ammKeys.AmmPcMint,
		SlippageBps:     100,
		Amount:          1_000_000,
		Mode:            ExactIn,
		Pool:            &fx.pool,
	})
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestUpdateConfig(t *testing.T) {
	client := new(MockClient)
	metadata := new(MockMetadata)
	executor := newTestExecutor(client, metadata, nil)

	wrap := false
	executor.UpdateConfig(&SwapConfig{WrapAndUnwrapSOL: &wrap})

	resolved := resolveConfig(executor.config, nil)
	assert.False(t, resolved.wrapSOL)
}
