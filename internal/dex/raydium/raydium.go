// internal/dex/raydium/raydium.go
package raydium

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/raydium-executor/internal/blockchain"
	"go.uber.org/zap"
)

// metadataService — поверхность metadata-сервиса, нужная executor'у.
// Выделена интерфейсом ради тестов.
type metadataService interface {
	FindPoolByMints(ctx context.Context, mintA, mintB solana.PublicKey) (solana.PublicKey, error)
	FetchPoolKeys(ctx context.Context, pool solana.PublicKey) (*AmmKeys, *MarketKeys, error)
}

// Executor владеет полным потоком: разрешение пула, разрешение ключей,
// батчевое чтение, расчет котировки и сборка инструкций. Подписание и отправка
// остаются на вызывающем.
type Executor struct {
	client   blockchain.Client
	metadata metadataService
	logger   *zap.Logger

	loadKeysByAPI bool
	config        *SwapConfig
}

// ExecutorOptions — настройки executor'а при создании.
type ExecutorOptions struct {
	// LoadKeysByAPI выбирает источник ключей пула: key bundle
	// metadata-сервиса или декодирование аккаунтов пула и маркета on-chain.
	LoadKeysByAPI bool
	// Config — базовая конфигурация свапов; может быть nil.
	Config *SwapConfig
}

// NewExecutor создает executor поверх ledger-клиента и metadata-сервиса.
func NewExecutor(client blockchain.Client, metadata metadataService, opts ExecutorOptions, logger *zap.Logger) *Executor {
	return &Executor{
		client:        client,
		metadata:      metadata,
		logger:        logger.Named("raydium-executor"),
		loadKeysByAPI: opts.LoadKeysByAPI,
		config:        opts.Config,
	}
}

// UpdateConfig заменяет базовую конфигурацию целиком. Вызовы в полете видят
// ту конфигурацию, с которой начали.
func (e *Executor) UpdateConfig(config *SwapConfig) {
	e.config = config
}

func validateInput(input *SwapInput) error {
	if input == nil {
		return &ValidationError{Field: "input", Message: "must not be nil"}
	}
	if input.InputTokenMint.Equals(input.OutputTokenMint) {
		return &ValidationError{Field: "output_token_mint", Message: "input and output mints must differ"}
	}
	if input.Amount == 0 {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if input.SlippageBps > slippageBpsBase {
		return &ValidationError{Field: "slippage_bps", Message: "must not exceed 10000"}
	}
	return nil
}

// resolvePool возвращает адрес пула: явно заданный используется как есть,
// иначе пул ищется через metadata-сервис по паре mint'ов.
func (e *Executor) resolvePool(ctx context.Context, input *SwapInput) (solana.PublicKey, error) {
	if input.Pool != nil {
		return *input.Pool, nil
	}
	return e.metadata.FindPoolByMints(ctx, input.InputTokenMint, input.OutputTokenMint)
}

// resolveKeys собирает полный набор ключей пула и маркета выбранной
// стратегией. Обе стратегии дают семантически одинаковый результат.
func (e *Executor) resolveKeys(ctx context.Context, pool solana.PublicKey) (*AmmKeys, *MarketKeys, error) {
	if e.loadKeysByAPI {
		return e.metadata.FetchPoolKeys(ctx, pool)
	}
	return e.resolveKeysOnChain(ctx, pool)
}

// resolveKeysOnChain восстанавливает ключи из самих аккаунтов: адрес маркета
// и его программа лежат в состоянии пула, vault signer выводится из nonce
// маркета.
func (e *Executor) resolveKeysOnChain(ctx context.Context, pool solana.PublicKey) (*AmmKeys, *MarketKeys, error) {
	accounts, err := e.client.GetMultipleAccounts(ctx, []solana.PublicKey{pool})
	if err != nil {
		return nil, nil, &UpstreamError{Op: "fetch pool account", Err: err}
	}
	if len(accounts) != 1 || accounts[0] == nil {
		return nil, nil, &NotFoundError{Kind: "account", ID: "pool " + pool.String()}
	}
	info, err := DecodeAmmInfo(pool, accounts[0])
	if err != nil {
		return nil, nil, err
	}
	ammKeys, err := ammKeysFromInfo(pool, info)
	if err != nil {
		return nil, nil, err
	}

	accounts, err = e.client.GetMultipleAccounts(ctx, []solana.PublicKey{ammKeys.Market})
	if err != nil {
		return nil, nil, &UpstreamError{Op: "fetch market account", Err: err}
	}
	if len(accounts) != 1 || accounts[0] == nil {
		return nil, nil, &NotFoundError{Kind: "account", ID: "market " + ammKeys.Market.String()}
	}
	marketState, err := DecodeMarketState(ammKeys.Market, accounts[0])
	if err != nil {
		return nil, nil, err
	}
	marketKeys, err := marketKeysFromState(ammKeys.Market, ammKeys.MarketProgram, marketState)
	if err != nil {
		return nil, nil, err
	}
	return ammKeys, marketKeys, nil
}

// Quote считает детерминированную котировку по одному батчевому снапшоту
// аккаунтов. Результат неизменяем и потребляется одним вызовом сборки.
func (e *Executor) Quote(ctx context.Context, input *SwapInput) (*Quote, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	pool, err := e.resolvePool(ctx, input)
	if err != nil {
		return nil, err
	}

	ammKeys, marketKeys, err := e.resolveKeys(ctx, pool)
	if err != nil {
		return nil, err
	}

	direction, err := resolveDirection(ammKeys, input.InputTokenMint, input.OutputTokenMint)
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, e.client, e.logger, ammKeys, marketKeys)
	if err != nil {
		return nil, err
	}

	info, err := DecodeAmmInfo(ammKeys.AmmPool, snap.pool)
	if err != nil {
		return nil, err
	}
	coinVault, err := DecodeTokenAccount(ammKeys.AmmCoinVault, snap.coinVault)
	if err != nil {
		return nil, err
	}
	pcVault, err := DecodeTokenAccount(ammKeys.AmmPcVault, snap.pcVault)
	if err != nil {
		return nil, err
	}

	var openOrders *OpenOrdersTotals
	var events []QueueEvent
	if AmmStatus(info.Status).OrderBookPermission() {
		openOrders, err = DecodeOpenOrdersTotals(ammKeys.AmmOpenOrders, snap.openOrders)
		if err != nil {
			return nil, err
		}
		events, err = DecodeEventQueue(marketKeys.EventQueue, snap.eventQueue)
		if err != nil {
			return nil, err
		}
	}

	coinReserve, pcReserve, err := poolReserves(info, coinVault, pcVault, openOrders, events, ammKeys.AmmOpenOrders)
	if err != nil {
		return nil, err
	}

	var reserveIn, reserveOut uint64
	var inDecimals, outDecimals uint8
	if direction == Coin2PC {
		reserveIn, reserveOut = coinReserve, pcReserve
		inDecimals, outDecimals = uint8(info.CoinDecimals), uint8(info.PcDecimals)
	} else {
		reserveIn, reserveOut = pcReserve, coinReserve
		inDecimals, outDecimals = uint8(info.PcDecimals), uint8(info.CoinDecimals)
	}

	var otherAmount uint64
	if input.Mode.AmountSpecifiedIsInput() {
		otherAmount, err = swapExactIn(input.Amount, reserveIn, reserveOut,
			info.Fees.SwapFeeNumerator, info.Fees.SwapFeeDenominator)
	} else {
		otherAmount, err = swapExactOut(input.Amount, reserveIn, reserveOut,
			info.Fees.SwapFeeNumerator, info.Fees.SwapFeeDenominator)
	}
	if err != nil {
		return nil, err
	}

	threshold, err := applySlippage(otherAmount, input.SlippageBps, input.Mode)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("quote computed",
		zap.String("pool", pool.String()),
		zap.Uint64("amount", input.Amount),
		zap.Uint64("other_amount", otherAmount),
		zap.Uint64("threshold", threshold),
		zap.Uint64("reserve_in", reserveIn),
		zap.Uint64("reserve_out", reserveOut))

	return &Quote{
		Pool:                   pool,
		InputTokenMint:         input.InputTokenMint,
		OutputTokenMint:        input.OutputTokenMint,
		Amount:                 input.Amount,
		OtherAmount:            otherAmount,
		OtherAmountThreshold:   threshold,
		AmountSpecifiedIsInput: input.Mode.AmountSpecifiedIsInput(),
		InputMintDecimals:      inDecimals,
		OutputMintDecimals:     outDecimals,
		AmmKeys:                *ammKeys,
		MarketKeys:             *marketKeys,
	}, nil
}

// inputAmount — вход свапа: сам вход при ExactIn и расчетный вход при
// ExactOut. Именно столько заворачивается в WSOL.
func (q *Quote) inputAmount() uint64 {
	if q.AmountSpecifiedIsInput {
		return q.Amount
	}
	return q.OtherAmount
}

// SwapInstructions собирает упорядоченный список инструкций для котировки.
// overrides перекрывают базовую конфигурацию пополево.
func (e *Executor) SwapInstructions(ctx context.Context, quote *Quote, owner solana.PublicKey, overrides *SwapConfigOverrides) ([]solana.Instruction, error) {
	if quote == nil {
		return nil, &ValidationError{Field: "quote", Message: "must not be nil"}
	}
	if owner.IsZero() {
		return nil, &ValidationError{Field: "owner", Message: "must not be zero"}
	}

	cfg := resolveConfig(e.config, overrides)

	userSource, _, err := solana.FindAssociatedTokenAddress(owner, quote.InputTokenMint)
	if err != nil {
		return nil, &UpstreamError{Op: "derive source token account", Err: err}
	}
	userDest, _, err := solana.FindAssociatedTokenAddress(owner, quote.OutputTokenMint)
	if err != nil {
		return nil, &UpstreamError{Op: "derive destination token account", Err: err}
	}

	builder := &instructionBuilder{}
	builder.addSetup(
		createATAIdempotentInstruction(owner, owner, quote.InputTokenMint, userSource),
		createATAIdempotentInstruction(owner, owner, quote.OutputTokenMint, userDest),
	)

	inputIsSOL := quote.InputTokenMint.Equals(WrappedSOLMint)
	outputIsSOL := quote.OutputTokenMint.Equals(WrappedSOLMint)
	if cfg.wrapSOL && inputIsSOL {
		builder.addSetup(wrapSOLInstructions(owner, userSource, quote.inputAmount())...)
	}

	builder.setSwap(buildSwapInstruction(quote, owner, userSource, userDest))

	// Лимит оценивается по инструкциям, которые реально пойдут в транзакцию,
	// без самих compute-budget инструкций.
	core, err := builder.Build()
	if err != nil {
		return nil, err
	}
	cuLimit := resolveComputeUnitLimit(ctx, e.client, e.logger, cfg.cuLimits, core, owner)
	cuPrice, hasPrice, err := resolveComputeUnitPrice(cfg.priorityFee, cuLimit)
	if err != nil {
		return nil, err
	}
	builder.addBudget(buildComputeBudgetInstructions(cuLimit, cuPrice, hasPrice)...)

	if cfg.wrapSOL && (inputIsSOL || outputIsSOL) {
		wsolATA := userSource
		if outputIsSOL {
			wsolATA = userDest
		}
		builder.addCleanup(unwrapSOLInstruction(owner, wsolATA))
	}

	instructions, err := builder.Build()
	if err != nil {
		return nil, err
	}

	e.logger.Debug("swap instructions assembled",
		zap.String("pool", quote.Pool.String()),
		zap.Int("instruction_count", len(instructions)),
		zap.Uint32("cu_limit", cuLimit),
		zap.Bool("priority_fee", hasPrice))
	return instructions, nil
}

// SwapTransaction собирает неподписанную legacy-транзакцию для котировки.
// Blockhash и подпись — ответственность вызывающего.
func (e *Executor) SwapTransaction(ctx context.Context, quote *Quote, owner solana.PublicKey, overrides *SwapConfigOverrides) (*solana.Transaction, error) {
	instructions, err := e.SwapInstructions(ctx, quote, owner, overrides)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(owner))
	if err != nil {
		return nil, &UpstreamError{Op: "build transaction", Err: err}
	}
	return tx, nil
}
