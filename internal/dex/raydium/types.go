// internal/dex/raydium/types.go
// Package raydium реализует расчет котировок и сборку инструкций свапа для
// Raydium V4 AMM на Solana.
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// ExecutionMode определяет, задана ли сумма во входном или выходном токене.
type ExecutionMode uint8

const (
	ExactIn ExecutionMode = iota
	ExactOut
)

// AmountSpecifiedIsInput reports whether the fixed leg of the swap is the
// input token.
func (m ExecutionMode) AmountSpecifiedIsInput() bool {
	return m == ExactIn
}

// SwapDirection определяет направление свапа относительно coin/pc пула.
type SwapDirection uint8

const (
	Coin2PC SwapDirection = iota
	PC2Coin
)

// SwapInput описывает один запрос котировки.
type SwapInput struct {
	InputTokenMint  solana.PublicKey
	OutputTokenMint solana.PublicKey
	SlippageBps     uint16
	Amount          uint64
	Mode            ExecutionMode
	// Pool, если задан, используется как есть вместо поиска через
	// metadata-сервис.
	Pool *solana.PublicKey
}

// AmmKeys — адреса самого пула: vaults, open orders, связанный market.
type AmmKeys struct {
	AmmPool       solana.PublicKey
	AmmCoinMint   solana.PublicKey
	AmmPcMint     solana.PublicKey
	AmmAuthority  solana.PublicKey
	AmmTarget     solana.PublicKey
	AmmCoinVault  solana.PublicKey
	AmmPcVault    solana.PublicKey
	AmmLpMint     solana.PublicKey
	AmmOpenOrders solana.PublicKey
	MarketProgram solana.PublicKey
	Market        solana.PublicKey
}

// MarketKeys — адреса связанного order-book маркета.
type MarketKeys struct {
	EventQueue  solana.PublicKey
	Bids        solana.PublicKey
	Asks        solana.PublicKey
	CoinVault   solana.PublicKey
	PcVault     solana.PublicKey
	VaultSigner solana.PublicKey
}

// Quote — рассчитанная, ещё не отправленная проекция свапа. Значение
// неизменяемо и потребляется ровно одним вызовом сборки инструкций.
type Quote struct {
	Pool            solana.PublicKey
	InputTokenMint  solana.PublicKey
	OutputTokenMint solana.PublicKey
	// Amount — сумма, заданная вызывающим (вход при ExactIn, выход при
	// ExactOut).
	Amount uint64
	// OtherAmount — рассчитанная вторая сторона свапа.
	OtherAmount uint64
	// OtherAmountThreshold — граница с учетом slippage: минимум к получению
	// при ExactIn, максимум к оплате при ExactOut.
	OtherAmountThreshold   uint64
	AmountSpecifiedIsInput bool
	InputMintDecimals      uint8
	OutputMintDecimals     uint8
	AmmKeys                AmmKeys
	MarketKeys             MarketKeys
}

// PriorityFeeMode определяет способ расчета priority fee.
type PriorityFeeMode uint8

const (
	// PriorityFeeFixedCuPrice задает цену за compute unit в микроламмпортах.
	PriorityFeeFixedCuPrice PriorityFeeMode = iota
	// PriorityFeeDynamicBudget задает общий бюджет в ламмпортах, который
	// распределяется по разрешенному лимиту compute units.
	PriorityFeeDynamicBudget
)

// PriorityFeeConfig описывает политику priority fee.
type PriorityFeeConfig struct {
	Mode  PriorityFeeMode
	Value uint64
}

// ComputeUnitLimitMode определяет способ выбора лимита compute units.
type ComputeUnitLimitMode uint8

const (
	// ComputeUnitLimitDynamic — лимит оценивается симуляцией транзакции.
	ComputeUnitLimitDynamic ComputeUnitLimitMode = iota
	// ComputeUnitLimitFixed — лимит задан явно.
	ComputeUnitLimitFixed
)

// ComputeUnitLimits описывает политику лимита compute units.
type ComputeUnitLimits struct {
	Mode  ComputeUnitLimitMode
	Units uint32
}

// SwapConfig — базовая конфигурация executor'а. Обновляется только целиком.
type SwapConfig struct {
	PriorityFee      *PriorityFeeConfig
	CULimits         *ComputeUnitLimits
	WrapAndUnwrapSOL *bool
}

// SwapConfigOverrides перекрывают базовую конфигурацию пополево: заданное поле
// override имеет приоритет, незаданное падает на базовую конфигурацию, затем
// на жесткий default.
type SwapConfigOverrides struct {
	PriorityFee      *PriorityFeeConfig
	CULimits         *ComputeUnitLimits
	WrapAndUnwrapSOL *bool
}
