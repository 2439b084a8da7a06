// internal/dex/raydium/state.go
package raydium

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Размеры бинарных layout'ов программ. Любой blob другой длины отклоняется
// как DecodeError, неявная реинтерпретация не выполняется.
const (
	AmmInfoSize          = 752
	TokenAccountSize     = 165
	MarketStateSize      = 388
	OpenOrdersSize       = 3228
	eventQueueHeaderSize = 37
	eventSize            = 88
)

// U128 представляет little-endian u128 поле layout'а. Значение здесь не
// участвует в расчетах, только занимает свои байты.
type U128 struct {
	Lo uint64
	Hi uint64
}

// AmmStatus — статус пула; определяет, применяется ли order-book settlement.
type AmmStatus uint64

const (
	AmmUninitialized AmmStatus = iota
	AmmInitialized
	AmmDisabled
	AmmWithdrawOnly
	AmmLiquidityOnly
	AmmOrderBookOnly
	AmmSwapOnly
	AmmWaitingTrade
)

// OrderBookPermission reports whether unsettled open orders on the coupled
// market contribute to the pool's true reserves.
func (s AmmStatus) OrderBookPermission() bool {
	switch s {
	case AmmInitialized, AmmOrderBookOnly:
		return true
	default:
		return false
	}
}

// Fees — блок комиссий AmmInfo.
type Fees struct {
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
}

// OutputData — накопленная статистика пула; отсюда нужны только pending PnL
// суммы, которые вычитаются из резервов.
type OutputData struct {
	NeedTakePnlCoin      uint64
	NeedTakePnlPc        uint64
	TotalPnlPc           uint64
	TotalPnlCoin         uint64
	PoolTotalDepositPc   U128
	PoolTotalDepositCoin U128
	SwapCoinInAmount     U128
	SwapPcOutAmount      U128
	SwapCoin2PcFee       uint64
	SwapPcInAmount       U128
	SwapCoinOutAmount    U128
	SwapPc2CoinFee       uint64
}

// AmmInfo — состояние пула Raydium V4, ровно 752 байта.
type AmmInfo struct {
	Status             uint64
	Nonce              uint64
	OrderNum           uint64
	Depth              uint64
	CoinDecimals       uint64
	PcDecimals         uint64
	State              uint64
	ResetFlag          uint64
	MinSize            uint64
	VolMaxCutRatio     uint64
	AmountWave         uint64
	CoinLotSize        uint64
	PcLotSize          uint64
	MinPriceMultiplier uint64
	MaxPriceMultiplier uint64
	SysDecimalValue    uint64
	Fees               Fees
	Output             OutputData
	CoinVault          solana.PublicKey
	PcVault            solana.PublicKey
	CoinMint           solana.PublicKey
	PcMint             solana.PublicKey
	LpMint             solana.PublicKey
	OpenOrders         solana.PublicKey
	Market             solana.PublicKey
	MarketProgram      solana.PublicKey
	TargetOrders       solana.PublicKey
	WithdrawQueue      solana.PublicKey
	TempLpVault        solana.PublicKey
	AmmOwner           solana.PublicKey
	PnlOwner           solana.PublicKey
}

// DecodeAmmInfo декодирует аккаунт пула, требуя точную длину layout'а.
func DecodeAmmInfo(account solana.PublicKey, data []byte) (*AmmInfo, error) {
	if len(data) != AmmInfoSize {
		return nil, decodeSizeError(account.String(), AmmInfoSize, len(data))
	}
	var info AmmInfo
	if err := bin.NewBinDecoder(data).Decode(&info); err != nil {
		return nil, &DecodeError{Account: account.String(), Reason: err.Error()}
	}
	return &info, nil
}

// coptionKey и coptionU64 — COption поля SPL token account layout'а.
type coptionKey struct {
	Tag   uint32
	Value solana.PublicKey
}

type coptionU64 struct {
	Tag   uint32
	Value uint64
}

// TokenAccount — стандартный SPL token account, ровно 165 байт.
type TokenAccount struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        coptionKey
	State           uint8
	IsNative        coptionU64
	DelegatedAmount uint64
	CloseAuthority  coptionKey
}

// DecodeTokenAccount декодирует SPL token account, требуя точную длину.
func DecodeTokenAccount(account solana.PublicKey, data []byte) (*TokenAccount, error) {
	if len(data) != TokenAccountSize {
		return nil, decodeSizeError(account.String(), TokenAccountSize, len(data))
	}
	var ta TokenAccount
	if err := bin.NewBinDecoder(data).Decode(&ta); err != nil {
		return nil, &DecodeError{Account: account.String(), Reason: err.Error()}
	}
	return &ta, nil
}

// MarketState — состояние Serum/OpenBook маркета, ровно 388 байт, включая
// 5-байтовый префикс и 7-байтовый суффикс.
type MarketState struct {
	SerumPadding           [5]byte
	AccountFlags           uint64
	OwnAddress             solana.PublicKey
	VaultSignerNonce       uint64
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	BaseVault              solana.PublicKey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             solana.PublicKey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           solana.PublicKey
	EventQueue             solana.PublicKey
	Bids                   solana.PublicKey
	Asks                   solana.PublicKey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	EndPadding             [7]byte
}

// DecodeMarketState декодирует аккаунт маркета, требуя точную длину.
func DecodeMarketState(account solana.PublicKey, data []byte) (*MarketState, error) {
	if len(data) != MarketStateSize {
		return nil, decodeSizeError(account.String(), MarketStateSize, len(data))
	}
	var ms MarketState
	if err := bin.NewBinDecoder(data).Decode(&ms); err != nil {
		return nil, &DecodeError{Account: account.String(), Reason: err.Error()}
	}
	return &ms, nil
}

// OpenOrdersTotals — суммарные остатки open-orders аккаунта пула на маркете.
// Полный layout содержит 128 слотов ордеров; для расчета резервов нужны
// только native totals, поэтому читаем их по фиксированным смещениям после
// проверки точной длины.
type OpenOrdersTotals struct {
	NativeCoinTotal uint64
	NativePcTotal   uint64
}

// Смещения внутри open-orders layout'а: 5 байт префикса, 8 байт флагов,
// 32 байта market, 32 байта owner, затем free/total пары coin и pc.
const (
	openOrdersCoinTotalOffset = 5 + 8 + 32 + 32 + 8
	openOrdersPcTotalOffset   = openOrdersCoinTotalOffset + 16
)

// DecodeOpenOrdersTotals декодирует open-orders аккаунт, требуя точную длину.
func DecodeOpenOrdersTotals(account solana.PublicKey, data []byte) (*OpenOrdersTotals, error) {
	if len(data) != OpenOrdersSize {
		return nil, decodeSizeError(account.String(), OpenOrdersSize, len(data))
	}
	return &OpenOrdersTotals{
		NativeCoinTotal: binary.LittleEndian.Uint64(data[openOrdersCoinTotalOffset:]),
		NativePcTotal:   binary.LittleEndian.Uint64(data[openOrdersPcTotalOffset:]),
	}, nil
}

// Флаги событий очереди маркета.
const (
	eventFlagFill uint8 = 1 << 0
	eventFlagOut  uint8 = 1 << 1
	eventFlagBid  uint8 = 1 << 2
)

// QueueEvent — одно событие очереди маркета, 88 байт.
type QueueEvent struct {
	Flags             uint8
	OwnerSlot         uint8
	FeeTier           uint8
	NativeQtyReleased uint64
	NativeQtyPaid     uint64
	NativeFeeOrRebate uint64
	OrderID           U128
	Owner             solana.PublicKey
	ClientOrderID     uint64
}

// IsFill reports whether the event is an unprocessed fill.
func (e *QueueEvent) IsFill() bool { return e.Flags&eventFlagFill != 0 }

// IsBid reports whether the filled order was a bid.
func (e *QueueEvent) IsBid() bool { return e.Flags&eventFlagBid != 0 }

// DecodeEventQueue декодирует кольцевую очередь событий маркета. Длина должна
// быть заголовок плюс целое число событий; возвращаются только
// необработанные события от head до head+count.
func DecodeEventQueue(account solana.PublicKey, data []byte) ([]QueueEvent, error) {
	if len(data) < eventQueueHeaderSize {
		return nil, decodeSizeError(account.String(), eventQueueHeaderSize, len(data))
	}
	if (len(data)-eventQueueHeaderSize)%eventSize != 0 {
		return nil, &DecodeError{
			Account: account.String(),
			Reason: fmt.Sprintf("event region of %d bytes is not a multiple of %d",
				len(data)-eventQueueHeaderSize, eventSize),
		}
	}

	// Заголовок: 5 байт префикса, затем account flags, head, count и seq
	// по u64.
	head := binary.LittleEndian.Uint64(data[13:21])
	count := binary.LittleEndian.Uint64(data[21:29])

	capacity := uint64((len(data) - eventQueueHeaderSize) / eventSize)
	if count == 0 {
		return nil, nil
	}
	if capacity == 0 || count > capacity || head >= capacity {
		return nil, &DecodeError{
			Account: account.String(),
			Reason: fmt.Sprintf("inconsistent ring header: head=%d count=%d capacity=%d",
				head, count, capacity),
		}
	}

	events := make([]QueueEvent, 0, count)
	for i := uint64(0); i < count; i++ {
		pos := (head + i) % capacity
		off := eventQueueHeaderSize + int(pos)*eventSize

		var evt QueueEvent
		evt.Flags = data[off]
		evt.OwnerSlot = data[off+1]
		evt.FeeTier = data[off+2]
		// 5 байт выравнивания
		evt.NativeQtyReleased = binary.LittleEndian.Uint64(data[off+8:])
		evt.NativeQtyPaid = binary.LittleEndian.Uint64(data[off+16:])
		evt.NativeFeeOrRebate = binary.LittleEndian.Uint64(data[off+24:])
		evt.OrderID.Lo = binary.LittleEndian.Uint64(data[off+32:])
		evt.OrderID.Hi = binary.LittleEndian.Uint64(data[off+40:])
		copy(evt.Owner[:], data[off+48:off+80])
		evt.ClientOrderID = binary.LittleEndian.Uint64(data[off+80:])

		events = append(events, evt)
	}
	return events, nil
}
