// internal/dex/raydium/order_book.go
package raydium

import (
	"math"

	"github.com/gagliardetto/solana-go"
)

// Резервы пула не равны остаткам vault'ов: из них вычитается pending PnL,
// а для пулов с order-book settlement добавляются средства, висящие на
// open-orders аккаунте маркета, с учетом еще не обработанных fill-событий
// из очереди.

func checkedAdd(a, b uint64, op string) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, &ArithmeticError{Op: op}
	}
	return a + b, nil
}

func checkedSub(a, b uint64, op string) (uint64, error) {
	if b > a {
		return 0, &ArithmeticError{Op: op}
	}
	return a - b, nil
}

// settledOpenOrders прокатывает необработанные fill-события пула по его
// open-orders totals. Fill по bid-ордеру означает, что pc уже потрачен, а
// coin уже получен; ask — наоборот. События чужих владельцев очереди
// игнорируются.
func settledOpenOrders(totals *OpenOrdersTotals, events []QueueEvent, owner solana.PublicKey) (coinTotal, pcTotal uint64, err error) {
	coinTotal = totals.NativeCoinTotal
	pcTotal = totals.NativePcTotal

	for i := range events {
		evt := &events[i]
		if !evt.IsFill() || !evt.Owner.Equals(owner) {
			continue
		}
		if evt.IsBid() {
			pcTotal, err = checkedSub(pcTotal, evt.NativeQtyPaid, "settle bid: pc underflow")
			if err != nil {
				return 0, 0, err
			}
			coinTotal, err = checkedAdd(coinTotal, evt.NativeQtyReleased, "settle bid: coin overflow")
			if err != nil {
				return 0, 0, err
			}
		} else {
			coinTotal, err = checkedSub(coinTotal, evt.NativeQtyPaid, "settle ask: coin underflow")
			if err != nil {
				return 0, 0, err
			}
			pcTotal, err = checkedAdd(pcTotal, evt.NativeQtyReleased, "settle ask: pc overflow")
			if err != nil {
				return 0, 0, err
			}
		}
	}
	return coinTotal, pcTotal, nil
}

// poolReserves считает эффективные резервы coin/pc на момент снапшота.
// openOrders и events могут быть nil, если статус пула не дает order-book
// permission.
func poolReserves(info *AmmInfo, coinVault, pcVault *TokenAccount, openOrders *OpenOrdersTotals, events []QueueEvent, openOrdersKey solana.PublicKey) (coinReserve, pcReserve uint64, err error) {
	coinReserve = coinVault.Amount
	pcReserve = pcVault.Amount

	if AmmStatus(info.Status).OrderBookPermission() && openOrders != nil {
		coinTotal, pcTotal, serr := settledOpenOrders(openOrders, events, openOrdersKey)
		if serr != nil {
			return 0, 0, serr
		}
		coinReserve, err = checkedAdd(coinReserve, coinTotal, "reserves: coin overflow")
		if err != nil {
			return 0, 0, err
		}
		pcReserve, err = checkedAdd(pcReserve, pcTotal, "reserves: pc overflow")
		if err != nil {
			return 0, 0, err
		}
	}

	coinReserve, err = checkedSub(coinReserve, info.Output.NeedTakePnlCoin, "reserves: coin pnl underflow")
	if err != nil {
		return 0, 0, err
	}
	pcReserve, err = checkedSub(pcReserve, info.Output.NeedTakePnlPc, "reserves: pc pnl underflow")
	if err != nil {
		return 0, 0, err
	}
	return coinReserve, pcReserve, nil
}
