// internal/dex/raydium/utils.go
package raydium

import (
	"github.com/shopspring/decimal"
)

// Хелперы для отображения сумм. Ядро считает только в нативных целых;
// decimal появляется на границе с человеком.

// TokenAmountToDecimal конвертирует нативную сумму в decimal с учетом decimals.
func TokenAmountToDecimal(amount uint64, decimals uint8) decimal.Decimal {
	multiplier := decimal.New(1, int32(decimals))
	return decimal.NewFromUint64(amount).Div(multiplier)
}

// DecimalToTokenAmount конвертирует decimal в нативную сумму. Дробный
// результат означает, что сумма не представима, возвращается 0.
func DecimalToTokenAmount(amount decimal.Decimal, decimals uint8) uint64 {
	multiplier := decimal.New(1, int32(decimals))
	result := amount.Mul(multiplier)
	if !result.IsInteger() || result.IsNegative() {
		return 0
	}
	return uint64(result.IntPart())
}

// FormatTokenAmount форматирует нативную сумму для вывода.
func FormatTokenAmount(amount uint64, decimals uint8) string {
	return TokenAmountToDecimal(amount, decimals).StringFixed(int32(decimals))
}

// ExecutionPrice возвращает цену исполнения котировки: выход за единицу входа
// с учетом decimals обеих сторон.
func ExecutionPrice(q *Quote) decimal.Decimal {
	var in, out decimal.Decimal
	if q.AmountSpecifiedIsInput {
		in = TokenAmountToDecimal(q.Amount, q.InputMintDecimals)
		out = TokenAmountToDecimal(q.OtherAmount, q.OutputMintDecimals)
	} else {
		in = TokenAmountToDecimal(q.OtherAmount, q.InputMintDecimals)
		out = TokenAmountToDecimal(q.Amount, q.OutputMintDecimals)
	}
	if in.IsZero() {
		return decimal.Zero
	}
	return out.Div(in)
}

// PriceImpact вычисляет влияние сделки на цену пула в процентах по входу и
// резервам на момент снапшота.
func PriceImpact(amountIn, reserveIn, reserveOut uint64, decimalsIn, decimalsOut uint8) (decimal.Decimal, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return decimal.Zero, &ArithmeticError{Op: "price impact: empty reserves"}
	}

	in := TokenAmountToDecimal(amountIn, decimalsIn)
	rin := TokenAmountToDecimal(reserveIn, decimalsIn)
	rout := TokenAmountToDecimal(reserveOut, decimalsOut)

	// (old_price - new_price) / old_price * 100
	oldPrice := rout.Div(rin)
	newPrice := rout.Div(rin.Add(in))
	impact := oldPrice.Sub(newPrice).Div(oldPrice).Mul(decimal.NewFromInt(100))
	return impact.Abs(), nil
}
