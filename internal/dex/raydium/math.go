// internal/dex/raydium/math.go
package raydium

import (
	"github.com/holiman/uint256"
)

// Вся своп-математика выполняется на 256-битных целых: произведение двух
// u64 резервов не помещается в u64, а промежуточные переполнения должны
// обнаруживаться, а не заворачиваться.

// mulDivFloor возвращает a*b/d с округлением вниз.
func mulDivFloor(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, &ArithmeticError{Op: "mulDivFloor: division by zero"}
	}
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	q := new(uint256.Int).Div(num, uint256.NewInt(d))
	if !q.IsUint64() {
		return 0, &ArithmeticError{Op: "mulDivFloor: quotient overflows u64"}
	}
	return q.Uint64(), nil
}

// mulDivCeil возвращает a*b/d с округлением вверх.
func mulDivCeil(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, &ArithmeticError{Op: "mulDivCeil: division by zero"}
	}
	num := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	num.Add(num, uint256.NewInt(d-1))
	q := new(uint256.Int).Div(num, uint256.NewInt(d))
	if !q.IsUint64() {
		return 0, &ArithmeticError{Op: "mulDivCeil: quotient overflows u64"}
	}
	return q.Uint64(), nil
}

// swapExactIn считает выход константного произведения для точно заданного
// входа. Комиссия удерживается из входа с округлением вниз, выход также
// округляется вниз — обе ошибки округления в пользу пула.
func swapExactIn(amountIn, reserveIn, reserveOut, feeNumerator, feeDenominator uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, &ArithmeticError{Op: "swapExactIn: empty reserves"}
	}
	if feeDenominator == 0 || feeNumerator >= feeDenominator {
		return 0, &ArithmeticError{Op: "swapExactIn: invalid fee ratio"}
	}

	afterFee, err := mulDivFloor(amountIn, feeDenominator-feeNumerator, feeDenominator)
	if err != nil {
		return 0, err
	}

	// out = reserveOut - reserveIn*reserveOut/(reserveIn+afterFee)
	denom := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(afterFee))
	num := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(reserveOut))
	kept := new(uint256.Int).Div(num, denom)
	out := new(uint256.Int).Sub(uint256.NewInt(reserveOut), kept)
	if !out.IsUint64() {
		return 0, &ArithmeticError{Op: "swapExactIn: output overflows u64"}
	}
	return out.Uint64(), nil
}

// swapExactOut инвертирует кривую для точно заданного выхода: и требуемый
// вход до комиссии, и восстановление комиссии округляются вверх, чтобы
// посчитанного входа гарантированно хватило.
func swapExactOut(amountOut, reserveIn, reserveOut, feeNumerator, feeDenominator uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, &ArithmeticError{Op: "swapExactOut: empty reserves"}
	}
	if feeDenominator == 0 || feeNumerator >= feeDenominator {
		return 0, &ArithmeticError{Op: "swapExactOut: invalid fee ratio"}
	}
	if amountOut >= reserveOut {
		return 0, &ArithmeticError{Op: "swapExactOut: requested output exceeds reserve"}
	}

	// inAfterFee = ceil(reserveIn*amountOut/(reserveOut-amountOut))
	inAfterFee, err := mulDivCeil(reserveIn, amountOut, reserveOut-amountOut)
	if err != nil {
		return 0, err
	}

	// in = ceil(inAfterFee*feeDenominator/(feeDenominator-feeNumerator))
	return mulDivCeil(inAfterFee, feeDenominator, feeDenominator-feeNumerator)
}

// applySlippage строит порог из расчетной суммы. Для ExactIn порог — это
// минимально приемлемый выход (округление вниз), для ExactOut —
// максимально допустимый вход (округление вверх).
func applySlippage(amount uint64, slippageBps uint16, mode ExecutionMode) (uint64, error) {
	if slippageBps > slippageBpsBase {
		return 0, &ValidationError{Field: "slippage_bps", Message: "must not exceed 10000"}
	}
	if mode.AmountSpecifiedIsInput() {
		return mulDivFloor(amount, uint64(slippageBpsBase-slippageBps), slippageBpsBase)
	}
	return mulDivCeil(amount, uint64(slippageBpsBase)+uint64(slippageBps), slippageBpsBase)
}
