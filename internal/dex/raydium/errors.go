// internal/dex/raydium/errors.go
package raydium

import (
	"fmt"
)

// ValidationError возвращается, когда входные параметры нарушают инвариант
// ещё до какого-либо сетевого обращения.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NotFoundError возвращается, когда пул, key bundle или обязательный аккаунт
// отсутствует.
type NotFoundError struct {
	Kind string // "pool", "pool keys", "account"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// DecodeError возвращается при несоответствии бинарного layout: неверная длина
// или отсутствие обязательного поля. Никогда не заменяется значением по
// умолчанию.
type DecodeError struct {
	Account string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error for %s: %s", e.Account, e.Reason)
}

// UpstreamError оборачивает транспортную ошибку metadata-сервиса или RPC.
// Ретраи — ответственность транспортного слоя, не ядра.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error during %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ArithmeticError возвращается при переполнении или вырожденном резерве в
// свап-математике; значения никогда не обрезаются молча.
type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in %s", e.Op)
}

func decodeSizeError(account string, want, got int) *DecodeError {
	return &DecodeError{
		Account: account,
		Reason:  fmt.Sprintf("expected %d bytes, got %d", want, got),
	}
}
