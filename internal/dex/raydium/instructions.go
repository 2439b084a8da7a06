// internal/dex/raydium/instructions.go
package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Порядок инструкций в итоговом списке фиксирован: подготовка счетов и wrap
// SOL, сам своп, лимит compute units, priority fee, unwrap. Сборка идет через
// staged builder с единственным терминальным Build.

// instructionBuilder накапливает инструкции по стадиям; перестановка стадий
// невозможна по построению.
type instructionBuilder struct {
	setup   []solana.Instruction
	swap    solana.Instruction
	budget  []solana.Instruction
	cleanup []solana.Instruction
}

func (b *instructionBuilder) addSetup(ix ...solana.Instruction) *instructionBuilder {
	b.setup = append(b.setup, ix...)
	return b
}

func (b *instructionBuilder) setSwap(ix solana.Instruction) *instructionBuilder {
	b.swap = ix
	return b
}

func (b *instructionBuilder) addBudget(ix ...solana.Instruction) *instructionBuilder {
	b.budget = append(b.budget, ix...)
	return b
}

func (b *instructionBuilder) addCleanup(ix ...solana.Instruction) *instructionBuilder {
	b.cleanup = append(b.cleanup, ix...)
	return b
}

// Build собирает итоговый список. Ровно одна swap-инструкция обязательна.
func (b *instructionBuilder) Build() ([]solana.Instruction, error) {
	if b.swap == nil {
		return nil, &ValidationError{Field: "swap", Message: "swap instruction is not set"}
	}
	out := make([]solana.Instruction, 0, len(b.setup)+1+len(b.budget)+len(b.cleanup))
	out = append(out, b.setup...)
	out = append(out, b.swap)
	out = append(out, b.budget...)
	out = append(out, b.cleanup...)
	return out, nil
}

// buildSwapInstruction кодирует своп-инструкцию программы Raydium V4:
// тег варианта и два u64 little-endian. Для ExactIn это (amountIn,
// minAmountOut), для ExactOut — (maxAmountIn, amountOut).
func buildSwapInstruction(quote *Quote, owner, userSource, userDest solana.PublicKey) solana.Instruction {
	var tag uint8
	var first, second uint64
	if quote.AmountSpecifiedIsInput {
		tag = instructionSwapBaseIn
		first, second = quote.Amount, quote.OtherAmountThreshold
	} else {
		tag = instructionSwapBaseOut
		first, second = quote.OtherAmountThreshold, quote.Amount
	}

	data := make([]byte, 1+8+8)
	data[0] = tag
	binary.LittleEndian.PutUint64(data[1:9], first)
	binary.LittleEndian.PutUint64(data[9:17], second)

	amm := &quote.AmmKeys
	market := &quote.MarketKeys
	accounts := solana.AccountMetaSlice{
		{PublicKey: TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: amm.AmmPool, IsSigner: false, IsWritable: true},
		{PublicKey: amm.AmmAuthority, IsSigner: false, IsWritable: false},
		{PublicKey: amm.AmmOpenOrders, IsSigner: false, IsWritable: true},
		{PublicKey: amm.AmmCoinVault, IsSigner: false, IsWritable: true},
		{PublicKey: amm.AmmPcVault, IsSigner: false, IsWritable: true},
		{PublicKey: amm.MarketProgram, IsSigner: false, IsWritable: false},
		{PublicKey: amm.Market, IsSigner: false, IsWritable: true},
		{PublicKey: market.Bids, IsSigner: false, IsWritable: true},
		{PublicKey: market.Asks, IsSigner: false, IsWritable: true},
		{PublicKey: market.EventQueue, IsSigner: false, IsWritable: true},
		{PublicKey: market.CoinVault, IsSigner: false, IsWritable: true},
		{PublicKey: market.PcVault, IsSigner: false, IsWritable: true},
		{PublicKey: market.VaultSigner, IsSigner: false, IsWritable: false},
		{PublicKey: userSource, IsSigner: false, IsWritable: true},
		{PublicKey: userDest, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}

	return &solana.GenericInstruction{
		ProgID:        RaydiumV4ProgramID,
		AccountValues: accounts,
		DataBytes:     data,
	}
}

// createATAIdempotentInstruction создает associated token account, если его
// ещё нет. Идемпотентный вариант не падает на уже существующем счете.
func createATAIdempotentInstruction(payer, wallet, mint, ata solana.PublicKey) solana.Instruction {
	return &solana.GenericInstruction{
		ProgID: solana.SPLAssociatedTokenAccountProgramID,
		AccountValues: solana.AccountMetaSlice{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: ata, IsSigner: false, IsWritable: true},
			{PublicKey: wallet, IsSigner: false, IsWritable: false},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: []byte{1},
	}
}

// wrapSOLInstructions переводит ламмпорты на WSOL ATA и синхронизирует его
// баланс. Сумма — ровно та, что уходит в своп.
func wrapSOLInstructions(owner, wsolATA solana.PublicKey, lamports uint64) []solana.Instruction {
	transferIx := system.NewTransferInstruction(lamports, owner, wsolATA).Build()
	syncIx := token.NewSyncNativeInstruction(wsolATA).Build()
	return []solana.Instruction{transferIx, syncIx}
}

// unwrapSOLInstruction закрывает WSOL ATA, возвращая остаток ламмпортов
// владельцу.
func unwrapSOLInstruction(owner, wsolATA solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(wsolATA, owner, owner, nil).Build()
}
