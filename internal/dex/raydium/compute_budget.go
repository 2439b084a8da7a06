// internal/dex/raydium/compute_budget.go
package raydium

import (
	"context"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/rovshanmuradov/raydium-executor/internal/blockchain"
	"go.uber.org/zap"
)

// resolvedConfig — эффективная конфигурация одного вызова после свертки
// override → базовая конфигурация → жесткий default.
type resolvedConfig struct {
	priorityFee *PriorityFeeConfig
	cuLimits    ComputeUnitLimits
	wrapSOL     bool
}

// resolveConfig сворачивает конфигурацию пополево. Defaults: priority fee не
// выставляется, лимит compute units оценивается симуляцией, wrap SOL включен.
func resolveConfig(base *SwapConfig, overrides *SwapConfigOverrides) resolvedConfig {
	resolved := resolvedConfig{
		priorityFee: nil,
		cuLimits:    ComputeUnitLimits{Mode: ComputeUnitLimitDynamic},
		wrapSOL:     true,
	}

	if base != nil {
		if base.PriorityFee != nil {
			resolved.priorityFee = base.PriorityFee
		}
		if base.CULimits != nil {
			resolved.cuLimits = *base.CULimits
		}
		if base.WrapAndUnwrapSOL != nil {
			resolved.wrapSOL = *base.WrapAndUnwrapSOL
		}
	}
	if overrides != nil {
		if overrides.PriorityFee != nil {
			resolved.priorityFee = overrides.PriorityFee
		}
		if overrides.CULimits != nil {
			resolved.cuLimits = *overrides.CULimits
		}
		if overrides.WrapAndUnwrapSOL != nil {
			resolved.wrapSOL = *overrides.WrapAndUnwrapSOL
		}
	}
	return resolved
}

// estimateComputeUnits симулирует транзакцию из переданных инструкций и
// возвращает потребленные units с запасом 10%, не выше сетевого максимума.
// Любой сбой симуляции дает жесткий default: оценка не должна ронять сборку.
func estimateComputeUnits(ctx context.Context, client blockchain.Client, logger *zap.Logger, instructions []solana.Instruction, payer solana.PublicKey) uint32 {
	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(payer))
	if err != nil {
		logger.Warn("failed to build simulation transaction, using default compute unit limit",
			zap.Error(err))
		return DefaultComputeUnitLimit
	}

	sim, err := client.SimulateTransaction(ctx, tx)
	if err != nil || sim == nil || sim.Err != nil || sim.UnitsConsumed == nil || *sim.UnitsConsumed == 0 {
		logger.Warn("simulation did not yield consumed units, using default compute unit limit",
			zap.Error(err))
		return DefaultComputeUnitLimit
	}

	buffered := *sim.UnitsConsumed * computeUnitBufferNum / computeUnitBufferDen
	if buffered > uint64(MaxComputeUnitLimit) {
		buffered = uint64(MaxComputeUnitLimit)
	}

	logger.Debug("compute units estimated",
		zap.Uint64("consumed", *sim.UnitsConsumed),
		zap.Uint64("buffered", buffered))
	return uint32(buffered)
}

// resolveComputeUnitLimit возвращает лимит compute units согласно политике:
// фиксированный берется как есть (с обрезкой до сетевого максимума),
// динамический оценивается симуляцией swap-инструкций.
func resolveComputeUnitLimit(ctx context.Context, client blockchain.Client, logger *zap.Logger, limits ComputeUnitLimits, instructions []solana.Instruction, payer solana.PublicKey) uint32 {
	if limits.Mode == ComputeUnitLimitFixed {
		units := limits.Units
		if units == 0 {
			units = DefaultComputeUnitLimit
		}
		if units > MaxComputeUnitLimit {
			units = MaxComputeUnitLimit
		}
		return units
	}
	return estimateComputeUnits(ctx, client, logger, instructions, payer)
}

// resolveComputeUnitPrice переводит политику priority fee в цену за compute
// unit в микроламмпортах. Для режима бюджета сумма в ламмпортах размазывается
// по разрешенному лимиту.
func resolveComputeUnitPrice(fee *PriorityFeeConfig, cuLimit uint32) (uint64, bool, error) {
	if fee == nil || fee.Value == 0 {
		return 0, false, nil
	}
	switch fee.Mode {
	case PriorityFeeFixedCuPrice:
		return fee.Value, true, nil
	case PriorityFeeDynamicBudget:
		if cuLimit == 0 {
			return 0, false, nil
		}
		// lamports -> microlamports per compute unit
		price, err := mulDivFloor(fee.Value, 1_000_000, uint64(cuLimit))
		if err != nil {
			return 0, false, err
		}
		return price, true, nil
	default:
		return 0, false, nil
	}
}

// buildComputeBudgetInstructions собирает инструкции compute-budget программы:
// сначала лимит, затем цена, если она задана.
func buildComputeBudgetInstructions(cuLimit uint32, cuPrice uint64, hasPrice bool) []solana.Instruction {
	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstructionBuilder().
			SetUnits(cuLimit).
			Build(),
	}
	if hasPrice {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitPriceInstructionBuilder().
				SetMicroLamports(cuPrice).
				Build())
	}
	return instructions
}
