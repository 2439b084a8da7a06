// internal/dex/raydium/compute_budget_test.go
package raydium

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/raydium-executor/internal/blockchain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveConfigDefaults(t *testing.T) {
	resolved := resolveConfig(nil, nil)

	assert.Nil(t, resolved.priorityFee)
	assert.Equal(t, ComputeUnitLimitDynamic, resolved.cuLimits.Mode)
	assert.True(t, resolved.wrapSOL)
}

func TestResolveConfigPrecedence(t *testing.T) {
	baseWrap := false
	base := &SwapConfig{
		PriorityFee:      &PriorityFeeConfig{Mode: PriorityFeeFixedCuPrice, Value: 1_000},
		CULimits:         &ComputeUnitLimits{Mode: ComputeUnitLimitFixed, Units: 100_000},
		WrapAndUnwrapSOL: &baseWrap,
	}

	// Без overrides действует база
	resolved := resolveConfig(base, nil)
	assert.Equal(t, uint64(1_000), resolved.priorityFee.Value)
	assert.Equal(t, uint32(100_000), resolved.cuLimits.Units)
	assert.False(t, resolved.wrapSOL)

	// Заданное поле override перекрывает базу, незаданное падает на неё
	overrides := &SwapConfigOverrides{
		PriorityFee: &PriorityFeeConfig{Mode: PriorityFeeDynamicBudget, Value: 7_777},
	}
	resolved = resolveConfig(base, overrides)
	assert.Equal(t, PriorityFeeDynamicBudget, resolved.priorityFee.Mode)
	assert.Equal(t, uint64(7_777), resolved.priorityFee.Value)
	assert.Equal(t, uint32(100_000), resolved.cuLimits.Units)
	assert.False(t, resolved.wrapSOL)

	overrideWrap := true
	overrides = &SwapConfigOverrides{WrapAndUnwrapSOL: &overrideWrap}
	resolved = resolveConfig(base, overrides)
	assert.True(t, resolved.wrapSOL)
	assert.Equal(t, uint64(1_000), resolved.priorityFee.Value)
}

func TestResolveComputeUnitPrice(t *testing.T) {
	tests := []struct {
		name     string
		fee      *PriorityFeeConfig
		cuLimit  uint32
		expected uint64
		ok       bool
	}{
		{name: "nil fee", fee: nil, cuLimit: 200_000, ok: false},
		{name: "zero value", fee: &PriorityFeeConfig{Mode: PriorityFeeFixedCuPrice, Value: 0}, cuLimit: 200_000, ok: false},
		{
			name:     "fixed cu price passes through",
			fee:      &PriorityFeeConfig{Mode: PriorityFeeFixedCuPrice, Value: 12_345},
			cuLimit:  200_000,
			expected: 12_345,
			ok:       true,
		},
		{
			// 100_000 lamports * 1e6 / 200_000 CU
			name:     "budget spread over limit",
			fee:      &PriorityFeeConfig{Mode: PriorityFeeDynamicBudget, Value: 100_000},
			cuLimit:  200_000,
			expected: 500_000,
			ok:       true,
		},
		{
			name:    "budget with zero limit",
			fee:     &PriorityFeeConfig{Mode: PriorityFeeDynamicBudget, Value: 100_000},
			cuLimit: 0,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok, err := resolveComputeUnitPrice(tt.fee, tt.cuLimit)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, price)
			}
		})
	}
}

func TestResolveComputeUnitPriceBudgetOverflow(t *testing.T) {
	// Бюджет, который при переводе в микроламмпорты не помещается в u64
	fee := &PriorityFeeConfig{Mode: PriorityFeeDynamicBudget, Value: math.MaxUint64 / 2}
	_, _, err := resolveComputeUnitPrice(fee, 1)
	var arithErr *ArithmeticError
	assert.ErrorAs(t, err, &arithErr)
}

func TestResolveComputeUnitLimitFixed(t *testing.T) {
	client := new(MockClient)
	logger := zap.NewNop()
	ctx, cancel := MockedContext()
	defer cancel()

	units := resolveComputeUnitLimit(ctx, client, logger,
		ComputeUnitLimits{Mode: ComputeUnitLimitFixed, Units: 300_000}, nil, solana.PublicKey{})
	assert.Equal(t, uint32(300_000), units)

	// Нулевой фиксированный лимит заменяется default'ом
	units = resolveComputeUnitLimit(ctx, client, logger,
		ComputeUnitLimits{Mode: ComputeUnitLimitFixed, Units: 0}, nil, solana.PublicKey{})
	assert.Equal(t, DefaultComputeUnitLimit, units)

	// Лимит выше сетевого максимума обрезается
	units = resolveComputeUnitLimit(ctx, client, logger,
		ComputeUnitLimits{Mode: ComputeUnitLimitFixed, Units: 2_000_000}, nil, solana.PublicKey{})
	assert.Equal(t, MaxComputeUnitLimit, units)

	client.AssertNotCalled(t, "SimulateTransaction")
}

func simInstructions(t *testing.T) []solana.Instruction {
	t.Helper()
	quote := testQuote(t, true)
	return []solana.Instruction{
		buildSwapInstruction(quote, solana.NewWallet().PublicKey(),
			solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()),
	}
}

func TestEstimateComputeUnits(t *testing.T) {
	logger := zap.NewNop()
	payer := solana.NewWallet().PublicKey()
	ctx, cancel := MockedContext()
	defer cancel()

	consumed := uint64(100_000)
	client := new(MockClient)
	client.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(&blockchain.SimulationResult{UnitsConsumed: &consumed}, nil)

	units := estimateComputeUnits(ctx, client, logger, simInstructions(t), payer)
	// 100_000 * 110 / 100
	assert.Equal(t, uint32(110_000), units)
}

func TestEstimateComputeUnitsCapped(t *testing.T) {
	logger := zap.NewNop()
	payer := solana.NewWallet().PublicKey()
	ctx, cancel := MockedContext()
	defer cancel()

	consumed := uint64(1_390_000)
	client := new(MockClient)
	client.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(&blockchain.SimulationResult{UnitsConsumed: &consumed}, nil)

	units := estimateComputeUnits(ctx, client, logger, simInstructions(t), payer)
	assert.Equal(t, MaxComputeUnitLimit, units)
}

func TestEstimateComputeUnitsFallback(t *testing.T) {
	logger := zap.NewNop()
	payer := solana.NewWallet().PublicKey()
	ctx, cancel := MockedContext()
	defer cancel()

	tests := []struct {
		name   string
		result *blockchain.SimulationResult
		err    error
	}{
		{name: "transport failure", result: nil, err: assertableError{}},
		{name: "execution error", result: &blockchain.SimulationResult{Err: "InstructionError"}},
		{name: "no units in response", result: &blockchain.SimulationResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			client.On("SimulateTransaction", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			units := estimateComputeUnits(ctx, client, logger, simInstructions(t), payer)
			assert.Equal(t, DefaultComputeUnitLimit, units)
		})
	}
}

func TestBuildComputeBudgetInstructions(t *testing.T) {
	instructions := buildComputeBudgetInstructions(150_000, 0, false)
	require.Len(t, instructions, 1)
	assert.Equal(t, solana.ComputeBudget, instructions[0].ProgramID())

	instructions = buildComputeBudgetInstructions(150_000, 5_000, true)
	require.Len(t, instructions, 2)
	assert.Equal(t, solana.ComputeBudget, instructions[0].ProgramID())
	assert.Equal(t, solana.ComputeBudget, instructions[1].ProgramID())
}
