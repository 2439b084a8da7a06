// internal/dex/raydium/constants.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	// Используем MPK для краткости, так как это константы
	RaydiumV4ProgramID = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	TokenProgramID     = solana.MPK("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	SystemProgramID    = solana.MPK("11111111111111111111111111111111")
	WrappedSOLMint     = solana.MPK("So11111111111111111111111111111111111111112")
)

// PDA seed for the AMM authority of the Raydium V4 program.
var ammAuthoritySeed = []byte("amm authority")

// Instruction tags of the Raydium V4 program.
const (
	instructionSwapBaseIn  uint8 = 9
	instructionSwapBaseOut uint8 = 11
)

// Compute budget constants
const (
	DefaultComputeUnitLimit uint32 = 200_000
	MaxComputeUnitLimit     uint32 = 1_400_000
	computeUnitBufferNum    uint64 = 110 // 10% headroom over simulated units
	computeUnitBufferDen    uint64 = 100
)

// Slippage is expressed in basis points against this base.
const slippageBpsBase = 10_000
