// internal/dex/raydium/keys.go
package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// deriveAmmAuthority выводит общий authority PDA программы Raydium V4.
// Seed фиксированный, bump подбирается.
func deriveAmmAuthority() (solana.PublicKey, error) {
	authority, _, err := solana.FindProgramAddress([][]byte{ammAuthoritySeed}, RaydiumV4ProgramID)
	if err != nil {
		return solana.PublicKey{}, &UpstreamError{Op: "derive amm authority", Err: err}
	}
	return authority, nil
}

// deriveVaultSigner восстанавливает vault signer маркета из его адреса и
// сохраненного в состоянии nonce. Здесь bump не подбирается: nonce уже
// зафиксирован при создании маркета.
func deriveVaultSigner(market solana.PublicKey, marketProgram solana.PublicKey, nonce uint64) (solana.PublicKey, error) {
	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)
	signer, err := solana.CreateProgramAddress([][]byte{market[:], nonceBytes[:]}, marketProgram)
	if err != nil {
		return solana.PublicKey{}, &UpstreamError{Op: "derive vault signer", Err: err}
	}
	return signer, nil
}

// ammKeysFromInfo собирает набор ключей пула из декодированного состояния.
func ammKeysFromInfo(pool solana.PublicKey, info *AmmInfo) (*AmmKeys, error) {
	authority, err := deriveAmmAuthority()
	if err != nil {
		return nil, err
	}
	return &AmmKeys{
		AmmPool:       pool,
		AmmCoinMint:   info.CoinMint,
		AmmPcMint:     info.PcMint,
		AmmAuthority:  authority,
		AmmTarget:     info.TargetOrders,
		AmmCoinVault:  info.CoinVault,
		AmmPcVault:    info.PcVault,
		AmmLpMint:     info.LpMint,
		AmmOpenOrders: info.OpenOrders,
		MarketProgram: info.MarketProgram,
		Market:        info.Market,
	}, nil
}

// marketKeysFromState собирает набор ключей маркета из его состояния.
func marketKeysFromState(market solana.PublicKey, marketProgram solana.PublicKey, state *MarketState) (*MarketKeys, error) {
	vaultSigner, err := deriveVaultSigner(market, marketProgram, state.VaultSignerNonce)
	if err != nil {
		return nil, err
	}
	return &MarketKeys{
		EventQueue:  state.EventQueue,
		Bids:        state.Bids,
		Asks:        state.Asks,
		CoinVault:   state.BaseVault,
		PcVault:     state.QuoteVault,
		VaultSigner: vaultSigner,
	}, nil
}

// resolveDirection сопоставляет пару mint'ов запроса с парой пула. Частичное
// совпадение не допускается: оба mint'а должны попасть в пул с разных сторон.
func resolveDirection(keys *AmmKeys, inputMint, outputMint solana.PublicKey) (SwapDirection, error) {
	switch {
	case inputMint.Equals(keys.AmmCoinMint) && outputMint.Equals(keys.AmmPcMint):
		return Coin2PC, nil
	case inputMint.Equals(keys.AmmPcMint) && outputMint.Equals(keys.AmmCoinMint):
		return PC2Coin, nil
	default:
		return 0, &ValidationError{Field: "input_token_mint", Message: "mint pair does not match pool coin/pc pair"}
	}
}
