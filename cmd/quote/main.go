// ====================================
// File: cmd/quote/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/raydium-executor/internal/blockchain/solbc"
	"github.com/rovshanmuradov/raydium-executor/internal/config"
	"github.com/rovshanmuradov/raydium-executor/internal/dex/raydium"
	"github.com/rovshanmuradov/raydium-executor/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.json", "path to config file")
		inputMint  = flag.String("input", "So11111111111111111111111111111111111111112", "input token mint")
		outputMint = flag.String("output", "", "output token mint")
		amount     = flag.Uint64("amount", 0, "amount in native units")
		exactOut   = flag.Bool("exact-out", false, "amount denominates the output token")
		ownerAddr  = flag.String("owner", "", "wallet public key (transaction payer)")
		poolAddr   = flag.String("pool", "", "explicit pool address (skips lookup)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     50,
		MaxBackups:  3,
		MaxAge:      14,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	input, err := buildSwapInput(cfg, *inputMint, *outputMint, *amount, *exactOut, *poolAddr)
	if err != nil {
		log.Fatal("invalid arguments", zap.Error(err))
	}
	owner, err := solana.PublicKeyFromBase58(*ownerAddr)
	if err != nil {
		log.Fatal("invalid owner address", zap.Error(err))
	}

	client := solbc.NewClient(cfg.RPCURL, log)
	metadata := raydium.NewMetadataClient(cfg.MetadataAPIURL, log)
	executor := raydium.NewExecutor(client, metadata, raydium.ExecutorOptions{
		LoadKeysByAPI: cfg.LoadKeysByAPI,
		Config:        swapConfigFrom(cfg),
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Котировка и blockhash не зависят друг от друга, берем их параллельно.
	var (
		quote     *raydium.Quote
		blockhash solana.Hash
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var qerr error
		quote, qerr = executor.Quote(gctx, input)
		return qerr
	})
	g.Go(func() error {
		var berr error
		blockhash, berr = client.GetLatestBlockhash(gctx)
		return berr
	})
	if err := g.Wait(); err != nil {
		log.Fatal("quote failed", zap.Error(err))
	}

	tx, err := executor.SwapTransaction(ctx, quote, owner, nil)
	if err != nil {
		log.Fatal("assemble transaction failed", zap.Error(err))
	}
	tx.Message.RecentBlockhash = blockhash

	printQuote(quote, tx)
}

func buildSwapInput(cfg *config.Config, inputMint, outputMint string, amount uint64, exactOut bool, poolAddr string) (*raydium.SwapInput, error) {
	in, err := solana.PublicKeyFromBase58(inputMint)
	if err != nil {
		return nil, fmt.Errorf("input mint: %w", err)
	}
	out, err := solana.PublicKeyFromBase58(outputMint)
	if err != nil {
		return nil, fmt.Errorf("output mint: %w", err)
	}

	mode := raydium.ExactIn
	if exactOut {
		mode = raydium.ExactOut
	}

	input := &raydium.SwapInput{
		InputTokenMint:  in,
		OutputTokenMint: out,
		SlippageBps:     cfg.SlippageBps,
		Amount:          amount,
		Mode:            mode,
	}
	if poolAddr != "" {
		pool, err := solana.PublicKeyFromBase58(poolAddr)
		if err != nil {
			return nil, fmt.Errorf("pool address: %w", err)
		}
		input.Pool = &pool
	}
	return input, nil
}

func swapConfigFrom(cfg *config.Config) *raydium.SwapConfig {
	swapCfg := &raydium.SwapConfig{
		WrapAndUnwrapSOL: &cfg.WrapUnwrapSOL,
	}
	if cfg.PriorityFee > 0 {
		mode := raydium.PriorityFeeFixedCuPrice
		if cfg.PriorityFeeMode == "budget" {
			mode = raydium.PriorityFeeDynamicBudget
		}
		swapCfg.PriorityFee = &raydium.PriorityFeeConfig{Mode: mode, Value: cfg.PriorityFee}
	}
	if cfg.ComputeUnits > 0 {
		swapCfg.CULimits = &raydium.ComputeUnitLimits{
			Mode:  raydium.ComputeUnitLimitFixed,
			Units: cfg.ComputeUnits,
		}
	}
	return swapCfg
}

func printQuote(quote *raydium.Quote, tx *solana.Transaction) {
	specified, other := "in", "out (min)"
	if !quote.AmountSpecifiedIsInput {
		specified, other = "out", "in (max)"
	}

	fmt.Printf("pool:        %s\n", quote.Pool)
	fmt.Printf("amount %-6s %s\n", specified+":",
		raydium.FormatTokenAmount(quote.Amount, quoteSpecifiedDecimals(quote)))
	fmt.Printf("amount %-6s %s\n", other+":",
		raydium.FormatTokenAmount(quote.OtherAmountThreshold, quoteOtherDecimals(quote)))
	fmt.Printf("price:       %s\n", raydium.ExecutionPrice(quote).StringFixed(9))
	fmt.Printf("instructions: %d (unsigned, blockhash set)\n", len(tx.Message.Instructions))
}

func quoteSpecifiedDecimals(q *raydium.Quote) uint8 {
	if q.AmountSpecifiedIsInput {
		return q.InputMintDecimals
	}
	return q.OutputMintDecimals
}

func quoteOtherDecimals(q *raydium.Quote) uint8 {
	if q.AmountSpecifiedIsInput {
		return q.OutputMintDecimals
	}
	return q.InputMintDecimals
}
