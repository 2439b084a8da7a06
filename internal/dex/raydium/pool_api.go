// internal/dex/raydium/pool_api.go
package raydium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	defaultMetadataBaseURL = "https://api-v3.raydium.io"
	defaultRequestTimeout  = 5 * time.Second
	metadataMaxTries       = 3
	poolPageSize           = 10
)

// MetadataClient — клиент metadata-сервиса Raydium: поиск пулов по паре
// mint'ов и выдача key bundle по id пула. Транспортные сбои ретраятся с
// экспоненциальной задержкой; ошибки 4xx и пустые результаты — нет.
type MetadataClient struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
}

// NewMetadataClient создает клиент metadata-сервиса. Пустой baseURL заменяется
// публичным адресом API.
func NewMetadataClient(baseURL string, logger *zap.Logger) *MetadataClient {
	if baseURL == "" {
		baseURL = defaultMetadataBaseURL
	}
	return &MetadataClient{
		client: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:  logger.Named("metadata-api"),
		baseURL: baseURL,
	}
}

// apiMint — вложенное описание mint'а в ответах API.
type apiMint struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// apiPoolInfo — один пул из листинга пулов.
type apiPoolInfo struct {
	Type      string  `json:"type"`
	ProgramID string  `json:"programId"`
	ID        string  `json:"id"`
	MintA     apiMint `json:"mintA"`
	MintB     apiMint `json:"mintB"`
	TVL       float64 `json:"tvl"`
}

type apiPoolListResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Count int           `json:"count"`
		Data  []apiPoolInfo `json:"data"`
	} `json:"data"`
}

// apiPoolKeys — key bundle пула из metadata-сервиса.
type apiPoolKeys struct {
	ProgramID string  `json:"programId"`
	ID        string  `json:"id"`
	MintA     apiMint `json:"mintA"`
	MintB     apiMint `json:"mintB"`
	MintLp    apiMint `json:"mintLp"`
	Vault     struct {
		A string `json:"A"`
		B string `json:"B"`
	} `json:"vault"`
	Authority        string `json:"authority"`
	OpenOrders       string `json:"openOrders"`
	TargetOrders     string `json:"targetOrders"`
	MarketProgramID  string `json:"marketProgramId"`
	MarketID         string `json:"marketId"`
	MarketAuthority  string `json:"marketAuthority"`
	MarketBaseVault  string `json:"marketBaseVault"`
	MarketQuoteVault string `json:"marketQuoteVault"`
	MarketBids       string `json:"marketBids"`
	MarketAsks       string `json:"marketAsks"`
	MarketEventQueue string `json:"marketEventQueue"`
}

type apiPoolKeysResponse struct {
	Success bool          `json:"success"`
	Data    []apiPoolKeys `json:"data"`
}

// getJSON выполняет GET с ретраями и декодирует ответ в out. Статусы 4xx не
// ретраятся: повторный запрос даст тот же ответ.
func (c *MetadataClient) getJSON(ctx context.Context, reqURL string, out any) error {
	op := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		c.logger.Debug("metadata request completed",
			zap.String("url", reqURL),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)))

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(metadataMaxTries))
	if err != nil {
		return &UpstreamError{Op: "metadata request", Err: err}
	}
	return nil
}

// FindPoolByMints ищет standard-пул для пары mint'ов: листинг отсортирован по
// ликвидности, берется первый кандидат, чья пара совпадает в любом порядке и
// чей programId равен программе Raydium V4. Проверка programId выполняется
// всегда, независимо от направления сортировки.
func (c *MetadataClient) FindPoolByMints(ctx context.Context, mintA, mintB solana.PublicKey) (solana.PublicKey, error) {
	q := url.Values{}
	q.Set("mint1", mintA.String())
	q.Set("mint2", mintB.String())
	q.Set("poolType", "standard")
	q.Set("poolSortField", "liquidity")
	q.Set("sortType", "desc")
	q.Set("pageSize", fmt.Sprintf("%d", poolPageSize))
	q.Set("page", "1")
	reqURL := fmt.Sprintf("%s/pools/info/mint?%s", c.baseURL, q.Encode())

	var resp apiPoolListResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return solana.PublicKey{}, err
	}
	if !resp.Success {
		return solana.PublicKey{}, &UpstreamError{Op: "pool listing", Err: fmt.Errorf("api returned unsuccessful response")}
	}

	for _, p := range resp.Data.Data {
		pa, errA := solana.PublicKeyFromBase58(p.MintA.Address)
		pb, errB := solana.PublicKeyFromBase58(p.MintB.Address)
		program, errP := solana.PublicKeyFromBase58(p.ProgramID)
		if errA != nil || errB != nil || errP != nil {
			c.logger.Warn("skipping pool with malformed addresses", zap.String("pool_id", p.ID))
			continue
		}

		pairMatches := (pa.Equals(mintA) && pb.Equals(mintB)) || (pa.Equals(mintB) && pb.Equals(mintA))
		if !pairMatches || !program.Equals(RaydiumV4ProgramID) {
			continue
		}

		pool, err := solana.PublicKeyFromBase58(p.ID)
		if err != nil {
			c.logger.Warn("skipping pool with malformed id", zap.String("pool_id", p.ID))
			continue
		}

		c.logger.Debug("pool resolved",
			zap.String("pool_id", p.ID),
			zap.Float64("tvl", p.TVL))
		return pool, nil
	}

	return solana.PublicKey{}, &NotFoundError{
		Kind: "pool",
		ID:   fmt.Sprintf("%s/%s", mintA.String(), mintB.String()),
	}
}

// FetchPoolKeys получает key bundle пула по его id. Отсутствующий bundle —
// NotFoundError, отсутствие обязательного под-ключа — DecodeError.
func (c *MetadataClient) FetchPoolKeys(ctx context.Context, pool solana.PublicKey) (*AmmKeys, *MarketKeys, error) {
	reqURL := fmt.Sprintf("%s/pools/key/ids?ids=%s", c.baseURL, pool.String())

	var resp apiPoolKeysResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, nil, err
	}
	if !resp.Success || len(resp.Data) == 0 {
		return nil, nil, &NotFoundError{Kind: "pool keys", ID: pool.String()}
	}

	raw := resp.Data[0]
	keyOf := func(field, value string) (solana.PublicKey, error) {
		if value == "" {
			return solana.PublicKey{}, &DecodeError{Account: pool.String(), Reason: "key bundle missing " + field}
		}
		pk, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			return solana.PublicKey{}, &DecodeError{Account: pool.String(), Reason: fmt.Sprintf("malformed %s: %v", field, err)}
		}
		return pk, nil
	}

	var firstErr error
	mustKey := func(field, value string) solana.PublicKey {
		pk, err := keyOf(field, value)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return pk
	}

	ammKeys := &AmmKeys{
		AmmPool:       mustKey("id", raw.ID),
		AmmCoinMint:   mustKey("mintA", raw.MintA.Address),
		AmmPcMint:     mustKey("mintB", raw.MintB.Address),
		AmmAuthority:  mustKey("authority", raw.Authority),
		AmmTarget:     mustKey("targetOrders", raw.TargetOrders),
		AmmCoinVault:  mustKey("vault.A", raw.Vault.A),
		AmmPcVault:    mustKey("vault.B", raw.Vault.B),
		AmmLpMint:     mustKey("mintLp", raw.MintLp.Address),
		AmmOpenOrders: mustKey("openOrders", raw.OpenOrders),
		MarketProgram: mustKey("marketProgramId", raw.MarketProgramID),
		Market:        mustKey("marketId", raw.MarketID),
	}
	marketKeys := &MarketKeys{
		EventQueue:  mustKey("marketEventQueue", raw.MarketEventQueue),
		Bids:        mustKey("marketBids", raw.MarketBids),
		Asks:        mustKey("marketAsks", raw.MarketAsks),
		CoinVault:   mustKey("marketBaseVault", raw.MarketBaseVault),
		PcVault:     mustKey("marketQuoteVault", raw.MarketQuoteVault),
		VaultSigner: mustKey("marketAuthority", raw.MarketAuthority),
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return ammKeys, marketKeys, nil
}
