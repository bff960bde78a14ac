package feeds

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// etherscanURL - газовый оракул Etherscan
const etherscanURL = "https://api.etherscan.io/api"

// TTL кеша цен газа
const gasCacheTTL = 30 * time.Second

// Оценки потребления газа по операциям (в gas units)
const (
	gasApprove  = 50_000
	gasWithdraw = 150_000
	gasSwap     = 200_000
	gasDeposit  = 150_000
	gasBridge   = 300_000
)

// Fallback цены газа в Gwei когда оракул недоступен
const (
	fallbackGasSlow     = 20.0
	fallbackGasStandard = 30.0
	fallbackGasFast     = 50.0
)

// Буфер проскальзывания: 0.2% от перемещаемой суммы
const slippageRate = 0.002

// Скорости исполнения транзакций
const (
	SpeedSlow     = "slow"
	SpeedStandard = "standard"
	SpeedFast     = "fast"
)

// GasPrices - текущие цены газа по уровням скорости (Gwei)
type GasPrices struct {
	Slow     float64 `json:"slow"`
	Standard float64 `json:"standard"`
	Fast     float64 `json:"fast"`
}

// ForSpeed возвращает цену для уровня скорости
func (g GasPrices) ForSpeed(speed string) float64 {
	switch speed {
	case SpeedSlow:
		return g.Slow
	case SpeedFast:
		return g.Fast
	default:
		return g.Standard
	}
}

// CostEstimate - разбивка стоимости ребалансировки
type CostEstimate struct {
	GasUnits     int64   `json:"gas_units"`
	GasPriceGwei float64 `json:"gas_price_gwei"`
	GasCostETH   float64 `json:"gas_cost_eth"`
	GasCostUSD   float64 `json:"gas_cost_usd"`
	SlippageUSD  float64 `json:"slippage_usd"`
	TotalUSD     float64 `json:"total_usd"`
	Speed        string  `json:"speed"`
	CrossChain   bool    `json:"cross_chain"`
	Gasless      bool    `json:"gasless"`
}

// etherscanGasResponse - ответ gastracker/gasoracle
type etherscanGasResponse struct {
	Status string `json:"status"`
	Result struct {
		SafeGasPrice    string `json:"SafeGasPrice"`
		ProposeGasPrice string `json:"ProposeGasPrice"`
		FastGasPrice    string `json:"FastGasPrice"`
	} `json:"result"`
}

// GasEstimator оценивает стоимость ребалансировки
//
// Цены газа берутся из оракула Etherscan с кешем на 30 секунд,
// при недоступности - консервативные fallback значения.
type GasEstimator struct {
	client *Client
	apiKey string
	logger *zap.Logger

	mu        sync.RWMutex
	cached    GasPrices
	fetchedAt time.Time
}

// NewGasEstimator создает оценщик газа
// apiKey может быть пустым - тогда всегда используются fallback цены
func NewGasEstimator(client *Client, apiKey string, logger *zap.Logger) *GasEstimator {
	return &GasEstimator{
		client: client,
		apiKey: apiKey,
		logger: logger,
	}
}

// Prices возвращает текущие цены газа по уровням скорости
func (g *GasEstimator) Prices(ctx context.Context) GasPrices {
	fallback := GasPrices{
		Slow:     fallbackGasSlow,
		Standard: fallbackGasStandard,
		Fast:     fallbackGasFast,
	}

	if g.apiKey == "" {
		return fallback
	}

	g.mu.RLock()
	if time.Since(g.fetchedAt) < gasCacheTTL {
		cached := g.cached
		g.mu.RUnlock()
		return cached
	}
	g.mu.RUnlock()

	params := url.Values{}
	params.Set("module", "gastracker")
	params.Set("action", "gasoracle")
	params.Set("apikey", g.apiKey)

	var resp etherscanGasResponse
	if err := g.client.GetJSON(ctx, etherscanURL, params, &resp); err != nil || resp.Status != "1" {
		if g.logger != nil {
			g.logger.Warn("gas oracle unavailable, using fallback prices", zap.Error(err))
		}
		return fallback
	}

	prices := GasPrices{
		Slow:     parseGwei(resp.Result.SafeGasPrice, fallbackGasSlow),
		Standard: parseGwei(resp.Result.ProposeGasPrice, fallbackGasStandard),
		Fast:     parseGwei(resp.Result.FastGasPrice, fallbackGasFast),
	}

	g.mu.Lock()
	g.cached = prices
	g.fetchedAt = time.Now()
	g.mu.Unlock()

	return prices
}

// EstimateRebalance оценивает полную стоимость ребалансировки
//
// Газ: approve + withdraw + swap [+ bridge] + deposit,
// конвертированный в USD по цене ETH, плюс 0.2% проскальзывания.
func (g *GasEstimator) EstimateRebalance(ctx context.Context, amountUSD, ethPrice float64, crossChain bool, speed string) CostEstimate {
	gwei := g.Prices(ctx).ForSpeed(speed)

	var totalGas int64 = gasApprove + gasWithdraw + gasSwap + gasDeposit
	if crossChain {
		totalGas += gasBridge
	}

	// 1 Gwei = 1e-9 ETH
	gasCostETH := float64(totalGas) * gwei / 1e9
	gasCostUSD := gasCostETH * ethPrice
	slippageUSD := amountUSD * slippageRate

	return CostEstimate{
		GasUnits:     totalGas,
		GasPriceGwei: gwei,
		GasCostETH:   gasCostETH,
		GasCostUSD:   gasCostUSD,
		SlippageUSD:  slippageUSD,
		TotalUSD:     gasCostUSD + slippageUSD,
		Speed:        speed,
		CrossChain:   crossChain,
	}
}

// EstimateGasless оценивает стоимость gasless-исполнения (Fusion)
// Газ платят резолверы, пользователь несет только проскальзывание
func (g *GasEstimator) EstimateGasless(amountUSD float64) CostEstimate {
	slippageUSD := amountUSD * slippageRate
	return CostEstimate{
		SlippageUSD: slippageUSD,
		TotalUSD:    slippageUSD,
		Gasless:     true,
	}
}

// CompareMethods возвращает оценки traditional и gasless путей и экономию
func (g *GasEstimator) CompareMethods(ctx context.Context, amountUSD, ethPrice float64, crossChain bool) (traditional, gasless CostEstimate, savingsUSD float64) {
	traditional = g.EstimateRebalance(ctx, amountUSD, ethPrice, crossChain, SpeedStandard)
	gasless = g.EstimateGasless(amountUSD)
	return traditional, gasless, traditional.TotalUSD - gasless.TotalUSD
}

// parseGwei разбирает строковое значение Gwei из ответа Etherscan
func parseGwei(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
