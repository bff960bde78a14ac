package feeds

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// llamaProtocolURL - данные протокола DeFi Llama (TVL)
const llamaProtocolURL = "https://api.llama.fi/protocol/"

// TTL кеша оценок риска
const riskCacheTTL = time.Hour

// Базовые оценки риска протоколов (1-10, меньше = безопаснее)
// Обновляются по результатам аудитов и эксплойтов
var baseRiskScores = map[string]int{
	"aave":     2,
	"compound": 3,
	"lido":     2,
	"maker":    2,
	"uniswap":  3,
	"curve":    3,
	"yearn":    5,
	"convex":   5,
	"kamino":   6,
	"drift":    6,
	"marinade": 5,
}

// Оценка по умолчанию для неизвестного протокола
const defaultRiskScore = 7

// Надбавки за цепочку
var chainRiskAdjust = map[string]int{
	"ethereum":  0,
	"arbitrum":  1,
	"optimism":  1,
	"polygon":   1,
	"base":      1,
	"avalanche": 1,
	"solana":    2,
}

// Надбавка для неизвестной цепочки
const unknownChainAdjust = 2

// llamaProtocolResponse - ответ /protocol/{name}
type llamaProtocolResponse struct {
	TVL []struct {
		TotalLiquidityUSD float64 `json:"totalLiquidityUSD"`
	} `json:"tvl"`
}

type cachedScore struct {
	score     int
	fetchedAt time.Time
}

// RiskScorer вычисляет оценку риска протокола
//
// Факторы: базовая оценка (аудиты, возраст), TVL из DeFi Llama
// (больше = безопаснее), цепочка и размер перемещаемой суммы.
type RiskScorer struct {
	client  *Client
	logger  *zap.Logger
	baseURL string

	mu    sync.RWMutex
	cache map[string]cachedScore
}

// NewRiskScorer создает оценщик риска протоколов
func NewRiskScorer(client *Client, logger *zap.Logger) *RiskScorer {
	return &RiskScorer{
		client:  client,
		logger:  logger,
		baseURL: llamaProtocolURL,
		cache:   make(map[string]cachedScore),
	}
}

// Score возвращает оценку риска 1-10 (меньше = безопаснее)
func (r *RiskScorer) Score(ctx context.Context, protocol, chain string, amountUSD float64) int {
	key := strings.ToLower(protocol) + ":" + strings.ToLower(chain)

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < riskCacheTTL {
		return cached.score
	}

	score := r.calculate(ctx, protocol, chain, amountUSD)

	r.mu.Lock()
	r.cache[key] = cachedScore{score: score, fetchedAt: time.Now()}
	r.mu.Unlock()

	return score
}

// calculate вычисляет оценку без кеша
func (r *RiskScorer) calculate(ctx context.Context, protocol, chain string, amountUSD float64) int {
	base := baseRiskScore(protocol)

	// TVL: больше залоченных средств - ниже риск
	tvlAdjust := 0
	if tvlBillions, ok := r.protocolTVL(ctx, protocol); ok {
		switch {
		case tvlBillions > 10:
			tvlAdjust = -2
		case tvlBillions > 5:
			tvlAdjust = -1
		case tvlBillions > 1:
			tvlAdjust = 0
		case tvlBillions < 0.1:
			tvlAdjust = 2
		default:
			tvlAdjust = 1
		}
	}

	chainAdjust, ok := chainRiskAdjust[strings.ToLower(chain)]
	if !ok {
		chainAdjust = unknownChainAdjust
	}

	// Крупные суммы требуют консервативной оценки
	amountAdjust := 0
	if amountUSD > 1_000_000 {
		amountAdjust = -1
	}

	score := base + tvlAdjust + chainAdjust + amountAdjust
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

// protocolTVL возвращает TVL протокола в миллиардах USD
func (r *RiskScorer) protocolTVL(ctx context.Context, protocol string) (float64, bool) {
	var resp llamaProtocolResponse
	url := r.baseURL + normalizeProtocol(protocol)
	if err := r.client.GetJSON(ctx, url, nil, &resp); err != nil {
		if r.logger != nil {
			r.logger.Debug("protocol TVL unavailable",
				zap.String("protocol", protocol),
				zap.Error(err))
		}
		return 0, false
	}
	if len(resp.TVL) == 0 {
		return 0, false
	}
	return resp.TVL[len(resp.TVL)-1].TotalLiquidityUSD / 1e9, true
}

// Description возвращает текстовое описание оценки риска
func Description(score int) string {
	switch {
	case score <= 2:
		return "Very Low Risk"
	case score <= 4:
		return "Low Risk"
	case score <= 6:
		return "Moderate Risk"
	case score <= 8:
		return "High Risk"
	default:
		return "Very High Risk"
	}
}

// baseRiskScore возвращает базовую оценку протокола без версионного суффикса
func baseRiskScore(protocol string) int {
	clean := normalizeProtocol(protocol)
	if score, ok := baseRiskScores[clean]; ok {
		return score
	}
	return defaultRiskScore
}

// normalizeProtocol убирает версионные суффиксы (aave-v3 → aave)
func normalizeProtocol(protocol string) string {
	clean := strings.ToLower(protocol)
	clean = strings.TrimSuffix(clean, "-v3")
	clean = strings.TrimSuffix(clean, "-v2")
	return clean
}
