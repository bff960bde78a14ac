package feeds

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"liquidityguard/internal/models"

	"go.uber.org/zap"
)

// TTL кеша цен
const priceCacheTTL = 60 * time.Second

// coingeckoURL - публичный API CoinGecko (free tier)
const coingeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// tokenIDs - маппинг тикеров на идентификаторы CoinGecko
var tokenIDs = map[string]string{
	"ETH":  "ethereum",
	"WETH": "ethereum",
	"WBTC": "wrapped-bitcoin",
	"USDC": "usd-coin",
	"USDT": "tether",
	"DAI":  "dai",
	"SOL":  "solana",
}

// mockPrices - детерминированные цены для работы без внешнего API
var mockPrices = map[string]float64{
	"ETH":  2500.0,
	"WETH": 2500.0,
	"WBTC": 43_000.0,
	"USDC": 1.0,
	"USDT": 1.0,
	"DAI":  1.0,
	"SOL":  100.0,
}

// Базовая волатильность рынка (% за 24ч) когда нет данных
const baseVolatility = 5.0

type cachedPrice struct {
	price     float64
	fetchedAt time.Time
}

// priceShock - синтетический шок цен для demo trigger
type priceShock struct {
	drop       float64 // 0..1, доля падения
	volatility float64
	expiresAt  time.Time
}

// PriceSource отдает цены токенов в USD и рыночный снапшот
//
// Источник - CoinGecko с кешем на 60 секунд. При недоступности API
// деградирует на детерминированные mock-цены: наблюдатель позиций
// не должен останавливаться из-за внешнего сбоя.
//
// Demo trigger может наложить временный шок: цены волатильных токенов
// уменьшаются на заданную долю до истечения окна шока.
type PriceSource struct {
	client  *Client
	logger  *zap.Logger
	baseURL string

	mu    sync.RWMutex
	cache map[string]cachedPrice
	shock *priceShock
}

// NewPriceSource создает источник цен
func NewPriceSource(client *Client, logger *zap.Logger) *PriceSource {
	return &PriceSource{
		client:  client,
		logger:  logger,
		baseURL: coingeckoURL,
		cache:   make(map[string]cachedPrice),
	}
}

// Price возвращает цену токена в USD
//
// Порядок: активный шок → кеш → CoinGecko → mock fallback.
func (p *PriceSource) Price(ctx context.Context, token string) (float64, error) {
	token = strings.ToUpper(token)

	base := p.fetchBase(ctx, token)

	// Применяем активный шок к волатильным токенам
	if drop := p.activeDrop(); drop > 0 && !isStablecoin(token) {
		return base * (1 - drop), nil
	}
	return base, nil
}

// fetchBase возвращает цену без учета шока
func (p *PriceSource) fetchBase(ctx context.Context, token string) float64 {
	p.mu.RLock()
	cached, ok := p.cache[token]
	p.mu.RUnlock()
	if ok && time.Since(cached.fetchedAt) < priceCacheTTL {
		return cached.price
	}

	id, known := tokenIDs[token]
	if known {
		params := url.Values{}
		params.Set("ids", id)
		params.Set("vs_currencies", "usd")

		var resp map[string]map[string]float64
		if err := p.client.GetJSON(ctx, p.baseURL, params, &resp); err == nil {
			if quote, ok := resp[id]; ok {
				if price, ok := quote["usd"]; ok && price > 0 {
					p.mu.Lock()
					p.cache[token] = cachedPrice{price: price, fetchedAt: time.Now()}
					p.mu.Unlock()
					return price
				}
			}
		} else if p.logger != nil {
			p.logger.Warn("price fetch failed, using fallback",
				zap.String("token", token),
				zap.Error(err))
		}
	}

	// Fallback на mock-цену
	if price, ok := mockPrices[token]; ok {
		return price
	}
	return 1.0
}

// Snapshot возвращает рыночный контекст для оценки рисков
func (p *PriceSource) Snapshot(ctx context.Context) (models.MarketSnapshot, error) {
	ethPrice, err := p.Price(ctx, "ETH")
	if err != nil {
		return models.MarketSnapshot{}, err
	}

	volatility := baseVolatility
	if s := p.currentShock(); s != nil {
		volatility += s.volatility
	}

	return models.MarketSnapshot{
		ETHPriceUSD: ethPrice,
		Volatility:  volatility,
		Timestamp:   time.Now(),
	}, nil
}

// ApplyShock накладывает синтетический шок цен на duration секунд
// Используется demo trigger'ом. drop в диапазоне [0, 1].
func (p *PriceSource) ApplyShock(drop, volatility float64, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shock = &priceShock{
		drop:       drop,
		volatility: volatility,
		expiresAt:  time.Now().Add(duration),
	}
	if p.logger != nil {
		p.logger.Info("price shock applied",
			zap.Float64("drop", drop),
			zap.Float64("volatility", volatility),
			zap.Duration("duration", duration))
	}
}

// ClearShock снимает шок досрочно
func (p *PriceSource) ClearShock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shock = nil
}

// currentShock возвращает активный шок или nil
func (p *PriceSource) currentShock() *priceShock {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.shock == nil || time.Now().After(p.shock.expiresAt) {
		return nil
	}
	return p.shock
}

// activeDrop возвращает долю падения активного шока
func (p *PriceSource) activeDrop() float64 {
	if s := p.currentShock(); s != nil {
		return s.drop
	}
	return 0
}

// isStablecoin - стейблкоины не подвержены ценовым шокам
func isStablecoin(token string) bool {
	switch token {
	case "USDC", "USDT", "DAI":
		return true
	}
	return false
}
