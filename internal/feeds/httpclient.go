// Package feeds содержит клиентов внешних источников данных:
// цены (CoinGecko), доходности (DeFi Llama), газ (Etherscan),
// риск протоколов (DeFi Llama TVL) и котировки свопов (1inch).
package feeds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"liquidityguard/pkg/ratelimit"
	"liquidityguard/pkg/retry"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ClientConfig содержит настройки HTTP клиента для публичных API
type ClientConfig struct {
	ConnectTimeout time.Duration // таймаут установки TCP соединения (default: 5s)
	RequestTimeout time.Duration // общий таймаут запроса (default: 10s)

	// Connection pooling
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Rate limiting (free tier публичных API)
	RateLimit float64 // запросов в секунду
	RateBurst float64
}

// DefaultClientConfig возвращает конфигурацию для бесплатных тарифов API
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ConnectTimeout:      5 * time.Second,
		RequestTimeout:      10 * time.Second,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		RateLimit:           5,
		RateBurst:           10,
	}
}

// Client - общий HTTP клиент для всех feed-источников
//
// Один connection pool на процесс, token bucket rate limiter
// и повторы сетевых ошибок через pkg/retry.
type Client struct {
	http    *http.Client
	limiter *ratelimit.RateLimiter
	retry   retry.Config
}

// NewClient создает клиент с заданной конфигурацией
func NewClient(config ClientConfig) *Client {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: 5 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}

	// Повторяем только сетевые и 5xx ошибки, Permanent не повторяется
	retryCfg := retry.NetworkConfig()
	retryCfg.RetryIf = retry.IsRetryable

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   config.RequestTimeout,
		},
		limiter: ratelimit.NewRateLimiter(config.RateLimit, config.RateBurst),
		retry:   retryCfg,
	}
}

// GetJSON выполняет GET запрос и декодирует JSON ответ в out
//
// Ожидает токен rate limiter'а, повторяет временные ошибки
// (сетевые сбои и 5xx) по retry.Network.
func (c *Client) GetJSON(ctx context.Context, baseURL string, params url.Values, out interface{}) error {
	reqURL := baseURL
	if len(params) > 0 {
		reqURL = baseURL + "?" + params.Encode()
	}

	return retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err // сетевая ошибка - повторяем
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("feed returned status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return retry.Permanent(fmt.Errorf("feed returned status %d", resp.StatusCode))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(fmt.Errorf("decode feed response: %w", err))
		}
		return nil
	}, c.retry)
}

// Close закрывает idle соединения
// Вызывается при graceful shutdown
func (c *Client) Close() {
	if transport, ok := c.http.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
