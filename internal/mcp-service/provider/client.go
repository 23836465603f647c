package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/odds-mcp-server/internal/shared/metrics"
)

// Client consome a The Odds API (v4)
// Não há retry nesta camada; política de resiliência fica com o chamador
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *ResponseCache
	log     *zap.Logger
}

func New(baseURL, apiKey string, cache *ResponseCache, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		log:     log,
	}
}

// FetchOdds busca as odds correntes de um esporte inteiro
func (c *Client) FetchOdds(ctx context.Context, sport string, markets []string, regions string) ([]Game, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", regions)
	q.Set("markets", strings.Join(markets, ","))
	q.Set("oddsFormat", "decimal")
	q.Set("dateFormat", "iso")

	var games []Game
	if err := c.getJSON(ctx, fmt.Sprintf("/sports/%s/odds", sport), q, "odds", &games); err != nil {
		return nil, err
	}
	return games, nil
}

// FetchEvents lista os eventos futuros de um esporte (sem odds)
func (c *Client) FetchEvents(ctx context.Context, sport string) ([]Event, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("dateFormat", "iso")

	var events []Event
	if err := c.getJSON(ctx, fmt.Sprintf("/sports/%s/events", sport), q, "events", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEventOdds busca as odds de um único evento, restritas aos mercados
// e bookmaker informados. Falhas HTTP voltam como *HTTPError com o status,
// permitindo que o pipeline de props siga com os demais eventos
func (c *Client) FetchEventOdds(ctx context.Context, sport, eventID string, markets []string, bookmakers string) (*Game, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", "us")
	q.Set("markets", strings.Join(markets, ","))
	q.Set("bookmakers", bookmakers)
	q.Set("oddsFormat", "decimal")
	q.Set("dateFormat", "iso")

	var game Game
	if err := c.getJSON(ctx, fmt.Sprintf("/sports/%s/events/%s/odds", sport, eventID), q, "event_odds", &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// getJSON executa o GET e decodifica a resposta, passando pelo cache quando
// habilitado. Nunca loga a URL completa pra não vazar a apiKey
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, endpoint string, dst any) error {
	fullURL := c.baseURL + path + "?" + q.Encode()

	if ok, err := c.cache.Get(ctx, fullURL, dst); err == nil && ok {
		c.log.Debug("provider cache hit", zap.String("endpoint", endpoint), zap.String("path", path))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(endpoint, "network_error").Inc()
		return fmt.Errorf("odds provider request failed: %w", err)
	}
	defer res.Body.Close()

	metrics.ProviderRequests.WithLabelValues(endpoint, statusClass(res.StatusCode)).Inc()
	c.log.Debug("provider request",
		zap.String("endpoint", endpoint),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &HTTPError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return &SchemaError{Err: err}
	}

	_ = c.cache.Set(ctx, fullURL, dst)
	return nil
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
