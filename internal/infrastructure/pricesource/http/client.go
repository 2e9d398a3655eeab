package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/internal/domain/pricesource"
	"github.com/ratewatch/price-history/pkg/config"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/logger"
	"github.com/ratewatch/price-history/pkg/util"
)

const (
	latestTicksPath    = "/v1/ticks/latest"
	historicalOHLCPath = "/v1/ohlc"

	headerAPIKey    = "X-Api-Key"
	headerRequestID = "X-Request-Id"
)

// Client talks to the upstream pricing API over HTTP. Requests pass through
// a shared rate limiter and are retried with jittered backoff on network
// failures and 5xx responses. 4xx responses are not retried.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	logger       logger.Interface
}

// NewClient creates a price source client from cfg.
func NewClient(cfg config.SourceConfig, log logger.Interface) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       log,
	}
}

var _ pricesource.Source = (*Client)(nil)

type tickPayload struct {
	ItemCode   string `json:"item_code"`
	ItemType   string `json:"item_type"`
	Price      string `json:"price"`
	ObservedAt int64  `json:"observed_at"`
}

type latestTicksResponse struct {
	Ticks []tickPayload `json:"ticks"`
}

type ohlcPayload struct {
	PeriodStart int64   `json:"period_start"`
	Open        string  `json:"open"`
	High        string  `json:"high"`
	Low         string  `json:"low"`
	Close       string  `json:"close"`
	Volume      *string `json:"volume"`
}

type historicalOHLCResponse struct {
	Records []ohlcPayload `json:"records"`
}

// LatestTicks pulls the current price of every tracked item.
func (c *Client) LatestTicks(ctx context.Context) ([]candledomain.PriceTick, error) {
	var payload latestTicksResponse
	if err := c.getJSON(ctx, latestTicksPath, nil, &payload); err != nil {
		return nil, err
	}

	ticks := make([]candledomain.PriceTick, 0, len(payload.Ticks))
	for _, p := range payload.Ticks {
		itemType, err := candledomain.ParseItemType(p.ItemType)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, pkgerrors.NewErrorDetails(
				fmt.Sprintf("unparseable price %q for %s", p.Price, p.ItemCode),
				string(pkgerrors.SourceResponseError),
				"price",
			)
		}

		ticks = append(ticks, candledomain.PriceTick{
			ItemCode:   p.ItemCode,
			ItemType:   itemType,
			Price:      price,
			ObservedAt: time.Unix(p.ObservedAt, 0).UTC(),
			Source:     "api",
		})
	}

	return ticks, nil
}

// HistoricalOHLC pulls authoritative candles for one item and timeframe over
// [RangeStart, RangeEnd).
func (c *Client) HistoricalOHLC(ctx context.Context, query pricesource.HistoricalQuery) ([]pricesource.ExternalOHLCRecord, error) {
	params := url.Values{}
	params.Set("item_code", query.ItemCode)
	params.Set("item_type", string(query.ItemType))
	params.Set("timeframe", query.Timeframe.Name)
	params.Set("from", strconv.FormatInt(query.RangeStart.Unix(), 10))
	params.Set("to", strconv.FormatInt(query.RangeEnd.Unix(), 10))

	var payload historicalOHLCResponse
	if err := c.getJSON(ctx, historicalOHLCPath, params, &payload); err != nil {
		return nil, err
	}

	records := make([]pricesource.ExternalOHLCRecord, 0, len(payload.Records))
	for _, p := range payload.Records {
		rec, err := p.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (p ohlcPayload) toRecord() (pricesource.ExternalOHLCRecord, error) {
	parse := func(field, value string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Decimal{}, pkgerrors.NewErrorDetails(
				fmt.Sprintf("unparseable %s %q", field, value),
				string(pkgerrors.SourceResponseError),
				field,
			)
		}
		return d, nil
	}

	rec := pricesource.ExternalOHLCRecord{
		PeriodStart: time.Unix(p.PeriodStart, 0).UTC(),
	}

	var err error
	if rec.Open, err = parse("open", p.Open); err != nil {
		return rec, err
	}
	if rec.High, err = parse("high", p.High); err != nil {
		return rec, err
	}
	if rec.Low, err = parse("low", p.Low); err != nil {
		return rec, err
	}
	if rec.Close, err = parse("close", p.Close); err != nil {
		return rec, err
	}
	if p.Volume != nil {
		volume, err := parse("volume", *p.Volume)
		if err != nil {
			return rec, err
		}
		rec.Volume = &volume
	}

	return rec, nil
}

// getJSON performs one rate-limited GET with retries and decodes the body
// into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffDelay(attempt)
			c.logger.WarnContext(ctx, "retrying source request",
				logger.NewField("path", path),
				logger.NewField("attempt", attempt),
				logger.NewField("backoff", backoff.String()),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		done, err := c.attempt(ctx, endpoint, out)
		if done {
			return err
		}
		lastErr = err
	}

	return pkgerrors.NewErrorDetailsWithObject(
		fmt.Sprintf("source unreachable after %d attempts: %v", c.maxRetries+1, lastErr),
		string(pkgerrors.SourceUnavailableError),
		"",
		path,
	)
}

// attempt performs a single request. done reports whether the outcome is
// final, retryable failures return done=false.
func (c *Client) attempt(ctx context.Context, endpoint string, out any) (done bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return true, fmt.Errorf("failed to build source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	req.Header.Set(headerRequestID, util.GetRequestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("source returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return true, pkgerrors.NewErrorDetailsWithObject(
			fmt.Sprintf("source rejected request with %d", resp.StatusCode),
			string(pkgerrors.SourceResponseError),
			"",
			string(body),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return true, pkgerrors.NewErrorDetails(
			fmt.Sprintf("undecodable source response: %v", err),
			string(pkgerrors.SourceResponseError),
			"",
		)
	}

	return true, nil
}

// backoffDelay grows exponentially with the attempt number and carries up to
// 25% jitter so synchronized callers spread out.
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBackoff << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(base)/4 + 1))
	return base + jitter
}
