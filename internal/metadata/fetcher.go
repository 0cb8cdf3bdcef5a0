package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher pulls a venue's raw trading-rules and 24h-ticker responses over
// HTTP.
type Fetcher interface {
	FetchOKX(ctx context.Context, url string) ([]OKXInstrument, error)
	FetchBinance(ctx context.Context, url string) ([]BinanceSymbol, error)
	FetchOKXTickers(ctx context.Context, url string) ([]OKXTicker, error)
	FetchBinanceTickers(ctx context.Context, url string) ([]BinanceTicker24hr, error)
}

// HTTPFetcher is the production Fetcher, backed by net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher with the given request timeout.
func NewHTTPFetcher(timeoutMs int) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: time.Duration(timeoutMs) * time.Millisecond,
		},
	}
}

// FetchOKX retrieves OKX's full instrument list from url.
func (f *HTTPFetcher) FetchOKX(ctx context.Context, url string) ([]OKXInstrument, error) {
	body, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch okx instruments: %w", err)
	}

	var resp OKXResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode okx instruments: %w", err)
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx instruments api returned code %s", resp.Code)
	}
	return resp.Data, nil
}

// FetchBinance retrieves Binance's full symbol list from url.
func (f *HTTPFetcher) FetchBinance(ctx context.Context, url string) ([]BinanceSymbol, error) {
	body, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch binance exchangeInfo: %w", err)
	}

	var resp BinanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode binance exchangeInfo: %w", err)
	}
	return resp.Symbols, nil
}

// FetchOKXTickers retrieves OKX's 24h spot ticker stats from url.
func (f *HTTPFetcher) FetchOKXTickers(ctx context.Context, url string) ([]OKXTicker, error) {
	body, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch okx tickers: %w", err)
	}

	var resp OKXTickersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode okx tickers: %w", err)
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx tickers api returned code %s", resp.Code)
	}
	return resp.Data, nil
}

// FetchBinanceTickers retrieves Binance's 24h ticker stats from url.
func (f *HTTPFetcher) FetchBinanceTickers(ctx context.Context, url string) ([]BinanceTicker24hr, error) {
	body, err := f.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch binance tickers: %w", err)
	}

	var tickers []BinanceTicker24hr
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("decode binance tickers: %w", err)
	}
	return tickers, nil
}

func (f *HTTPFetcher) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "triarb/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
