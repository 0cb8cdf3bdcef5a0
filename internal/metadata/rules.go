package metadata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"triarb/internal/symbol"
)

// OKXRulesFetcher implements symbol.RulesFetcher against OKX's public spot
// instruments endpoint.
type OKXRulesFetcher struct {
	f   Fetcher
	url string
}

// NewOKXRulesFetcher builds an OKXRulesFetcher that pulls instruments from
// url using f.
func NewOKXRulesFetcher(f Fetcher, url string) *OKXRulesFetcher {
	return &OKXRulesFetcher{f: f, url: url}
}

// FetchRules implements symbol.RulesFetcher.
func (r *OKXRulesFetcher) FetchRules(ctx context.Context) ([]symbol.RuleRow, error) {
	insts, err := r.f.FetchOKX(ctx, r.url)
	if err != nil {
		return nil, err
	}

	rows := make([]symbol.RuleRow, 0, len(insts))
	for i := range insts {
		inst := &insts[i]
		if !inst.IsSpot() {
			continue
		}

		tick, err := decimal.NewFromString(inst.TickSz)
		if err != nil {
			return nil, fmt.Errorf("okx %s: invalid tickSz %q: %w", inst.InstId, inst.TickSz, err)
		}
		step, err := decimal.NewFromString(inst.LotSz)
		if err != nil {
			return nil, fmt.Errorf("okx %s: invalid lotSz %q: %w", inst.InstId, inst.LotSz, err)
		}
		minQty := decimal.Zero
		if inst.MinSz != "" {
			minQty, err = decimal.NewFromString(inst.MinSz)
			if err != nil {
				return nil, fmt.Errorf("okx %s: invalid minSz %q: %w", inst.InstId, inst.MinSz, err)
			}
		}

		rows = append(rows, symbol.RuleRow{
			ExchangeCode: inst.InstId,
			Base:         inst.BaseCcy,
			Quote:        inst.QuoteCcy,
			Status:       inst.status(),
			PriceTick:    tick,
			QtyStep:      step,
			MinQty:       minQty,
		})
	}
	return rows, nil
}

// BinanceRulesFetcher implements symbol.RulesFetcher against Binance's
// public spot exchangeInfo endpoint.
type BinanceRulesFetcher struct {
	f   Fetcher
	url string
}

// NewBinanceRulesFetcher builds a BinanceRulesFetcher that pulls
// exchangeInfo from url using f.
func NewBinanceRulesFetcher(f Fetcher, url string) *BinanceRulesFetcher {
	return &BinanceRulesFetcher{f: f, url: url}
}

// FetchRules implements symbol.RulesFetcher.
func (r *BinanceRulesFetcher) FetchRules(ctx context.Context) ([]symbol.RuleRow, error) {
	syms, err := r.f.FetchBinance(ctx, r.url)
	if err != nil {
		return nil, err
	}

	rows := make([]symbol.RuleRow, 0, len(syms))
	for i := range syms {
		s := &syms[i]
		if !s.IsSpotTradingAllowed {
			continue
		}

		tickStr := s.tickSize()
		tick, err := decimal.NewFromString(tickStr)
		if err != nil {
			return nil, fmt.Errorf("binance %s: invalid tick size %q: %w", s.Symbol, tickStr, err)
		}
		stepStr, minQtyStr := s.lotSize()
		step, err := decimal.NewFromString(stepStr)
		if err != nil {
			return nil, fmt.Errorf("binance %s: invalid step size %q: %w", s.Symbol, stepStr, err)
		}
		minQty := decimal.Zero
		if minQtyStr != "" {
			minQty, err = decimal.NewFromString(minQtyStr)
			if err != nil {
				return nil, fmt.Errorf("binance %s: invalid minQty %q: %w", s.Symbol, minQtyStr, err)
			}
		}

		minNotionalStr, declared := s.minNotional()
		minNotional := decimal.Zero
		if declared && minNotionalStr != "" {
			minNotional, err = decimal.NewFromString(minNotionalStr)
			if err != nil {
				return nil, fmt.Errorf("binance %s: invalid minNotional %q: %w", s.Symbol, minNotionalStr, err)
			}
		}

		rows = append(rows, symbol.RuleRow{
			ExchangeCode:      s.Symbol,
			Base:              s.BaseAsset,
			Quote:             s.QuoteAsset,
			Status:            s.Status,
			PriceTick:         tick,
			QtyStep:           step,
			MinQty:            minQty,
			MinNotional:       minNotional,
			HasNotionalFilter: declared,
		})
	}
	return rows, nil
}
