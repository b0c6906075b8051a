package repository

import (
	"context"

	"tradedash/internal/domain"
	"tradedash/internal/logger"

	"github.com/piquette/finance-go/quote"
)

// MarketDataRepository supplies the 52-week range context the analysis
// pipeline feeds into its prompts and fallback rules.
type MarketDataRepository interface {
	GetQuotes(ctx context.Context, symbols []string) map[string]domain.MarketQuote
}

type marketDataRepositoryHandler struct{}

func NewMarketDataRepository() MarketDataRepository {
	return marketDataRepositoryHandler{}
}

// GetQuotes fetches quotes for the given symbols. Symbols that fail to
// resolve are skipped rather than failing the batch; analysis falls back to
// caller-provided market data for anything missing.
func (h marketDataRepositoryHandler) GetQuotes(ctx context.Context, symbols []string) map[string]domain.MarketQuote {
	log := logger.FromContext(ctx)

	out := map[string]domain.MarketQuote{}
	for _, symbol := range symbols {
		q, err := quote.Get(symbol)
		if err != nil || q == nil {
			log.Warnw("failed to get quote", "symbol", symbol, "error", err)
			continue
		}
		out[symbol] = domain.MarketQuote{
			Symbol:           symbol,
			Price:            q.RegularMarketPrice,
			FiftyTwoWeekHigh: q.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:  q.FiftyTwoWeekLow,
		}
	}

	return out
}
