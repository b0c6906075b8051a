package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tradedash/internal/cache"
	"tradedash/internal/domain"
	"tradedash/internal/logger"
	"tradedash/internal/repository"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultAnalysisBatchSize is how many positions share one LLM call.
	DefaultAnalysisBatchSize = 5

	// recommendationBucket is the coarse time bucket baked into every
	// recommendation cache key, so identical requests within the bucket
	// are cache hits.
	recommendationBucket = time.Hour
)

type AnalyzeBatchInput struct {
	Positions   []domain.Position    `json:"positions"`
	MarketData  []domain.MarketQuote `json:"marketData"`
	UserID      string               `json:"userId"`
	AccountID   string               `json:"accountId"`
	RiskProfile domain.RiskProfile   `json:"riskProfile"`
}

type AnalyzeBatchOutput struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	CacheHits       int                     `json:"cacheHits"`
	TotalTokens     int                     `json:"totalTokens"`
	AnalysisTimeMs  int64                   `json:"analysisTime"`
}

// AnalysisService produces exit-strategy recommendations. Positions are
// grouped into fixed-size batches to cut LLM call volume; anything the LLM
// cannot answer falls back to the rule-based classifier, so one bad batch
// never blocks the others.
type AnalysisService interface {
	AnalyzePositionsBatch(ctx context.Context, input AnalyzeBatchInput) (*AnalyzeBatchOutput, error)
}

type analysisServiceHandler struct {
	LLM        repository.LLMRepository
	MarketData repository.MarketDataRepository
	Cache      *cache.Store
	BatchSize  int

	now func() time.Time
}

// NewAnalysisService constructs the analysis pipeline. A nil llm disables
// the API entirely and every recommendation comes from the rule-based
// classifier.
func NewAnalysisService(llm repository.LLMRepository, marketData repository.MarketDataRepository, cacheStore *cache.Store) AnalysisService {
	return &analysisServiceHandler{
		LLM:        llm,
		MarketData: marketData,
		Cache:      cacheStore,
		BatchSize:  DefaultAnalysisBatchSize,
		now:        time.Now,
	}
}

// RecommendationCacheKey is deterministic over symbol, risk profile, and
// the hour bucket the given time falls in.
func RecommendationCacheKey(symbol string, profile domain.RiskProfile, at time.Time) string {
	bucket := at.Unix() / int64(recommendationBucket.Seconds())
	return fmt.Sprintf("ai:%s:%s:%d", symbol, profile, bucket)
}

func (s *analysisServiceHandler) AnalyzePositionsBatch(ctx context.Context, input AnalyzeBatchInput) (*AnalyzeBatchOutput, error) {
	log := logger.FromContext(ctx)
	started := s.now()

	quotes := s.collectQuotes(ctx, input)

	out := &AnalyzeBatchOutput{Recommendations: make([]domain.Recommendation, 0, len(input.Positions))}
	bySymbol := map[string]domain.Recommendation{}

	uncached := make([]domain.Position, 0, len(input.Positions))
	for _, p := range input.Positions {
		key := RecommendationCacheKey(p.Symbol, input.RiskProfile, started)
		cached, ok := s.Cache.Get(input.UserID, input.AccountID, cache.DataTypeRecommendationBatch, map[string]string{"key": key})
		if ok {
			if rec, ok := cached.(domain.Recommendation); ok {
				out.CacheHits++
				bySymbol[p.Symbol] = rec
				continue
			}
		}
		uncached = append(uncached, p)
	}

	for start := 0; start < len(uncached); start += s.BatchSize {
		end := start + s.BatchSize
		if end > len(uncached) {
			end = len(uncached)
		}
		group := uncached[start:end]

		recs, tokens := s.analyzeGroup(ctx, group, quotes, input.RiskProfile, started)
		out.TotalTokens += tokens

		for _, rec := range recs {
			bySymbol[rec.Symbol] = rec
			s.Cache.Set(input.UserID, input.AccountID, cache.DataTypeRecommendationBatch, rec, map[string]string{"key": rec.CacheKey})
		}
	}

	// output follows the input position order
	for _, p := range input.Positions {
		if rec, ok := bySymbol[p.Symbol]; ok {
			out.Recommendations = append(out.Recommendations, rec)
		}
	}
	out.AnalysisTimeMs = s.now().Sub(started).Milliseconds()

	log.Infow("analyzed position batch",
		"userId", input.UserID,
		"accountId", input.AccountID,
		"positions", len(input.Positions),
		"cacheHits", out.CacheHits,
		"tokens", out.TotalTokens,
	)

	return out, nil
}

// collectQuotes indexes caller-provided market data and tries the market
// data repository for any position missing from it. Missing quotes are
// tolerated; the classifier just loses its 52-week context for that symbol.
func (s *analysisServiceHandler) collectQuotes(ctx context.Context, input AnalyzeBatchInput) map[string]domain.MarketQuote {
	quotes := map[string]domain.MarketQuote{}
	for _, q := range input.MarketData {
		quotes[q.Symbol] = q
	}

	missing := []string{}
	for _, p := range input.Positions {
		if _, ok := quotes[p.Symbol]; !ok {
			missing = append(missing, p.Symbol)
		}
	}
	if len(missing) > 0 && s.MarketData != nil {
		for symbol, q := range s.MarketData.GetQuotes(ctx, missing) {
			quotes[symbol] = q
		}
	}

	return quotes
}

// analyzeGroup sends one position group to the LLM and maps the response
// back per symbol. Any failure - no API, call rejected, unparseable output,
// a symbol missing from the response - degrades that position to the
// rule-based classifier.
func (s *analysisServiceHandler) analyzeGroup(ctx context.Context, group []domain.Position, quotes map[string]domain.MarketQuote, profile domain.RiskProfile, at time.Time) ([]domain.Recommendation, int) {
	log := logger.FromContext(ctx)

	fromLLM := map[string]domain.Recommendation{}
	tokens := 0

	if s.LLM != nil {
		content, used, err := s.LLM.AnalyzePositions(ctx, buildPrompt(group, quotes, profile))
		if err != nil {
			log.Warnw("llm call failed - using rule-based fallback", "positions", len(group), "error", err)
		} else {
			tokens = used
			parsed, err := parseLLMRecommendations(content)
			if err != nil {
				log.Warnw("unparseable llm response - using rule-based fallback", "error", err)
			} else {
				for _, rec := range parsed {
					fromLLM[rec.Symbol] = rec
				}
			}
		}
	}

	out := make([]domain.Recommendation, 0, len(group))
	for _, p := range group {
		key := RecommendationCacheKey(p.Symbol, profile, at)
		if rec, ok := fromLLM[p.Symbol]; ok {
			rec.CacheKey = key
			out = append(out, rec)
			continue
		}
		out = append(out, ruleBasedRecommendation(p, quotes[p.Symbol], profile, key))
	}

	return out, tokens
}

type promptPosition struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	AveragePrice     float64 `json:"averagePrice"`
	CurrentPrice     float64 `json:"currentPrice"`
	PnLPercent       float64 `json:"pnlPercent"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow,omitempty"`
}

type promptRequest struct {
	RiskProfile      domain.RiskProfile `json:"riskProfile"`
	Positions        []promptPosition   `json:"positions"`
	MeanPnLPercent   float64            `json:"meanPnlPercent"`
	MedianPnLPercent float64            `json:"medianPnlPercent"`
}

func buildPrompt(group []domain.Position, quotes map[string]domain.MarketQuote, profile domain.RiskProfile) string {
	req := promptRequest{
		RiskProfile: profile,
		Positions:   make([]promptPosition, 0, len(group)),
	}

	pnls := make([]float64, 0, len(group))
	for _, p := range group {
		q := quotes[p.Symbol]
		req.Positions = append(req.Positions, promptPosition{
			Symbol:           p.Symbol,
			Quantity:         p.Quantity,
			AveragePrice:     p.AveragePrice,
			CurrentPrice:     p.CurrentPrice,
			PnLPercent:       p.PnLPercent,
			FiftyTwoWeekHigh: q.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:  q.FiftyTwoWeekLow,
		})
		pnls = append(pnls, p.PnLPercent)
	}

	// best-effort batch context for the model
	req.MeanPnLPercent, _ = stats.Mean(pnls)
	req.MedianPnLPercent, _ = stats.Median(pnls)

	bytes, err := json.Marshal(req)
	if err != nil {
		return "{}"
	}
	return string(bytes)
}

// parseLLMRecommendations reads the model's JSON array, tolerating markdown
// code fences around it. Entries with an unknown recommendation type are
// dropped so the caller falls back for those symbols.
func parseLLMRecommendations(content string) ([]domain.Recommendation, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var recs []domain.Recommendation
	if err := json.Unmarshal([]byte(trimmed), &recs); err != nil {
		return nil, fmt.Errorf("failed to parse llm response: %w", err)
	}

	valid := recs[:0]
	for _, rec := range recs {
		switch rec.RecommendationType {
		case domain.RecommendationHold, domain.RecommendationExit, domain.RecommendationReduce, domain.RecommendationIncrease:
		default:
			continue
		}
		if rec.Confidence < 0 {
			rec.Confidence = 0
		}
		if rec.Confidence > 1 {
			rec.Confidence = 1
		}
		valid = append(valid, rec)
	}

	return valid, nil
}

// ruleBasedRecommendation is the deterministic classifier used whenever the
// LLM is unavailable. The branches form an ordered decision list - first
// match wins.
func ruleBasedRecommendation(p domain.Position, quote domain.MarketQuote, profile domain.RiskProfile, cacheKey string) domain.Recommendation {
	high := quote.FiftyTwoWeekHigh
	if high == 0 {
		high = p.FiftyTwoWeekHigh
	}

	rec := domain.Recommendation{
		Symbol:   p.Symbol,
		CacheKey: cacheKey,
	}

	switch {
	case p.PnLPercent > 20 && high > 0 && p.CurrentPrice >= 0.9*high:
		rec.RecommendationType = domain.RecommendationExit
		rec.Confidence = 0.75
		rec.RiskLevel = domain.RiskLow
		rec.Timeframe = domain.TimeframeShort
		rec.Reasoning = fmt.Sprintf("%s is up %.1f%% and trading within 10%% of its 52-week high.", p.Symbol, p.PnLPercent)
		rec.SuggestedAction = "Take profits while the position trades near its 52-week high"
		stop := p.CurrentPrice * 0.95
		rec.StopLoss = &stop

	case p.PnLPercent < -15:
		rec.RecommendationType = domain.RecommendationExit
		rec.Confidence = 0.65
		rec.RiskLevel = domain.RiskHigh
		rec.Timeframe = domain.TimeframeShort
		rec.Reasoning = fmt.Sprintf("%s is down %.1f%%, beyond the loss tolerance threshold.", p.Symbol, -p.PnLPercent)
		rec.SuggestedAction = "Cut the loss before it deepens"

	case p.PnLPercent > 10 && profile == domain.RiskProfileConservative:
		rec.RecommendationType = domain.RecommendationReduce
		rec.Confidence = 0.65
		rec.RiskLevel = domain.RiskLow
		rec.Timeframe = domain.TimeframeMedium
		rec.Reasoning = fmt.Sprintf("%s is up %.1f%%; a conservative profile favors locking in part of the gain.", p.Symbol, p.PnLPercent)
		rec.SuggestedAction = "Trim the position to lock in part of the gain"
		target := p.CurrentPrice
		rec.TargetPrice = &target

	default:
		rec.RecommendationType = domain.RecommendationHold
		rec.Confidence = 0.5
		rec.RiskLevel = domain.RiskMedium
		rec.Timeframe = domain.TimeframeMedium
		rec.Reasoning = fmt.Sprintf("%s shows no exit signal at %.1f%% unrealized P&L.", p.Symbol, p.PnLPercent)
		rec.SuggestedAction = "Hold and reassess at the next review"
	}

	return rec
}
