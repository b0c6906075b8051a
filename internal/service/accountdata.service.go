package service

import (
	"context"
	"fmt"
	"time"

	"tradedash/internal/batch"
	"tradedash/internal/cache"
	"tradedash/internal/domain"
	"tradedash/internal/logger"
	"tradedash/internal/ratelimit"
)

// AccountDataService orchestrates the cache, batcher, and rate limiter to
// serve brokerage account views. Foreground fetch errors propagate to the
// caller unmodified; only BackgroundSync swallows them.
type AccountDataService interface {
	GetAccountData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials, includeOrders bool) (*domain.AccountSummary, error)
	GetPortfolioData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials) (*domain.PortfolioSummary, error)
	GetMultiAccountData(ctx context.Context, userID string, accounts []domain.AccountRequest, forceRefresh bool) []domain.MultiAccountResult
	GetAggregatedAccountData(ctx context.Context, userID string, accounts []domain.AccountRequest) (*AggregatedAccountData, error)
	ForceRefreshAccountData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials, includeOrders bool) (*domain.AccountSummary, error)
	CanMakeRequest(userID, accountID string) bool
	TimeUntilReset(userID, accountID string) time.Duration
	InvalidateCache(userID, accountID string, dataType cache.DataType)
	BackgroundSync(ctx context.Context, userID string, accounts []domain.AccountRequest)
	SpawnBackgroundSync(userID string, accounts []domain.AccountRequest)
	HealthCheck() HealthStatus
}

type AggregatedAccountData struct {
	TotalStats domain.AggregatedStats `json:"totalStats"`
	CacheHits  int                    `json:"cacheHits"`
}

type HealthStatus struct {
	Cache       cache.CacheStats   `json:"cache"`
	Batches     batch.BatcherStats `json:"batches"`
	RateLimiter RateLimiterStatus  `json:"rateLimiter"`
}

type RateLimiterStatus struct {
	CanMakeRequest bool `json:"canMakeRequest"`
}

type accountDataServiceHandler struct {
	Cache   *cache.Store
	Batcher *batch.Batcher
	Limiter *ratelimit.Limiter

	now func() time.Time
}

func NewAccountDataService(cacheStore *cache.Store, batcher *batch.Batcher, limiter *ratelimit.Limiter) AccountDataService {
	return &accountDataServiceHandler{
		Cache:   cacheStore,
		Batcher: batcher,
		Limiter: limiter,
		now:     time.Now,
	}
}

func limiterKey(userID, accountID string) string {
	return fmt.Sprintf("brokerage-%s-%s", userID, accountID)
}

func summaryParams(includeOrders bool) map[string]string {
	return map[string]string{"orders": fmt.Sprintf("%t", includeOrders)}
}

// GetAccountData serves one account cache-first. A hit returns the cached
// summary flagged CacheHit; a miss delegates to the batcher, derives today's
// P&L, and writes through before returning.
func (s *accountDataServiceHandler) GetAccountData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials, includeOrders bool) (*domain.AccountSummary, error) {
	params := summaryParams(includeOrders)
	if cached, ok := s.Cache.Get(userID, accountID, cache.DataTypeAccount, params); ok {
		if summary, ok := cached.(*domain.AccountSummary); ok {
			hit := *summary
			hit.CacheHit = true
			return &hit, nil
		}
	}

	return s.fetchAndCache(ctx, userID, accountID, creds, includeOrders)
}

func (s *accountDataServiceHandler) fetchAndCache(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials, includeOrders bool) (*domain.AccountSummary, error) {
	data, err := s.Batcher.FetchAccountData(ctx, userID, accountID, creds, includeOrders)
	if err != nil {
		return nil, err
	}

	stats := data.Stats
	addTodayPnL(&stats, data.Portfolio)

	summary := &domain.AccountSummary{
		AccountID:   accountID,
		Account:     data.Account,
		Positions:   data.Portfolio,
		Orders:      data.Orders,
		Stats:       stats,
		CacheHit:    false,
		LastUpdated: s.now(),
	}
	s.Cache.Set(userID, accountID, cache.DataTypeAccount, summary, summaryParams(includeOrders))

	return summary, nil
}

// addTodayPnL derives same-day movement from the positions' intraday pnl
// fields. Accounts whose upstream carries no intraday baseline sum to zero.
// The percent uses the same cost-basis denominator as the total.
func addTodayPnL(stats *domain.PortfolioStats, positions []domain.Position) {
	for _, p := range positions {
		stats.TodayPnL += p.IntradayPnL
	}
	if denom := stats.TotalValue - stats.TodayPnL; denom != 0 {
		stats.TodayPnLPercent = stats.TodayPnL / denom * 100
	}
}

// GetPortfolioData is the positions-only cache-first path. An empty
// portfolio yields all-zero totals.
func (s *accountDataServiceHandler) GetPortfolioData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials) (*domain.PortfolioSummary, error) {
	if cached, ok := s.Cache.Get(userID, accountID, cache.DataTypePortfolio, nil); ok {
		if summary, ok := cached.(*domain.PortfolioSummary); ok {
			hit := *summary
			hit.CacheHit = true
			return &hit, nil
		}
	}

	result, err := s.Batcher.Request(ctx, userID, accountID, batch.RequestTypePortfolio, creds)
	if err != nil {
		return nil, err
	}
	positions, _ := result.([]domain.Position)
	if positions == nil {
		positions = []domain.Position{}
	}

	stats := batch.CalculateStats(positions)
	addTodayPnL(&stats, positions)

	summary := &domain.PortfolioSummary{
		AccountID:   accountID,
		Positions:   positions,
		Stats:       stats,
		CacheHit:    false,
		LastUpdated: s.now(),
	}
	s.Cache.Set(userID, accountID, cache.DataTypePortfolio, summary, nil)

	return summary, nil
}

// GetMultiAccountData serves every account independently and concurrently,
// preserving the input order. forceRefresh bypasses cache reads but still
// writes fresh results through.
func (s *accountDataServiceHandler) GetMultiAccountData(ctx context.Context, userID string, accounts []domain.AccountRequest, forceRefresh bool) []domain.MultiAccountResult {
	results := make([]domain.MultiAccountResult, len(accounts))

	done := make(chan int, len(accounts))
	for i, acct := range accounts {
		go func(i int, acct domain.AccountRequest) {
			defer func() { done <- i }()

			if forceRefresh {
				s.Cache.Delete(userID, acct.AccountID, cache.DataTypeAccount, summaryParams(false))
			}
			summary, err := s.GetAccountData(ctx, userID, acct.AccountID, acct.Credentials, false)
			if err != nil {
				results[i] = domain.MultiAccountResult{AccountID: acct.AccountID, Error: err.Error()}
				return
			}
			results[i] = domain.MultiAccountResult{
				AccountID: acct.AccountID,
				Data: &domain.AccountData{
					Account:   summary.Account,
					Portfolio: summary.Positions,
					Stats:     summary.Stats,
				},
				CacheHit: summary.CacheHit,
			}
		}(i, acct)
	}
	for range accounts {
		<-done
	}

	return results
}

// GetAggregatedAccountData sums totals across every error-free account.
// Aggregate percentages use the cost-basis formula over the summed totals.
func (s *accountDataServiceHandler) GetAggregatedAccountData(ctx context.Context, userID string, accounts []domain.AccountRequest) (*AggregatedAccountData, error) {
	results := s.GetMultiAccountData(ctx, userID, accounts, false)

	out := &AggregatedAccountData{}
	for _, r := range results {
		if r.Error != "" || r.Data == nil {
			continue
		}
		if r.CacheHit {
			out.CacheHits++
		}
		out.TotalStats.ActivePositions += r.Data.Stats.ActivePositions
		out.TotalStats.TotalPnL += r.Data.Stats.TotalPnL
		out.TotalStats.TotalValue += r.Data.Stats.TotalValue
		out.TotalStats.TodayPnL += r.Data.Stats.TodayPnL
		out.TotalStats.ConnectedAccounts++
	}

	if denom := out.TotalStats.TotalValue - out.TotalStats.TotalPnL; denom != 0 {
		out.TotalStats.TotalPnLPercent = out.TotalStats.TotalPnL / denom * 100
	}
	if denom := out.TotalStats.TotalValue - out.TotalStats.TodayPnL; denom != 0 {
		out.TotalStats.TodayPnLPercent = out.TotalStats.TodayPnL / denom * 100
	}

	return out, nil
}

// ForceRefreshAccountData drops the cached entry for the account, then runs
// the normal fetch-and-cache path.
func (s *accountDataServiceHandler) ForceRefreshAccountData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials, includeOrders bool) (*domain.AccountSummary, error) {
	s.Cache.Delete(userID, accountID, cache.DataTypeAccount, summaryParams(includeOrders))
	return s.GetAccountData(ctx, userID, accountID, creds, includeOrders)
}

func (s *accountDataServiceHandler) CanMakeRequest(userID, accountID string) bool {
	return s.Limiter.CanMakeRequest(limiterKey(userID, accountID))
}

func (s *accountDataServiceHandler) TimeUntilReset(userID, accountID string) time.Duration {
	return s.Limiter.TimeUntilReset(limiterKey(userID, accountID))
}

// InvalidateCache dispatches across the three invalidation axes: account
// set means that account only (any data type), data type set means that
// type across all accounts, neither means everything for the user.
func (s *accountDataServiceHandler) InvalidateCache(userID, accountID string, dataType cache.DataType) {
	switch {
	case accountID != "":
		s.Cache.InvalidateAccount(userID, accountID)
	case dataType != "":
		s.Cache.InvalidateDataType(userID, dataType)
	default:
		s.Cache.InvalidateUser(userID)
	}
}

// BackgroundSync refreshes rate-limit-eligible accounts. Every account
// being limited is a logged no-op, and upstream failures are logged rather
// than surfaced: background work must not crash its invoker.
func (s *accountDataServiceHandler) BackgroundSync(ctx context.Context, userID string, accounts []domain.AccountRequest) {
	log := logger.FromContext(ctx)

	eligible := make([]domain.AccountRequest, 0, len(accounts))
	for _, acct := range accounts {
		if s.CanMakeRequest(userID, acct.AccountID) {
			eligible = append(eligible, acct)
		}
	}
	if len(eligible) == 0 {
		log.Infow("background sync skipped - all accounts rate limited", "userId", userID)
		return
	}

	results := s.GetMultiAccountData(ctx, userID, eligible, false)

	synced := 0
	for _, r := range results {
		if r.Error != "" {
			log.Warnw("background sync failed for account", "userId", userID, "accountId", r.AccountID, "error", r.Error)
			continue
		}
		synced++
	}
	log.Infow("background sync completed", "userId", userID, "synced", synced, "total", len(eligible))
}

// SpawnBackgroundSync runs BackgroundSync as a detached task. Panics are
// captured and logged instead of taking the process down.
func (s *accountDataServiceHandler) SpawnBackgroundSync(userID string, accounts []domain.AccountRequest) {
	log := logger.New()
	ctx := context.WithValue(context.Background(), logger.ContextKey, log)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("background sync panicked", "userId", userID, "panic", r)
			}
		}()
		s.BackgroundSync(ctx, userID, accounts)
	}()
}

// HealthCheck is a read-only snapshot of the optimization layer, except for
// the limiter probe, which spends one admission on a dedicated probe key.
func (s *accountDataServiceHandler) HealthCheck() HealthStatus {
	return HealthStatus{
		Cache:   s.Cache.Stats(),
		Batches: s.Batcher.Stats(),
		RateLimiter: RateLimiterStatus{
			CanMakeRequest: s.Limiter.CanMakeRequest("health-check"),
		},
	}
}
