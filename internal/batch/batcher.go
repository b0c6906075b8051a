package batch

import (
	"context"
	"fmt"
	"sync"

	"tradedash/internal/domain"
	"tradedash/internal/logger"
	"tradedash/internal/repository"
)

type RequestType string

const (
	RequestTypeAccount   RequestType = "account"
	RequestTypePortfolio RequestType = "portfolio"
	RequestTypeOrders    RequestType = "orders"
)

type BatcherStats struct {
	PendingBatches       int `json:"pendingBatches"`
	TotalPendingRequests int `json:"totalPendingRequests"`
}

// inflightCall is one upstream request shared by every concurrent caller
// with the same key. All callers observe the same result, including the
// same error.
type inflightCall struct {
	done    chan struct{}
	result  any
	err     error
	waiters int
}

// Batcher deduplicates concurrent identical brokerage requests and fans out
// multi-resource and multi-account fetches with per-resource failure
// isolation. One instance is shared process-wide.
type Batcher struct {
	brokerage repository.BrokerageRepository

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

func NewBatcher(brokerage repository.BrokerageRepository) *Batcher {
	return &Batcher{
		brokerage: brokerage,
		inflight:  map[string]*inflightCall{},
	}
}

// Request issues (or joins an in-flight) call for exactly one resource type.
// Unknown request types fail immediately without touching the upstream.
func (b *Batcher) Request(ctx context.Context, userID, accountID string, requestType RequestType, creds domain.BrokerageCredentials) (any, error) {
	switch requestType {
	case RequestTypeAccount, RequestTypePortfolio, RequestTypeOrders:
	default:
		return nil, fmt.Errorf("unknown request type: %s", requestType)
	}

	key := fmt.Sprintf("%s:%s:%s", userID, accountID, requestType)

	b.mu.Lock()
	if call, ok := b.inflight[key]; ok {
		call.waiters++
		b.mu.Unlock()
		logger.FromContext(ctx).Debugw("joining in-flight request", "key", key)

		select {
		case <-call.done:
			return call.result, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{}), waiters: 1}
	b.inflight[key] = call
	b.mu.Unlock()

	call.result, call.err = b.fetch(accountID, requestType, creds)
	close(call.done)

	b.mu.Lock()
	delete(b.inflight, key)
	b.mu.Unlock()

	return call.result, call.err
}

func (b *Batcher) fetch(accountID string, requestType RequestType, creds domain.BrokerageCredentials) (any, error) {
	switch requestType {
	case RequestTypeAccount:
		return b.brokerage.GetAccount(accountID, creds)
	case RequestTypePortfolio:
		return b.brokerage.GetPositions(accountID, creds)
	case RequestTypeOrders:
		return b.brokerage.GetOpenOrders(accountID, creds)
	}
	return nil, fmt.Errorf("unknown request type: %s", requestType)
}

// FetchAccountData fetches the account, portfolio, and optionally orders
// resources concurrently. Each resource degrades independently: a failed
// account call yields a nil account, failed portfolio/orders calls yield
// empty slices, and stats are always computed from whatever portfolio data
// survived. It errors only when both the account and portfolio calls fail,
// leaving nothing usable.
func (b *Batcher) FetchAccountData(ctx context.Context, userID, accountID string, creds domain.BrokerageCredentials, includeOrders bool) (*domain.AccountData, error) {
	log := logger.FromContext(ctx)

	var (
		wg                       sync.WaitGroup
		account                  *domain.Account
		positions                []domain.Position
		orders                   []domain.Order
		accountErr, portfolioErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result, err := b.Request(ctx, userID, accountID, RequestTypeAccount, creds)
		if err != nil {
			log.Warnw("account fetch failed", "accountId", accountID, "error", err)
			accountErr = err
			return
		}
		account, _ = result.(*domain.Account)
	}()
	go func() {
		defer wg.Done()
		result, err := b.Request(ctx, userID, accountID, RequestTypePortfolio, creds)
		if err != nil {
			log.Warnw("portfolio fetch failed", "accountId", accountID, "error", err)
			portfolioErr = err
			return
		}
		positions, _ = result.([]domain.Position)
	}()

	if includeOrders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := b.Request(ctx, userID, accountID, RequestTypeOrders, creds)
			if err != nil {
				log.Warnw("orders fetch failed", "accountId", accountID, "error", err)
				return
			}
			orders, _ = result.([]domain.Order)
		}()
	}

	wg.Wait()

	if accountErr != nil && portfolioErr != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", accountID, accountErr)
	}

	if positions == nil {
		positions = []domain.Position{}
	}
	data := &domain.AccountData{
		Account:   account,
		Portfolio: positions,
		Stats:     CalculateStats(positions),
	}
	if includeOrders {
		if orders == nil {
			orders = []domain.Order{}
		}
		data.Orders = orders
	}

	return data, nil
}

// FetchMultiAccountData fans FetchAccountData out across accounts in
// parallel. One account failing never aborts the others; every result
// carries either Data or Error. Results preserve the input account order
// regardless of completion order.
func (b *Batcher) FetchMultiAccountData(ctx context.Context, userID string, accounts []domain.AccountRequest, includeOrders bool) []domain.MultiAccountResult {
	results := make([]domain.MultiAccountResult, len(accounts))

	var wg sync.WaitGroup
	for i, acct := range accounts {
		wg.Add(1)
		go func(i int, acct domain.AccountRequest) {
			defer wg.Done()
			data, err := b.FetchAccountData(ctx, userID, acct.AccountID, acct.Credentials, includeOrders)
			if err != nil {
				results[i] = domain.MultiAccountResult{AccountID: acct.AccountID, Error: err.Error()}
				return
			}
			results[i] = domain.MultiAccountResult{AccountID: acct.AccountID, Data: data}
		}(i, acct)
	}
	wg.Wait()

	return results
}

// Stats reports the in-flight request picture for observability.
func (b *Batcher) Stats() BatcherStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for _, call := range b.inflight {
		total += call.waiters
	}
	return BatcherStats{
		PendingBatches:       len(b.inflight),
		TotalPendingRequests: total,
	}
}

// CalculateStats derives portfolio totals from a position list. Every
// position in the list counts toward ActivePositions, zero-quantity ones
// included. TotalPnLPercent measures return against cost basis
// (value minus pnl), matching the rest of the dashboard.
func CalculateStats(positions []domain.Position) domain.PortfolioStats {
	stats := domain.PortfolioStats{
		ActivePositions: len(positions),
	}
	for _, p := range positions {
		stats.TotalValue += p.Quantity * p.CurrentPrice
		stats.TotalPnL += p.PnL
	}

	if costBasis := stats.TotalValue - stats.TotalPnL; costBasis != 0 {
		stats.TotalPnLPercent = stats.TotalPnL / costBasis * 100
	}

	return stats
}
