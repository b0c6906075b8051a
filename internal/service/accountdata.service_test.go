package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tradedash/internal/batch"
	"tradedash/internal/cache"
	"tradedash/internal/domain"
	"tradedash/internal/logger"
	"tradedash/internal/ratelimit"
	mock_repository "tradedash/internal/repository/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var testCreds = domain.BrokerageCredentials{APIKey: "key", APISecret: "secret", IsPractice: true}

func testContext() context.Context {
	return context.WithValue(context.Background(), logger.ContextKey, zap.NewNop().Sugar())
}

func newTestService(t *testing.T, limiter *ratelimit.Limiter) (AccountDataService, *mock_repository.MockBrokerageRepository) {
	ctrl := gomock.NewController(t)
	brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
	if limiter == nil {
		limiter = ratelimit.NewDefaultLimiter()
	}
	svc := NewAccountDataService(
		cache.NewDefaultStore(zap.NewNop().Sugar()),
		batch.NewBatcher(brokerage),
		limiter,
	)
	return svc, brokerage
}

func expectAccountFetch(brokerage *mock_repository.MockBrokerageRepository, accountID string, positions []domain.Position) {
	brokerage.EXPECT().
		GetAccount(accountID, testCreds).
		Return(&domain.Account{AccountID: accountID, Cash: 100, Currency: "USD"}, nil).
		Times(1)
	brokerage.EXPECT().
		GetPositions(accountID, testCreds).
		Return(positions, nil).
		Times(1)
}

func TestAccountDataService_CacheFirst(t *testing.T) {
	svc, brokerage := newTestService(t, nil)
	ctx := testContext()

	expectAccountFetch(brokerage, "acc1", []domain.Position{
		{Symbol: "AAPL", Quantity: 10, CurrentPrice: 100, PnL: 50, IntradayPnL: 10},
	})

	first, err := svc.GetAccountData(ctx, "user1", "acc1", testCreds, false)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 1, first.Stats.ActivePositions)
	require.Equal(t, 1000.0, first.Stats.TotalValue)
	require.InDelta(t, 50.0/950.0*100, first.Stats.TotalPnLPercent, 0.0001)
	require.Equal(t, 10.0, first.Stats.TodayPnL)
	require.InDelta(t, 10.0/990.0*100, first.Stats.TodayPnLPercent, 0.0001)

	// second call must not reach the upstream (mock would fail on a second call)
	second, err := svc.GetAccountData(ctx, "user1", "acc1", testCreds, false)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Stats, second.Stats)
}

func TestAccountDataService_ForegroundErrorPropagates(t *testing.T) {
	svc, brokerage := newTestService(t, nil)

	brokerage.EXPECT().GetAccount("acc1", testCreds).Return(nil, fmt.Errorf("brokerage down"))
	brokerage.EXPECT().GetPositions("acc1", testCreds).Return(nil, fmt.Errorf("brokerage down"))

	_, err := svc.GetAccountData(testContext(), "user1", "acc1", testCreds, false)
	require.Error(t, err)
}

func TestAccountDataService_GetPortfolioData(t *testing.T) {
	svc, brokerage := newTestService(t, nil)
	ctx := testContext()

	brokerage.EXPECT().
		GetPositions("acc1", testCreds).
		Return([]domain.Position{}, nil).
		Times(1)

	summary, err := svc.GetPortfolioData(ctx, "user1", "acc1", testCreds)
	require.NoError(t, err)
	require.False(t, summary.CacheHit)
	require.Equal(t, domain.PortfolioStats{}, summary.Stats)
	require.NotNil(t, summary.Positions)

	cached, err := svc.GetPortfolioData(ctx, "user1", "acc1", testCreds)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
}

func TestAccountDataService_MultiAccountForceRefresh(t *testing.T) {
	svc, brokerage := newTestService(t, nil)
	ctx := testContext()

	// two fetch rounds for the same account: initial miss, then forced refresh
	gomock.InOrder(
		brokerage.EXPECT().GetAccount("acc1", testCreds).Return(&domain.Account{AccountID: "acc1"}, nil),
		brokerage.EXPECT().GetAccount("acc1", testCreds).Return(&domain.Account{AccountID: "acc1"}, nil),
	)
	brokerage.EXPECT().GetPositions("acc1", testCreds).Return([]domain.Position{}, nil).Times(2)

	first := svc.GetMultiAccountData(ctx, "user1", []domain.AccountRequest{{AccountID: "acc1", Credentials: testCreds}}, false)
	require.False(t, first[0].CacheHit)

	forced := svc.GetMultiAccountData(ctx, "user1", []domain.AccountRequest{{AccountID: "acc1", Credentials: testCreds}}, true)
	require.False(t, forced[0].CacheHit)
	require.Empty(t, forced[0].Error)
}

func TestAccountDataService_MultiAccountIsolation(t *testing.T) {
	svc, brokerage := newTestService(t, nil)

	expectAccountFetch(brokerage, "good", []domain.Position{{Symbol: "AAPL", Quantity: 1, CurrentPrice: 10}})
	brokerage.EXPECT().GetAccount("bad", testCreds).Return(nil, fmt.Errorf("boom"))
	brokerage.EXPECT().GetPositions("bad", testCreds).Return(nil, fmt.Errorf("boom"))

	results := svc.GetMultiAccountData(testContext(), "user1", []domain.AccountRequest{
		{AccountID: "good", Credentials: testCreds},
		{AccountID: "bad", Credentials: testCreds},
	}, false)

	require.Len(t, results, 2)
	require.Equal(t, "good", results[0].AccountID)
	require.NotNil(t, results[0].Data)
	require.Equal(t, "bad", results[1].AccountID)
	require.NotEmpty(t, results[1].Error)
}

func TestAccountDataService_Aggregation(t *testing.T) {
	svc, brokerage := newTestService(t, nil)

	expectAccountFetch(brokerage, "acc1", []domain.Position{{Symbol: "A", Quantity: 1, CurrentPrice: 15000, PnL: 1000}})
	expectAccountFetch(brokerage, "acc2", []domain.Position{{Symbol: "B", Quantity: 1, CurrentPrice: 30000, PnL: 2000}})

	out, err := svc.GetAggregatedAccountData(testContext(), "user1", []domain.AccountRequest{
		{AccountID: "acc1", Credentials: testCreds},
		{AccountID: "acc2", Credentials: testCreds},
	})
	require.NoError(t, err)

	require.Equal(t, 2, out.TotalStats.ConnectedAccounts)
	require.Equal(t, 3000.0, out.TotalStats.TotalPnL)
	require.Equal(t, 45000.0, out.TotalStats.TotalValue)
	require.InDelta(t, 3000.0/42000.0*100, out.TotalStats.TotalPnLPercent, 0.01)
}

func TestAccountDataService_AggregationSkipsFailedAccounts(t *testing.T) {
	svc, brokerage := newTestService(t, nil)

	expectAccountFetch(brokerage, "acc1", []domain.Position{{Symbol: "A", Quantity: 2, CurrentPrice: 100, PnL: 20}})
	brokerage.EXPECT().GetAccount("acc2", testCreds).Return(nil, fmt.Errorf("boom"))
	brokerage.EXPECT().GetPositions("acc2", testCreds).Return(nil, fmt.Errorf("boom"))

	out, err := svc.GetAggregatedAccountData(testContext(), "user1", []domain.AccountRequest{
		{AccountID: "acc1", Credentials: testCreds},
		{AccountID: "acc2", Credentials: testCreds},
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalStats.ConnectedAccounts)
	require.Equal(t, 200.0, out.TotalStats.TotalValue)
}

func TestAccountDataService_ForceRefreshAccountData(t *testing.T) {
	svc, brokerage := newTestService(t, nil)
	ctx := testContext()

	brokerage.EXPECT().GetAccount("acc1", testCreds).Return(&domain.Account{AccountID: "acc1"}, nil).Times(2)
	brokerage.EXPECT().GetPositions("acc1", testCreds).Return([]domain.Position{}, nil).Times(2)

	_, err := svc.GetAccountData(ctx, "user1", "acc1", testCreds, false)
	require.NoError(t, err)

	refreshed, err := svc.ForceRefreshAccountData(ctx, "user1", "acc1", testCreds, false)
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
}

func TestAccountDataService_RateLimiterDelegation(t *testing.T) {
	svc, _ := newTestService(t, ratelimit.NewLimiter(time.Minute, 1))

	require.True(t, svc.CanMakeRequest("user1", "acc1"))
	require.False(t, svc.CanMakeRequest("user1", "acc1"))
	require.Greater(t, svc.TimeUntilReset("user1", "acc1"), time.Duration(0))

	// other accounts are unaffected
	require.True(t, svc.CanMakeRequest("user1", "acc2"))
}

func TestAccountDataService_BackgroundSync(t *testing.T) {
	t.Run("all accounts limited is a no-op", func(t *testing.T) {
		svc, _ := newTestService(t, ratelimit.NewLimiter(time.Minute, 0))

		// mock has no expectations: any upstream call would fail the test
		svc.BackgroundSync(testContext(), "user1", []domain.AccountRequest{
			{AccountID: "acc1", Credentials: testCreds},
		})
	})

	t.Run("upstream failure is swallowed", func(t *testing.T) {
		svc, brokerage := newTestService(t, nil)

		brokerage.EXPECT().GetAccount("acc1", testCreds).Return(nil, fmt.Errorf("boom"))
		brokerage.EXPECT().GetPositions("acc1", testCreds).Return(nil, fmt.Errorf("boom"))

		svc.BackgroundSync(testContext(), "user1", []domain.AccountRequest{
			{AccountID: "acc1", Credentials: testCreds},
		})
	})

	t.Run("eligible accounts are refreshed", func(t *testing.T) {
		svc, brokerage := newTestService(t, nil)
		expectAccountFetch(brokerage, "acc1", []domain.Position{})

		svc.BackgroundSync(testContext(), "user1", []domain.AccountRequest{
			{AccountID: "acc1", Credentials: testCreds},
		})
	})
}

func TestAccountDataService_HealthCheck(t *testing.T) {
	svc, _ := newTestService(t, nil)

	health := svc.HealthCheck()
	require.Equal(t, 0, health.Cache.TotalEntries)
	require.Equal(t, 0, health.Batches.PendingBatches)
	require.True(t, health.RateLimiter.CanMakeRequest)
}
