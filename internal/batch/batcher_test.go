package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"tradedash/internal/domain"
	mock_repository "tradedash/internal/repository/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testCreds = domain.BrokerageCredentials{APIKey: "key", APISecret: "secret", IsPractice: true}

func TestCalculateStats(t *testing.T) {
	t.Run("empty portfolio is all zeros", func(t *testing.T) {
		stats := CalculateStats([]domain.Position{})
		require.Equal(t, domain.PortfolioStats{}, stats)
	})

	t.Run("cost basis percent formula", func(t *testing.T) {
		stats := CalculateStats([]domain.Position{
			{Symbol: "AAPL", Quantity: 10, CurrentPrice: 100, PnL: 50},
		})

		require.Equal(t, 1, stats.ActivePositions)
		require.Equal(t, 1000.0, stats.TotalValue)
		require.Equal(t, 50.0, stats.TotalPnL)
		require.InDelta(t, 50.0/(1000.0-50.0)*100, stats.TotalPnLPercent, 0.0001)
	})

	t.Run("zero-quantity positions still count", func(t *testing.T) {
		stats := CalculateStats([]domain.Position{
			{Symbol: "AAPL", Quantity: 0, CurrentPrice: 100},
			{Symbol: "MSFT"},
		})

		require.Equal(t, 2, stats.ActivePositions)
		require.Equal(t, 0.0, stats.TotalValue)
		require.Equal(t, 0.0, stats.TotalPnLPercent)
	})

	t.Run("zero cost basis guards percent", func(t *testing.T) {
		stats := CalculateStats([]domain.Position{
			{Symbol: "FREE", Quantity: 1, CurrentPrice: 50, PnL: 50},
		})
		require.Equal(t, 0.0, stats.TotalPnLPercent)
	})
}

func TestBatcher_UnknownRequestType(t *testing.T) {
	ctrl := gomock.NewController(t)
	brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
	b := NewBatcher(brokerage)

	_, err := b.Request(context.Background(), "user1", "acc1", RequestType("dividends"), testCreds)
	require.ErrorContains(t, err, "unknown request type")
}

func TestBatcher_Deduplication(t *testing.T) {
	ctrl := gomock.NewController(t)
	brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
	b := NewBatcher(brokerage)

	release := make(chan struct{})
	brokerage.EXPECT().
		GetPositions("acc1", testCreds).
		DoAndReturn(func(string, domain.BrokerageCredentials) ([]domain.Position, error) {
			<-release
			return []domain.Position{{Symbol: "AAPL"}}, nil
		}).
		Times(1)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = b.Request(context.Background(), "user1", "acc1", RequestTypePortfolio, testCreds)
	}()
	<-started

	// wait until the first call is registered in-flight
	for b.Stats().PendingBatches == 0 {
		time.Sleep(time.Millisecond)
	}

	var wg sync.WaitGroup
	results := make([]any, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = b.Request(context.Background(), "user1", "acc1", RequestTypePortfolio, testCreds)
		}(i)
	}

	for b.Stats().TotalPendingRequests < 3 {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, []domain.Position{{Symbol: "AAPL"}}, results[i])
	}
	require.Equal(t, BatcherStats{}, b.Stats())
}

func TestBatcher_SharedErrorAcrossWaiters(t *testing.T) {
	ctrl := gomock.NewController(t)
	brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
	b := NewBatcher(brokerage)

	release := make(chan struct{})
	brokerage.EXPECT().
		GetAccount("acc1", testCreds).
		DoAndReturn(func(string, domain.BrokerageCredentials) (*domain.Account, error) {
			<-release
			return nil, fmt.Errorf("upstream 500")
		}).
		Times(1)

	go func() {
		_, _ = b.Request(context.Background(), "user1", "acc1", RequestTypeAccount, testCreds)
	}()
	for b.Stats().PendingBatches == 0 {
		time.Sleep(time.Millisecond)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Request(context.Background(), "user1", "acc1", RequestTypeAccount, testCreds)
		errCh <- err
	}()
	for b.Stats().TotalPendingRequests < 2 {
		time.Sleep(time.Millisecond)
	}
	close(release)

	require.ErrorContains(t, <-errCh, "upstream 500")
}

func TestBatcher_FetchAccountData(t *testing.T) {
	t.Run("partial failure isolation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
		b := NewBatcher(brokerage)

		brokerage.EXPECT().
			GetAccount("acc1", testCreds).
			Return(nil, fmt.Errorf("account endpoint down"))
		brokerage.EXPECT().
			GetPositions("acc1", testCreds).
			Return([]domain.Position{{Symbol: "AAPL", Quantity: 10, CurrentPrice: 100, PnL: 50}}, nil)
		brokerage.EXPECT().
			GetOpenOrders("acc1", testCreds).
			Return([]domain.Order{{OrderID: "o1", Symbol: "AAPL"}}, nil)

		data, err := b.FetchAccountData(context.Background(), "user1", "acc1", testCreds, true)
		require.NoError(t, err)
		require.Nil(t, data.Account)
		require.Len(t, data.Portfolio, 1)
		require.Len(t, data.Orders, 1)
		require.Equal(t, 1, data.Stats.ActivePositions)
		require.Equal(t, 1000.0, data.Stats.TotalValue)
	})

	t.Run("orders skipped when not requested", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
		b := NewBatcher(brokerage)

		brokerage.EXPECT().
			GetAccount("acc1", testCreds).
			Return(&domain.Account{AccountID: "acc1", Cash: 500, Currency: "USD"}, nil)
		brokerage.EXPECT().
			GetPositions("acc1", testCreds).
			Return([]domain.Position{}, nil)

		data, err := b.FetchAccountData(context.Background(), "user1", "acc1", testCreds, false)
		require.NoError(t, err)
		require.NotNil(t, data.Account)
		require.Nil(t, data.Orders)
		require.Equal(t, domain.PortfolioStats{}, data.Stats)
	})

	t.Run("errors when nothing usable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
		b := NewBatcher(brokerage)

		brokerage.EXPECT().
			GetAccount("acc1", testCreds).
			Return(nil, fmt.Errorf("account endpoint down"))
		brokerage.EXPECT().
			GetPositions("acc1", testCreds).
			Return(nil, fmt.Errorf("portfolio endpoint down"))

		_, err := b.FetchAccountData(context.Background(), "user1", "acc1", testCreds, false)
		require.ErrorContains(t, err, "failed to fetch account acc1")
	})
}

func TestBatcher_FetchMultiAccountData(t *testing.T) {
	ctrl := gomock.NewController(t)
	brokerage := mock_repository.NewMockBrokerageRepository(ctrl)
	b := NewBatcher(brokerage)

	brokerage.EXPECT().
		GetAccount("good", testCreds).
		Return(&domain.Account{AccountID: "good"}, nil)
	brokerage.EXPECT().
		GetPositions("good", testCreds).
		Return([]domain.Position{{Symbol: "AAPL", Quantity: 1, CurrentPrice: 10}}, nil)

	brokerage.EXPECT().
		GetAccount("bad", testCreds).
		Return(nil, fmt.Errorf("boom"))
	brokerage.EXPECT().
		GetPositions("bad", testCreds).
		Return(nil, fmt.Errorf("boom"))

	results := b.FetchMultiAccountData(context.Background(), "user1", []domain.AccountRequest{
		{AccountID: "good", Credentials: testCreds},
		{AccountID: "bad", Credentials: testCreds},
	}, false)

	require.Len(t, results, 2)

	// input order preserved
	require.Equal(t, "good", results[0].AccountID)
	require.NotNil(t, results[0].Data)
	require.Empty(t, results[0].Error)

	require.Equal(t, "bad", results[1].AccountID)
	require.Nil(t, results[1].Data)
	require.NotEmpty(t, results[1].Error)
}
