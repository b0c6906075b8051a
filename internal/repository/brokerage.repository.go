package repository

import (
	"fmt"
	"time"

	"tradedash/internal/domain"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

const (
	liveEndpoint  = "https://api.alpaca.markets"
	paperEndpoint = "https://paper-api.alpaca.markets"
)

// BrokerageRepository is the three-operation surface this system needs from
// the brokerage. Every operation signals failure via error so callers can
// isolate per-resource degradation.
type BrokerageRepository interface {
	GetAccount(accountID string, creds domain.BrokerageCredentials) (*domain.Account, error)
	GetPositions(accountID string, creds domain.BrokerageCredentials) ([]domain.Position, error)
	GetOpenOrders(accountID string, creds domain.BrokerageCredentials) ([]domain.Order, error)
}

type brokerageRepositoryHandler struct{}

func NewBrokerageRepository() BrokerageRepository {
	return brokerageRepositoryHandler{}
}

// client builds an alpaca client for one credential set. Practice accounts
// hit the paper endpoint.
func (h brokerageRepositoryHandler) client(creds domain.BrokerageCredentials) *alpaca.Client {
	endpoint := liveEndpoint
	if creds.IsPractice {
		endpoint = paperEndpoint
	}
	return alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    creds.APIKey,
		APISecret: creds.APISecret,
		BaseURL:   endpoint,
	})
}

func (h brokerageRepositoryHandler) GetAccount(accountID string, creds domain.BrokerageCredentials) (*domain.Account, error) {
	acct, err := h.client(creds).GetAccount()
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}

	return &domain.Account{
		AccountID: accountID,
		Cash:      acct.Cash.InexactFloat64(),
		Currency:  acct.Currency,
	}, nil
}

func (h brokerageRepositoryHandler) GetPositions(accountID string, creds domain.BrokerageCredentials) ([]domain.Position, error) {
	positions, err := h.client(creds).GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to get positions for %s: %w", accountID, err)
	}

	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, domain.Position{
			Symbol:       p.Symbol,
			Quantity:     p.Qty.InexactFloat64(),
			AveragePrice: p.AvgEntryPrice.InexactFloat64(),
			CurrentPrice: decimalPtrToFloat(p.CurrentPrice),
			PnL:          decimalPtrToFloat(p.UnrealizedPL),
			PnLPercent:   decimalPtrToFloat(p.UnrealizedPLPC) * 100,
			MarketValue:  decimalPtrToFloat(p.MarketValue),
			IntradayPnL:  decimalPtrToFloat(p.UnrealizedIntradayPL),
		})
	}

	return out, nil
}

func (h brokerageRepositoryHandler) GetOpenOrders(accountID string, creds domain.BrokerageCredentials) ([]domain.Order, error) {
	orders, err := h.client(creds).GetOrders(alpaca.GetOrdersRequest{
		Status: "open",
		Until:  time.Now(),
		Limit:  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get open orders for %s: %w", accountID, err)
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		order := domain.Order{
			OrderID:   o.ID,
			Symbol:    o.Symbol,
			Side:      string(o.Side),
			Quantity:  decimalPtrToFloat(o.Qty),
			CreatedAt: o.CreatedAt,
		}
		if o.LimitPrice != nil {
			limit := o.LimitPrice.InexactFloat64()
			order.LimitPrice = &limit
		}
		out = append(out, order)
	}

	return out, nil
}

func decimalPtrToFloat(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}
