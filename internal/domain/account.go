package domain

import (
	"time"
)

// BrokerageCredentials identify one linked brokerage account. IsPractice
// selects the paper-trading endpoint instead of the live one.
type BrokerageCredentials struct {
	APIKey     string `json:"apiKey"`
	APISecret  string `json:"apiSecret"`
	IsPractice bool   `json:"isPractice"`
}

// Position is a single open position as reported by the brokerage.
// Numeric fields default to zero when the upstream payload omits them.
type Position struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	AveragePrice     float64 `json:"averagePrice"`
	CurrentPrice     float64 `json:"currentPrice"`
	PnL              float64 `json:"pnl"`
	PnLPercent       float64 `json:"pnlPercent"`
	MarketValue      float64 `json:"marketValue"`
	IntradayPnL      float64 `json:"intradayPnl"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow,omitempty"`
}

type Account struct {
	AccountID string  `json:"accountId"`
	Cash      float64 `json:"cash"`
	Currency  string  `json:"currency"`
}

type Order struct {
	OrderID    string    `json:"orderId"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	LimitPrice *float64  `json:"limitPrice,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PortfolioStats are derived from a position list. TotalPnLPercent measures
// return against cost basis (value minus pnl), not current market value.
type PortfolioStats struct {
	ActivePositions int     `json:"activePositions"`
	TotalPnL        float64 `json:"totalPnL"`
	TotalPnLPercent float64 `json:"totalPnLPercent"`
	TotalValue      float64 `json:"totalValue"`
	TodayPnL        float64 `json:"todayPnL"`
	TodayPnLPercent float64 `json:"todayPnLPercent"`
}

// AccountData is the raw multi-resource fetch result for one account.
// A failed account call leaves Account nil; failed portfolio/orders calls
// leave empty slices. Stats are always computed from whatever portfolio
// data survived.
type AccountData struct {
	Account   *Account       `json:"account"`
	Portfolio []Position     `json:"portfolio"`
	Orders    []Order        `json:"orders,omitempty"`
	Stats     PortfolioStats `json:"stats"`
}

// AccountSummary is the caller-facing view of one account.
type AccountSummary struct {
	AccountID   string         `json:"accountId"`
	Account     *Account       `json:"account"`
	Positions   []Position     `json:"positions"`
	Orders      []Order        `json:"orders,omitempty"`
	Stats       PortfolioStats `json:"stats"`
	CacheHit    bool           `json:"cacheHit"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Error       string         `json:"error,omitempty"`
}

type PortfolioSummary struct {
	AccountID   string         `json:"accountId"`
	Positions   []Position     `json:"positions"`
	Stats       PortfolioStats `json:"stats"`
	CacheHit    bool           `json:"cacheHit"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// AccountRequest names one account in a multi-account operation.
type AccountRequest struct {
	AccountID   string               `json:"accountId"`
	Credentials BrokerageCredentials `json:"credentials"`
}

// MultiAccountResult carries either Data or Error for one account of a
// fan-out, never neither.
type MultiAccountResult struct {
	AccountID string       `json:"accountId"`
	Data      *AccountData `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	CacheHit  bool         `json:"cacheHit"`
}

// AggregatedStats sums account totals across every error-free account.
type AggregatedStats struct {
	ActivePositions   int     `json:"activePositions"`
	TotalPnL          float64 `json:"totalPnL"`
	TotalPnLPercent   float64 `json:"totalPnLPercent"`
	TotalValue        float64 `json:"totalValue"`
	TodayPnL          float64 `json:"todayPnL"`
	TodayPnLPercent   float64 `json:"todayPnLPercent"`
	ConnectedAccounts int     `json:"connectedAccounts"`
}

// MarketQuote is the slice of market data the analysis pipeline needs.
type MarketQuote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow"`
}
