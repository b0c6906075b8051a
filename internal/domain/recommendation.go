package domain

type RecommendationType string

const (
	RecommendationHold     RecommendationType = "HOLD"
	RecommendationExit     RecommendationType = "EXIT"
	RecommendationReduce   RecommendationType = "REDUCE"
	RecommendationIncrease RecommendationType = "INCREASE"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type Timeframe string

const (
	TimeframeShort  Timeframe = "SHORT"
	TimeframeMedium Timeframe = "MEDIUM"
	TimeframeLong   Timeframe = "LONG"
)

type RiskProfile string

const (
	RiskProfileConservative RiskProfile = "CONSERVATIVE"
	RiskProfileBalanced     RiskProfile = "BALANCED"
	RiskProfileAggressive   RiskProfile = "AGGRESSIVE"
)

// Recommendation is one exit-strategy suggestion for one position. CacheKey
// is deterministic over (symbol, risk profile, hour bucket) so identical
// requests within the same bucket resolve from cache.
type Recommendation struct {
	Symbol             string             `json:"symbol"`
	RecommendationType RecommendationType `json:"recommendationType"`
	Confidence         float64            `json:"confidence"`
	Reasoning          string             `json:"reasoning"`
	SuggestedAction    string             `json:"suggestedAction"`
	RiskLevel          RiskLevel          `json:"riskLevel"`
	Timeframe          Timeframe          `json:"timeframe"`
	TargetPrice        *float64           `json:"targetPrice,omitempty"`
	StopLoss           *float64           `json:"stopLoss,omitempty"`
	CacheKey           string             `json:"cacheKey"`
}
