package cmd

import (
	"fmt"

	"tradedash/api"
	"tradedash/internal"
	"tradedash/internal/batch"
	"tradedash/internal/cache"
	"tradedash/internal/logger"
	"tradedash/internal/ratelimit"
	"tradedash/internal/repository"
	"tradedash/internal/service"
)

// InitializeDependencies constructs the process-wide singletons (cache,
// rate limiter, batcher) exactly once and injects them by reference into
// every service, so invalidation and admission control are shared by all
// routes.
func InitializeDependencies() (*api.ApiHandler, error) {
	secrets, err := internal.LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	log := logger.New()

	cacheStore := cache.NewDefaultStore(log)
	limiter := ratelimit.NewDefaultLimiter()

	brokerageRepository := repository.NewBrokerageRepository()
	batcher := batch.NewBatcher(brokerageRepository)

	var llmRepository repository.LLMRepository
	if secrets.ChatGPTApiKey != "" {
		llmRepository, err = repository.NewLLMRepository(secrets.ChatGPTApiKey)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("no gpt api key configured - analysis will use the rule-based classifier only")
	}
	marketDataRepository := repository.NewMarketDataRepository()

	accountDataService := service.NewAccountDataService(cacheStore, batcher, limiter)
	analysisService := service.NewAnalysisService(llmRepository, marketDataRepository, cacheStore)

	return &api.ApiHandler{
		AccountDataService: accountDataService,
		AnalysisService:    analysisService,
	}, nil
}

func ServerPort() (int, error) {
	secrets, err := internal.LoadSecrets()
	if err != nil {
		return 0, err
	}
	return secrets.ServerPort, nil
}
