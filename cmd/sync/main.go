package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"tradedash/internal/batch"
	"tradedash/internal/cache"
	"tradedash/internal/domain"
	"tradedash/internal/logger"
	"tradedash/internal/ratelimit"
	"tradedash/internal/repository"
	"tradedash/internal/service"

	"github.com/joho/godotenv"
)

// syncConfig is the one-shot runner's input: which user and which linked
// accounts to warm.
type syncConfig struct {
	UserID   string                  `json:"userId"`
	Accounts []domain.AccountRequest `json:"accounts"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	configPath := flag.String("config", "sync.json", "path to sync config")
	flag.Parse()

	f, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	var config syncConfig
	if err := json.Unmarshal(f, &config); err != nil {
		log.Fatal(err)
	}

	// the runner is short-lived, so it builds its own singletons rather
	// than going through the api handler
	logr := logger.New()

	svc := service.NewAccountDataService(
		cache.NewDefaultStore(logr),
		batch.NewBatcher(repository.NewBrokerageRepository()),
		ratelimit.NewDefaultLimiter(),
	)

	ctx := context.WithValue(context.Background(), logger.ContextKey, logr)
	svc.BackgroundSync(ctx, config.UserID, config.Accounts)
}
