package internal

import (
	"encoding/json"
	"fmt"
	"os"
)

type Secrets struct {
	ChatGPTApiKey string `json:"gpt"`
	ServerPort    int    `json:"serverPort"`
}

func LoadSecrets() (*Secrets, error) {
	secretsFile := "/go/src/app/secrets.json"
	if os.Getenv("TRADEDASH_ENV") == "dev" {
		secretsFile = "secrets-dev.json"
	} else if os.Getenv("TRADEDASH_ENV") == "test" {
		secretsFile = "secrets-test.json"
	}
	f, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("could not open secrets.json: %w", err)
	}

	secrets := Secrets{}
	err = json.Unmarshal(f, &secrets)
	if err != nil {
		return nil, err
	}

	if secrets.ServerPort == 0 {
		secrets.ServerPort = 3009
	}

	return &secrets, nil
}
