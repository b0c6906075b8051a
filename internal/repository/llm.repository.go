package repository

import (
	"context"
	"fmt"

	"github.com/ayush6624/go-chatgpt"
)

// LLMRepository submits one analysis prompt and returns the raw completion
// text plus token usage. Unavailability is signalled via error; the analysis
// service decides how to degrade.
type LLMRepository interface {
	AnalyzePositions(ctx context.Context, prompt string) (string, int, error)
}

type llmRepositoryHandler struct {
	GptClient *chatgpt.Client
}

func NewLLMRepository(apiKey string) (LLMRepository, error) {
	client, err := chatgpt.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to construct gpt client: %w", err)
	}

	return llmRepositoryHandler{
		GptClient: client,
	}, nil
}

const systemPrompt = `You are an exit-strategy analyst for a personal trading dashboard. For every position in the request, respond with a JSON array (and nothing else) of objects shaped as:
{"symbol": string, "recommendationType": "HOLD"|"EXIT"|"REDUCE"|"INCREASE", "confidence": number between 0 and 1, "reasoning": string, "suggestedAction": string, "riskLevel": "LOW"|"MEDIUM"|"HIGH", "timeframe": "SHORT"|"MEDIUM"|"LONG", "targetPrice": number|null, "stopLoss": number|null}
Base your judgement on the position's unrealized P&L, its distance from the 52-week range, and the stated risk profile. Output one object per requested symbol.`

func (h llmRepositoryHandler) AnalyzePositions(ctx context.Context, prompt string) (string, int, error) {
	res, err := h.GptClient.Send(ctx, &chatgpt.ChatCompletionRequest{
		Model: chatgpt.GPT35Turbo,
		Messages: []chatgpt.ChatMessage{
			{
				Role:    chatgpt.ChatGPTModelRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    chatgpt.ChatGPTModelRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to get completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", 0, fmt.Errorf("completion returned no choices")
	}

	return res.Choices[0].Message.Content, res.Usage.Total_Tokens, nil
}
