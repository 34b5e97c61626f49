package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"

	"github.com/nyaysahay/nyaysahay/pkg/db/models"
)

// Turn is one role-tagged entry in the prompt passed to the generation model.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type LLMClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

func NewLLMClient(url, model, embeddingModel string) *LLMClient {
	options := []option.RequestOption{}
	if url != "" {
		options = append(options, option.WithBaseURL(url))
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Info("OPENAI_API_KEY environment variable is not set, will try unauthenticated access")
	} else {
		options = append(options, option.WithAPIKey(apiKey))
	}

	client := openai.NewClient(options...)
	return &LLMClient{client: &client, model: model, embeddingModel: embeddingModel}
}

// Generate runs one completion over the assembled turn sequence. The system
// instruction goes first; user turns map to user messages and model turns to
// assistant messages.
func (llm *LLMClient) Generate(ctx context.Context, turns []Turn, systemInstruction string, temperature float64) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	messages = append(messages, openai.SystemMessage(systemInstruction))
	for _, turn := range turns {
		if turn.Role == models.MessageRoleModel {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	resp, err := llm.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       llm.model,
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("client didn't return any content choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Embed converts text to a fixed-length vector (see models.EmbeddingDimensions).
func (llm *LLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := llm.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      llm.embeddingModel,
		Dimensions: openai.Int(models.EmbeddingDimensions),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("client didn't return any embeddings")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}

	return vector, nil
}
