package flags

import (
	"github.com/spf13/pflag"
)

// AIFlags configures the generation and embedding model clients.
type AIFlags struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
}

func NewAIFlags() *AIFlags {
	return &AIFlags{
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
	}
}

func (f *AIFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.BaseURL, "ai-base-url", f.BaseURL, "Base URL of the OpenAI-compatible API endpoint (empty for the default)")
	fs.StringVar(&f.Model, "ai-model", f.Model, "Model to use for chat generation")
	fs.StringVar(&f.EmbeddingModel, "ai-embedding-model", f.EmbeddingModel, "Model to use for text embeddings")
}
