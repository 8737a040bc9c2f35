package embedding

import "context"

// Task type hints forwarded to providers that distinguish query and
// document embeddings (Gemini, Jina). Providers that don't simply ignore them.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}
