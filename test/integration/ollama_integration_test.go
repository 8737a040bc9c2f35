package integration

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
	llmollama "github.com/berserker-glitch/9anonai-be-sub000/pkg/llm/ollama"
)

// These tests exercise a local Ollama instance end to end through the
// same providers the server uses. They are skipped unless
// OLLAMA_BASE_URL is set, so CI without a model server stays green.

func ollamaEnv(t *testing.T) (baseURL, chatModel, embedModel string) {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	baseURL = os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	chatModel = os.Getenv("OLLAMA_MODEL")
	if chatModel == "" {
		chatModel = "qwen2.5:3b"
	}
	embedModel = os.Getenv("OLLAMA_EMBED_MODEL")
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	return baseURL, chatModel, embedModel
}

func TestOllamaChat(t *testing.T) {
	baseURL, chatModel, _ := ollamaEnv(t)
	provider := llmollama.NewOllamaProvider(baseURL, chatModel)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	history := []llm.Message{
		{Role: "user", Content: "Reply with exactly the word: pong"},
	}
	res, err := provider.Chat(ctx, history, llm.WithTemperature(0.0))
	require.NoError(t, err)
	assert.NotEmpty(t, res)
	t.Logf("chat response: %s", res)
}

func TestOllamaChatStream(t *testing.T) {
	baseURL, chatModel, _ := ollamaEnv(t)
	provider := llmollama.NewOllamaProvider(baseURL, chatModel)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	var sb strings.Builder
	deltas := 0
	err := provider.ChatStream(ctx, []llm.Message{
		{Role: "user", Content: "Count from 1 to 5, digits only."},
	}, func(delta string) error {
		deltas++
		sb.WriteString(delta)
		return nil
	}, llm.WithTemperature(0.0))

	require.NoError(t, err)
	assert.Greater(t, deltas, 1, "streaming should deliver more than one delta")
	assert.NotEmpty(t, sb.String())
	t.Logf("streamed %d deltas: %s", deltas, sb.String())
}

func TestOllamaEmbedding(t *testing.T) {
	baseURL, _, embedModel := ollamaEnv(t)
	provider := embedding.NewOllamaProvider(baseURL, embedModel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	vec, err := provider.Generate(ctx, "ما هي مدة الإشعار القانونية لإنهاء عقد الشغل؟", embedding.TaskRetrievalQuery)
	require.NoError(t, err)
	assert.NotEmpty(t, vec)

	batch, err := provider.GenerateBatch(ctx, []string{
		"مدونة الشغل تحدد مدة الإشعار",
		"عقد الكراء يخضع لقانون الالتزامات والعقود",
	}, embedding.TaskRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, len(vec), len(batch[0]), "query and document vectors should share a dimension")
}
