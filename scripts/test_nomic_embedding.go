//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
)

// Quick check that a local Ollama instance serves embeddings for the
// configured model. Run with: go run scripts/test_nomic_embedding.go
func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("OLLAMA_EMBEDDING_MODEL")
	if model == "" {
		model = "nomic-embed-text"
	}

	fmt.Printf("Testing Ollama embeddings at %s (model: %s)\n\n", baseURL, model)

	provider := embedding.NewOllamaProvider(baseURL, model)

	texts := []string{
		"Quelle est la durée légale de la période d'essai pour un CDI au Maroc ?",
		"ما هي مدة الإشعار القانونية في حالة فصل الأجير؟",
		"Article 16 du Code du travail marocain",
	}

	ctx := context.Background()
	for i, text := range texts {
		start := time.Now()
		vector, err := provider.Generate(ctx, text, embedding.TaskRetrievalQuery)
		if err != nil {
			log.Fatalf("embedding %d failed: %v", i+1, err)
		}
		fmt.Printf("[%d] %q\n", i+1, text)
		fmt.Printf("    dimensions: %d, took: %v\n", len(vector), time.Since(start))
		fmt.Printf("    first values: %.4f %.4f %.4f %.4f\n\n", vector[0], vector[1], vector[2], vector[3])

		if len(vector) != 768 {
			log.Fatalf("expected 768 dimensions, got %d; the chunk table schema will not accept this model", len(vector))
		}
	}

	fmt.Println("✅ All embeddings generated with 768 dimensions")
}
