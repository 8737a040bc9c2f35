//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/joho/godotenv"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding/jina"
)

// Compares how the available embedding providers separate related and
// unrelated legal questions, including the cross-language case (the corpus
// is Arabic, most user questions are French). Run with:
//
//	go run scripts/compare_embeddings.go
func main() {
	_ = godotenv.Load()

	type pair struct {
		label string
		a, b  string
	}

	pairs := []pair{
		{
			label: "same topic, same language (fr)",
			a:     "Quelle est la durée du préavis en cas de licenciement ?",
			b:     "Combien de temps dure le préavis quand un salarié est licencié ?",
		},
		{
			label: "same topic, cross language (fr/ar)",
			a:     "Quelle est la durée du préavis en cas de licenciement ?",
			b:     "ما هي مدة الإشعار في حالة الفصل من العمل؟",
		},
		{
			label: "different topics (fr)",
			a:     "Quelle est la durée du préavis en cas de licenciement ?",
			b:     "Comment immatriculer une société à responsabilité limitée ?",
		},
	}

	providers := map[string]embedding.EmbeddingProvider{}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		providers["gemini"] = embedding.NewGeminiProvider(key)
	}
	if key := os.Getenv("JINA_API_KEY"); key != "" {
		providers["jina"] = jina.NewJinaProvider(key)
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		model := os.Getenv("OLLAMA_EMBEDDING_MODEL")
		if model == "" {
			model = "nomic-embed-text"
		}
		providers["ollama/"+model] = embedding.NewOllamaProvider(baseURL, model)
	}

	if len(providers) == 0 {
		log.Fatal("no provider configured; set GEMINI_API_KEY, JINA_API_KEY or OLLAMA_BASE_URL")
	}

	ctx := context.Background()
	for name, provider := range providers {
		fmt.Printf("=== %s ===\n", name)
		for _, p := range pairs {
			va, err := provider.Generate(ctx, p.a, embedding.TaskRetrievalQuery)
			if err != nil {
				log.Fatalf("%s: %v", name, err)
			}
			vb, err := provider.Generate(ctx, p.b, embedding.TaskRetrievalQuery)
			if err != nil {
				log.Fatalf("%s: %v", name, err)
			}
			fmt.Printf("  %-38s cosine = %.4f\n", p.label, cosineSimilarity(va, vb))
		}
		fmt.Println()
	}

	fmt.Println("A usable provider should score the cross-language pair well above the different-topic pair.")
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
