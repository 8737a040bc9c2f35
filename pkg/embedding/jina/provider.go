package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
)

// JinaProvider targets jina-embeddings-v3, which is multilingual and
// handles the Arabic/French mix of Moroccan legal text well.
type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Task  string   `json:"task,omitempty"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   "jina-embeddings-v3",
	}
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	vectors, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embeddings from jina api")
	}
	return vectors[0], nil
}

func (p *JinaProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody := embeddingRequest{
		Model: p.model,
		Task:  mapTask(taskType),
		Input: texts,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}

	if len(jinaResp.Data) != len(texts) {
		return nil, fmt.Errorf("jina returned %d embeddings for %d inputs", len(jinaResp.Data), len(texts))
	}

	vectors := make([][]float32, len(jinaResp.Data))
	for _, item := range jinaResp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("jina returned out-of-range index %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// mapTask translates our Gemini-style task hints to Jina v3 task names.
func mapTask(taskType string) string {
	switch taskType {
	case embedding.TaskRetrievalQuery:
		return "retrieval.query"
	case embedding.TaskRetrievalDocument:
		return "retrieval.passage"
	default:
		return ""
	}
}
