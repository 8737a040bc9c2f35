package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type GeminiProvider struct {
	ApiKey string
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		ApiKey: apiKey,
	}
}

// Gemini text-embedding-004 wire structures
type geminiContentPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiContentPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbeddingValues struct {
	Values []float32 `json:"values"`
}

type geminiEmbedResponse struct {
	Embedding geminiEmbeddingValues `json:"embedding"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiEmbeddingValues `json:"embeddings"`
}

const geminiEmbedModel = "text-embedding-004"

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	geminiReq := geminiEmbedRequest{
		Model: "models/" + geminiEmbedModel,
		Content: geminiContent{
			Parts: []geminiContentPart{{Text: text}},
		},
		TaskType: taskType,
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		geminiEmbedModel,
	)

	body, err := p.post(ctx, endpoint, geminiReq)
	if err != nil {
		return nil, err
	}

	var resEmbedding geminiEmbedResponse
	if err := json.Unmarshal(body, &resEmbedding); err != nil {
		return nil, err
	}

	return resEmbedding.Embedding.Values, nil
}

func (p *GeminiProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batchReq := geminiBatchEmbedRequest{
		Requests: make([]geminiEmbedRequest, 0, len(texts)),
	}
	for _, text := range texts {
		batchReq.Requests = append(batchReq.Requests, geminiEmbedRequest{
			Model: "models/" + geminiEmbedModel,
			Content: geminiContent{
				Parts: []geminiContentPart{{Text: text}},
			},
			TaskType: taskType,
		})
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:batchEmbedContents",
		geminiEmbedModel,
	)

	body, err := p.post(ctx, endpoint, batchReq)
	if err != nil {
		return nil, err
	}

	var batchRes geminiBatchEmbedResponse
	if err := json.Unmarshal(body, &batchRes); err != nil {
		return nil, err
	}
	if len(batchRes.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(batchRes.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(batchRes.Embeddings))
	for i, emb := range batchRes.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (p *GeminiProvider) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	reqJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(reqJson))
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	return resByte, nil
}
