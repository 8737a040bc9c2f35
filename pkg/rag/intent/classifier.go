package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/llm"
)

// Classifier decides whether a message is casual chat or a legal
// question, and for legal questions which domain of Moroccan law it
// belongs to. Classification never fails: pattern matching handles the
// trivial cases, the LLM handles the rest, and any LLM or parse error
// degrades to a simple legal intent so the question still gets answered.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewClassifier(llmProvider llm.LLMProvider, logger *log.Logger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Classify returns a non-nil intent for query.
func (c *Classifier) Classify(ctx context.Context, query string) *Intent {
	if it, ok := QuickMatch(query); ok {
		return it
	}

	response, err := c.llmProvider.Generate(ctx, c.buildPrompt(query), llm.WithTemperature(0.0))
	if err != nil {
		c.logger.Printf("intent: classification call failed, using fallback: %v", err)
		return fallbackIntent()
	}

	it, err := parseIntent(response)
	if err != nil {
		c.logger.Printf("intent: unparseable classification %q, using fallback: %v", response, err)
		return fallbackIntent()
	}
	return it
}

func (c *Classifier) buildPrompt(query string) string {
	var b strings.Builder

	b.WriteString("<system>\n")
	b.WriteString("You classify messages sent to a Moroccan legal assistant.\n")
	b.WriteString("Messages may be in Arabic, Moroccan Darija (Arabic or Latin script), French or English.\n")
	b.WriteString("Decide whether the message is casual conversation or a legal question.\n")
	b.WriteString("</system>\n\n")

	b.WriteString("<user_query>\n")
	b.WriteString(query)
	b.WriteString("\n</user_query>\n\n")

	b.WriteString("<output_format>\n")
	b.WriteString("Respond with JSON only, no prose:\n")
	b.WriteString(`{"type": "casual" | "legal", "subtype": "greeting" | "identity" | "thanks" | "smalltalk", "domain": "family" | "labor" | "criminal" | "commercial" | "realestate" | "tax" | "consumer" | "administrative" | "other", "complexity": "simple" | "complex"}` + "\n")
	b.WriteString("Rules:\n")
	b.WriteString("- subtype only when type is casual; domain and complexity only when type is legal.\n")
	b.WriteString("- domain: family covers marriage, divorce, custody, inheritance (Moudawana). labor covers employment. criminal covers offences and penalties. commercial covers companies and trade. realestate covers property and leases. tax covers taxation. consumer covers consumer protection. administrative covers dealings with the administration. Anything else is other.\n")
	b.WriteString("- complexity is complex when the question involves multiple issues, procedures with several steps, or conflicting parties; otherwise simple.\n")
	b.WriteString("- When in doubt between casual and legal, choose legal.\n")
	b.WriteString("</output_format>")

	return b.String()
}

func parseIntent(response string) (*Intent, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var it Intent
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		return nil, fmt.Errorf("unmarshal intent: %w", err)
	}
	it.Type = strings.ToLower(strings.TrimSpace(it.Type))
	it.Subtype = strings.ToLower(strings.TrimSpace(it.Subtype))
	it.Domain = strings.ToLower(strings.TrimSpace(it.Domain))
	it.Complexity = strings.ToLower(strings.TrimSpace(it.Complexity))
	return normalize(&it), nil
}

// extractJSON pulls the first JSON object out of a model response that
// may wrap it in markdown fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
