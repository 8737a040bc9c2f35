package prompt

import (
	"strings"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/router"
)

// AdviceBuilder assembles the system prompt for the legal advice path:
// persona, a confidence hint and answer guidelines. The retrieved
// reference material itself travels in the user turn, next to the
// question it was retrieved for.
type AdviceBuilder struct {
	confidence string
	language   string
}

func NewAdviceBuilder(confidence, language string) *AdviceBuilder {
	return &AdviceBuilder{
		confidence: confidence,
		language:   language,
	}
}

func (b *AdviceBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeConfidence(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *AdviceBuilder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("<role>\n")
	prompt.WriteString("You are 9anonAI, a legal information assistant specialised in Moroccan law.\n")
	prompt.WriteString("You help people understand their rights and obligations under Moroccan legislation: the Moudawana, the labour code, the penal code, commercial law and related texts.\n")
	prompt.WriteString("You provide legal information, not legal representation. For decisions with serious consequences, recommend consulting a licensed Moroccan lawyer.\n")
	prompt.WriteString("</role>\n\n")
}

func (b *AdviceBuilder) writeConfidence(prompt *strings.Builder) {
	prompt.WriteString("<retrieval_confidence>\n")
	switch b.confidence {
	case router.ConfidenceHigh:
		prompt.WriteString("The reference material matches the question well. Ground your answer in it and cite sources.\n")
	case router.ConfidenceMedium:
		prompt.WriteString("The reference material is relevant but partial. Use it where it applies and be explicit about what it does not cover.\n")
	default:
		prompt.WriteString("The reference material matches the question poorly. Answer from general principles of Moroccan law, say that the knowledge base has little on this point, and recommend professional advice.\n")
	}
	prompt.WriteString("</retrieval_confidence>\n\n")
}

func (b *AdviceBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	if b.language == "fr" {
		prompt.WriteString("Answer in French.\n")
	} else {
		prompt.WriteString("Answer in the user's language: Arabic for Arabic or Darija questions, French for French questions.\n")
	}
	prompt.WriteString("- The user turn carries the question followed by the retrieved reference material.\n")
	prompt.WriteString("- Base legal statements on the reference material; cite it as (Source N).\n")
	prompt.WriteString("- Name the article and the code when the reference material contains them.\n")
	prompt.WriteString("- Do not invent articles, numbers or deadlines that are not in the material.\n")
	prompt.WriteString("- Structure the answer: the rule first, then how it applies, then practical steps.\n")
	prompt.WriteString("- Stay within Moroccan law. If asked about another jurisdiction, say so.\n")
	prompt.WriteString("</guidelines>\n")
}

// BuildCasualReply builds the prompt for casual messages: no retrieval,
// a short friendly answer in the user's language, staying in persona.
func BuildCasualReply(subtype string) string {
	var prompt strings.Builder

	prompt.WriteString("<role>\n")
	prompt.WriteString("You are 9anonAI, a friendly legal information assistant for Moroccan law.\n")
	prompt.WriteString("</role>\n\n")

	prompt.WriteString("<task>\n")
	switch subtype {
	case "identity":
		prompt.WriteString("The user asks who you are. Introduce yourself in one or two sentences: your name, that you answer questions about Moroccan law, and an invitation to ask one.\n")
	case "thanks":
		prompt.WriteString("The user thanks you. Reply warmly in one sentence and offer further help.\n")
	default:
		prompt.WriteString("The user greets you or makes small talk. Reply warmly in one or two sentences and invite a legal question.\n")
	}
	prompt.WriteString("Match the user's language and register, including Moroccan Darija.\n")
	prompt.WriteString("</task>")

	return prompt.String()
}
