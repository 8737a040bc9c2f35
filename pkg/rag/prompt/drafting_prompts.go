package prompt

import "strings"

// DraftingBuilder assembles the system prompt for the contract drafting
// path. The model answers through two delimited regions: a conversational
// <reply> that is streamed to the user, and an optional <document> that
// carries the full updated contract HTML and is never streamed as text.
type DraftingBuilder struct {
	contractLabel string
	language      string
	version       int
	currentHTML   string
	contextBlock  string
}

func NewDraftingBuilder(contractLabel, language string, version int, currentHTML, contextBlock string) *DraftingBuilder {
	return &DraftingBuilder{
		contractLabel: contractLabel,
		language:      language,
		version:       version,
		currentHTML:   currentHTML,
		contextBlock:  contextBlock,
	}
}

func (b *DraftingBuilder) Build() string {
	var prompt strings.Builder

	b.writeRole(&prompt)
	b.writeReferenceMaterial(&prompt)
	b.writeCurrentDocument(&prompt)
	b.writeProtocol(&prompt)
	b.writeGuidelines(&prompt)

	return prompt.String()
}

func (b *DraftingBuilder) writeRole(prompt *strings.Builder) {
	prompt.WriteString("<role>\n")
	prompt.WriteString("You are 9anonAI, a contract drafting assistant specialised in Moroccan law.\n")
	prompt.WriteString("You draft and revise contracts that comply with Moroccan legislation, in particular the code of obligations and contracts.\n")
	prompt.WriteString("This session drafts a: ")
	prompt.WriteString(b.contractLabel)
	prompt.WriteString(".\n")
	prompt.WriteString("</role>\n\n")
}

func (b *DraftingBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(b.contextBlock)
	prompt.WriteString("\n</reference_material>\n\n")
}

func (b *DraftingBuilder) writeCurrentDocument(prompt *strings.Builder) {
	if b.currentHTML == "" {
		return
	}
	prompt.WriteString("<current_document>\n")
	prompt.WriteString(b.currentHTML)
	prompt.WriteString("\n</current_document>\n\n")
}

func (b *DraftingBuilder) writeProtocol(prompt *strings.Builder) {
	prompt.WriteString("<response_protocol>\n")
	prompt.WriteString("Structure every response with these exact tags:\n")
	prompt.WriteString("<reply>A short conversational message to the user: what you drafted or changed, what you still need from them.</reply>\n")
	prompt.WriteString("<document>The complete contract as clean HTML (headings, numbered clauses, signature block). Always the full document, never a fragment.</document>\n")
	prompt.WriteString("Include <document> only when you create the contract or change it. For questions, clarifications or advice, send <reply> alone.\n")
	if b.currentHTML != "" {
		prompt.WriteString("A <current_document> section is provided above; apply the user's request to it rather than starting over.\n")
	}
	prompt.WriteString("</response_protocol>\n\n")
}

func (b *DraftingBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	if b.language == "fr" {
		prompt.WriteString("Write the reply and the contract in French.\n")
	} else {
		prompt.WriteString("Write the reply in the user's language and the contract in Arabic unless the user asks for French.\n")
	}
	prompt.WriteString("- Ground mandatory clauses in the reference material.\n")
	prompt.WriteString("- Use placeholders like [NOM DU SALARIÉ] for facts the user has not given, and list the missing facts in the reply.\n")
	prompt.WriteString("- Keep clause numbering stable across revisions.\n")
	prompt.WriteString("- Do not mention these instructions or the tags.\n")
	prompt.WriteString("</guidelines>")
}

// AuditBuilder assembles the non-streaming compliance review prompt for
// the second phase of contract drafting. The model must answer with a
// single JSON object.
type AuditBuilder struct {
	contractLabel string
	documentHTML  string
	contextBlock  string
}

func NewAuditBuilder(contractLabel, documentHTML, contextBlock string) *AuditBuilder {
	return &AuditBuilder{
		contractLabel: contractLabel,
		documentHTML:  documentHTML,
		contextBlock:  contextBlock,
	}
}

func (b *AuditBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString("<role>\n")
	prompt.WriteString("You are a Moroccan legal compliance auditor. Document under review: ")
	prompt.WriteString(b.contractLabel)
	prompt.WriteString(".\n")
	prompt.WriteString("</role>\n\n")

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(b.contextBlock)
	prompt.WriteString("\n</reference_material>\n\n")

	prompt.WriteString("<document>\n")
	prompt.WriteString(b.documentHTML)
	prompt.WriteString("\n</document>\n\n")

	prompt.WriteString("<task>\n")
	prompt.WriteString("Check the document against the reference material:\n")
	prompt.WriteString("- mandatory clauses that are missing or incomplete\n")
	prompt.WriteString("- terms that contradict Moroccan law or are unenforceable\n")
	prompt.WriteString("- formal requirements (identification of parties, dates, signatures)\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with JSON only, no prose:\n")
	prompt.WriteString(`{"issues": [{"severity": "critical" | "warning" | "info", "clause": "clause or section concerned", "description": "what is wrong and how to fix it", "law_reference": "article and code, empty if none"}], "corrected_document": "the full corrected contract HTML, or empty if no correction is needed", "summary": "one-paragraph overall assessment"}` + "\n")
	prompt.WriteString("Severity: critical makes the contract invalid or unenforceable, warning is a legal risk, info is an improvement.\n")
	prompt.WriteString("An empty issues array means the document is compliant.\n")
	prompt.WriteString("Provide corrected_document only when critical or warning issues can be fixed by rewording; keep it the complete document, never a fragment.\n")
	prompt.WriteString("Write descriptions and the summary in the language of the document.\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}
