package store

// Document is a retrieved knowledge-base fragment as the RAG layer sees it:
// one legal chunk plus the similarity score of the query that found it.
type Document struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	SourceFile   string  `json:"source_file"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory"`
	DocumentName string  `json:"document_name"`
	DocumentType string  `json:"document_type"`
	Score        float64 `json:"score"`
}

// CategoryPath renders "category > subcategory", omitting empty segments.
func (d Document) CategoryPath() string {
	if d.Category == "" {
		return d.Subcategory
	}
	if d.Subcategory == "" {
		return d.Category
	}
	return d.Category + " > " + d.Subcategory
}

// DedupByID keeps the first occurrence of each document id, preserving order.
func DedupByID(docs []Document) []Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}
