package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedChunks pushes text through a fresh extractor in fixed-size byte
// chunks and returns the extractor plus everything Feed and Finish
// released to the token stream, chunk by chunk.
func feedChunks(text string, size int) (*extractor, []string) {
	e := newExtractor()
	var outputs []string
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		if out := e.Feed(text[start:end]); out != "" {
			outputs = append(outputs, out)
		}
	}
	if tail := e.Finish(); tail != "" {
		outputs = append(outputs, tail)
	}
	return e, outputs
}

func TestExtractorSplitsReplyAndDocument(t *testing.T) {
	response := "Préambule ignoré <reply>Voici la première version du contrat.</reply>\n" +
		"<document><h1>CONTRAT DE TRAVAIL</h1><p>Article 1 : engagement.</p></document> fin"

	e, outputs := feedChunks(response, 7)

	assert.Equal(t, "Voici la première version du contrat.", strings.Join(outputs, ""))
	assert.Equal(t, "Voici la première version du contrat.", e.Reply())

	doc, ok := e.Document()
	require.True(t, ok)
	assert.Equal(t, "<h1>CONTRAT DE TRAVAIL</h1><p>Article 1 : engagement.</p>", doc)
	assert.True(t, e.TagsSeen())
}

func TestExtractorNeverLeaksDocumentBytesUnderAnyChunking(t *testing.T) {
	response := "<reply>Le document est prêt.</reply><document><h1>BAIL</h1><p>Le bailleur loue au preneur...</p></document>"

	for size := 1; size <= len(response); size++ {
		t.Run(fmt.Sprintf("chunk_%d", size), func(t *testing.T) {
			e, outputs := feedChunks(response, size)

			for _, out := range outputs {
				assert.NotContains(t, out, "BAIL")
				assert.NotContains(t, out, "bailleur")
				assert.NotContains(t, out, "<document>")
			}
			assert.Equal(t, "Le document est prêt.", strings.Join(outputs, ""))

			doc, ok := e.Document()
			require.True(t, ok)
			assert.Equal(t, "<h1>BAIL</h1><p>Le bailleur loue au preneur...</p>", doc)
		})
	}
}

func TestExtractorNoTagsStreamsNothing(t *testing.T) {
	response := "Je peux vous aider à rédiger un contrat. Quel type de contrat souhaitez-vous ?"

	e, outputs := feedChunks(response, 5)

	assert.Empty(t, outputs)
	assert.False(t, e.TagsSeen())
	assert.Equal(t, response, e.Raw())
	_, ok := e.Document()
	assert.False(t, ok)
}

func TestExtractorReplyOnly(t *testing.T) {
	response := "<reply>Il me faut d'abord le nom des parties.</reply>"

	e, outputs := feedChunks(response, 3)

	assert.Equal(t, "Il me faut d'abord le nom des parties.", strings.Join(outputs, ""))
	_, ok := e.Document()
	assert.False(t, ok)
	assert.True(t, e.TagsSeen())
}

func TestExtractorUnterminatedReplyFlushesOnFinish(t *testing.T) {
	e := newExtractor()

	out := e.Feed("<reply>Réponse sans fermeture<")
	tail := e.Finish()

	assert.Equal(t, "Réponse sans fermeture", out)
	assert.Equal(t, "<", tail)
	assert.Equal(t, "Réponse sans fermeture<", e.Reply())
}

func TestExtractorUnterminatedDocumentStillCounts(t *testing.T) {
	e := newExtractor()

	e.Feed("<reply>ok</reply><document><p>clause unique</p>")
	e.Finish()

	doc, ok := e.Document()
	assert.True(t, ok)
	assert.Equal(t, "<p>clause unique</p>", doc)
}

func TestExtractorDocumentFirstThenReply(t *testing.T) {
	response := "<document><p>texte</p></document><reply>Et voici le résumé.</reply>"

	e, outputs := feedChunks(response, 4)

	assert.Equal(t, "Et voici le résumé.", strings.Join(outputs, ""))
	doc, ok := e.Document()
	assert.True(t, ok)
	assert.Equal(t, "<p>texte</p>", doc)
}

func TestExtractorEmptyDocumentRegionDoesNotCount(t *testing.T) {
	e := newExtractor()

	e.Feed("<reply>Rien à documenter.</reply><document>  </document>")
	e.Finish()

	_, ok := e.Document()
	assert.False(t, ok)
}

func TestExtractorAngleBracketsInsideReplySurvive(t *testing.T) {
	response := "<reply>La durée doit être < 12 mois selon l'article 16.</reply>"

	_, outputs := feedChunks(response, 2)

	assert.Equal(t, "La durée doit être < 12 mois selon l'article 16.", strings.Join(outputs, ""))
}
