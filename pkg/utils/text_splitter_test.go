package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("المادة الأولى: نص قصير", 1200, 180)
	require.Len(t, chunks, 1)
	assert.Equal(t, "المادة الأولى: نص قصير", chunks[0])
}

func TestSplitTextEmptyInput(t *testing.T) {
	assert.Nil(t, SplitText("", 1200, 180))
	assert.Nil(t, SplitText("   \n\t  ", 1200, 180))
}

func TestSplitTextChunkSizeBound(t *testing.T) {
	text := strings.Repeat("a", 5000)
	chunks := SplitText(text, 1200, 180)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 1200, "chunk %d exceeds the size bound", i)
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 3100)
	chunks := SplitText(text, 1200, 180)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(text, chunks[0]))
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplitTextOverlapRepeatsContext(t *testing.T) {
	// No whitespace, so cuts land exactly at chunkSize and the overlap
	// is byte-predictable.
	text := ""
	for i := 0; i < 500; i++ {
		text += string(rune('a' + i%26))
	}
	chunks := SplitText(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-20:]
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d should start with the previous chunk's overlap", i)
	}
}

func TestSplitTextPrefersNewlineBoundaries(t *testing.T) {
	// Articles of ~90 runes each, newline separated. Cuts should land
	// right after a newline, never inside an article.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(strings.Repeat("م", 89))
		sb.WriteByte('\n')
	}
	chunks := SplitText(sb.String(), 300, 45)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(chunk, "\n"), "chunk %d should end on an article boundary", i)
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	// overlap >= chunkSize must not loop forever.
	text := strings.Repeat("b", 500)
	chunks := SplitText(text, 100, 100)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
	}
}
