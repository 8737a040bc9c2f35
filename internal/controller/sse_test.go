package controller

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/ai/pipeline"
)

func TestStreamEventsFraming(t *testing.T) {
	events := make(chan pipeline.StreamEvent, 3)
	events <- pipeline.StreamEvent{Type: pipeline.EventStep, Message: "Analyse de votre question..."}
	events <- pipeline.StreamEvent{Type: pipeline.EventToken, Text: "بموجب"}
	events <- pipeline.StreamEvent{Type: pipeline.EventDone}
	close(events)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	streamEvents(w, events)

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n\n"))

	frames := strings.Split(strings.TrimSuffix(out, "\n\n"), "\n\n")
	require.Len(t, frames, 3)

	wantTypes := []string{pipeline.EventStep, pipeline.EventToken, pipeline.EventDone}
	for i, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "), "frame %d: %q", i, frame)

		var ev pipeline.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		assert.Equal(t, wantTypes[i], ev.Type)
	}
}

func TestStreamEventsUnicodePayloadSurvivesFrame(t *testing.T) {
	events := make(chan pipeline.StreamEvent, 1)
	events <- pipeline.StreamEvent{Type: pipeline.EventToken, Text: "المادة 400 من مدونة الأسرة"}
	close(events)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	streamEvents(w, events)

	var ev pipeline.StreamEvent
	payload := strings.TrimSuffix(strings.TrimPrefix(buf.String(), "data: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	assert.Equal(t, "المادة 400 من مدونة الأسرة", ev.Text)
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestStreamEventsStopsWhenClientGone(t *testing.T) {
	events := make(chan pipeline.StreamEvent, 3)
	events <- pipeline.StreamEvent{Type: pipeline.EventStep, Message: "step one"}
	events <- pipeline.StreamEvent{Type: pipeline.EventToken, Text: "never sent"}
	events <- pipeline.StreamEvent{Type: pipeline.EventDone}
	close(events)

	// Buffer of one byte forces every frame straight through to the
	// dead connection.
	w := bufio.NewWriterSize(brokenWriter{}, 1)
	streamEvents(w, events)

	assert.Equal(t, 2, len(events), "writer failure must stop the drain, not swallow it")
}
