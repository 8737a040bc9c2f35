package pipeline

import (
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/store"
)

// Event discriminators. The wire format is one JSON object per event
// with a "type" field; consumers must treat the event sequence, not any
// single event, as the contract.
const (
	EventStep         = "step"
	EventIntent       = "intent"
	EventCitation     = "citation"
	EventToken        = "token"
	EventSources      = "sources"
	EventHtmlUpdate   = "html_update"
	EventReviewResult = "review_result"
	EventError        = "error"
	EventDone         = "done"
)

// StreamEvent is the tagged union both pipelines emit. Only the fields
// of the active variant are populated; empty collections are omitted
// from the wire, so a citation event with no citations serializes as
// just its type.
type StreamEvent struct {
	Type      string                   `json:"type"`
	Message   string                   `json:"message,omitempty"`
	Intent    *intent.Intent           `json:"intent,omitempty"`
	Citations []entity.MessageCitation `json:"citations,omitempty"`
	Text      string                   `json:"text,omitempty"`
	Sources   []store.Document         `json:"sources,omitempty"`
	Html      string                   `json:"html,omitempty"`
	Version   int                      `json:"version,omitempty"`
	Review    *entity.ContractReview   `json:"review,omitempty"`
}

func stepEvent(message string) StreamEvent {
	return StreamEvent{Type: EventStep, Message: message}
}

func intentEvent(it *intent.Intent) StreamEvent {
	return StreamEvent{Type: EventIntent, Intent: it}
}

func citationEvent(citations []entity.MessageCitation) StreamEvent {
	return StreamEvent{Type: EventCitation, Citations: citations}
}

func tokenEvent(text string) StreamEvent {
	return StreamEvent{Type: EventToken, Text: text}
}

func sourcesEvent(sources []store.Document) StreamEvent {
	return StreamEvent{Type: EventSources, Sources: sources}
}

func htmlUpdateEvent(html string, version int) StreamEvent {
	return StreamEvent{Type: EventHtmlUpdate, Html: html, Version: version}
}

func reviewResultEvent(review *entity.ContractReview) StreamEvent {
	return StreamEvent{Type: EventReviewResult, Review: review}
}

func errorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}

func doneEvent() StreamEvent {
	return StreamEvent{Type: EventDone}
}

// emitter delivers events to the consumer channel unless the request
// context is gone; it reports whether the consumer is still there so
// producers can stop early on disconnect.
type emitter struct {
	ch   chan<- StreamEvent
	done <-chan struct{}
}

func (e *emitter) emit(ev StreamEvent) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.done:
		return false
	}
}
