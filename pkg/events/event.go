package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried on the bus. The NATS subject is "events." + type.
const (
	TypeAdviceAnswered   = "ADVICE_ANSWERED"
	TypeContractAudited  = "CONTRACT_AUDITED"
	TypeDocumentIngested = "DOCUMENT_INGESTED"
	TypeEmbedCache       = "EMBED_CACHE"
)

// Event is the contract for everything published on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "CONTRACT_AUDITED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Envelope is the wire format. Publishers marshal the full envelope so
// subscribers can reconstruct the event without guessing the type from
// the subject.
type Envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// BaseEvent is the plain implementation used by the constructors below
// and by subscribers rebuilding events from envelopes.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewAdviceAnswered records a completed advice turn.
func NewAdviceAnswered(sessionId, userId uuid.UUID, intentType, domain string, sourceCount int, duration time.Duration) Event {
	return BaseEvent{
		Type: TypeAdviceAnswered,
		Data: map[string]interface{}{
			"session_id":   sessionId.String(),
			"user_id":      userId.String(),
			"intent_type":  intentType,
			"domain":       domain,
			"source_count": sourceCount,
			"duration_ms":  duration.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}

// NewContractAudited records a completed drafting turn, including how
// many critical issues the compliance pass found.
func NewContractAudited(sessionId, userId uuid.UUID, contractType string, version, criticalIssues int) Event {
	return BaseEvent{
		Type: TypeContractAudited,
		Data: map[string]interface{}{
			"session_id":      sessionId.String(),
			"user_id":         userId.String(),
			"contract_type":   contractType,
			"version":         version,
			"critical_issues": criticalIssues,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIngested records that a legal document finished chunking
// and embedding and is now searchable.
func NewDocumentIngested(documentId uuid.UUID, name, category string, chunkCount int) Event {
	return BaseEvent{
		Type: TypeDocumentIngested,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"name":        name,
			"category":    category,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewEmbedCacheSignal reports one embedding cache lookup. Consumed by
// the telemetry subscriber to track hit rates.
func NewEmbedCacheSignal(hit bool) Event {
	return BaseEvent{
		Type: TypeEmbedCache,
		Data: map[string]interface{}{
			"hit": hit,
		},
		OccurredAt: time.Now(),
	}
}
