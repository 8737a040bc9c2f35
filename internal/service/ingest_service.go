package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/events"
	pktNats "github.com/berserker-glitch/9anonai-be-sub000/pkg/nats"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/utils"
)

type IIngestService interface {
	Consume(ctx context.Context) error
}

// ingestService turns registered documents into embedded chunks: split,
// embed in batch, then replace the document's chunks in one transaction.
// Re-ingesting the same document is idempotent.
type ingestService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IIngestService {
	return &ingestService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (s *ingestService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage acks poison messages so they are not retried forever
// and nacks retriable failures (store or embedding provider down).
func (s *ingestService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Ingesting document %s", payload.DocumentId)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.LegalDocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	if doc == nil {
		log.Printf("[WARN] Document %s no longer exists, dropping", payload.DocumentId)
		msg.Ack()
		return
	}

	chunks := utils.SplitText(doc.Content, utils.DefaultChunkSize, utils.DefaultChunkOverlap)
	log.Printf("[INFO] Document %s split into %d chunks", doc.Id, len(chunks))

	if len(chunks) == 0 {
		if err := uow.LegalDocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusIndexed, 0); err != nil {
			log.Printf("[ERROR] Failed to mark empty document %s: %v", doc.Id, err)
			msg.Nack()
			return
		}
		msg.Ack()
		return
	}

	vectors, err := s.embeddingProvider.GenerateBatch(ctx, chunks, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Printf("[ERROR] Failed to embed document %s: %v", doc.Id, err)
		s.markFailed(ctx, uow, doc.Id)
		msg.Nack()
		return
	}
	if len(vectors) != len(chunks) {
		log.Printf("[ERROR] Embedding count mismatch for document %s: %d chunks, %d vectors", doc.Id, len(chunks), len(vectors))
		s.markFailed(ctx, uow, doc.Id)
		msg.Nack()
		return
	}

	newChunks := make([]*entity.LegalChunk, 0, len(chunks))
	for i, text := range chunks {
		newChunks = append(newChunks, &entity.LegalChunk{
			Id:             uuid.New(),
			DocumentId:     doc.Id,
			Text:           text,
			ChunkIndex:     i,
			EmbeddingValue: vectors[i],
			Category:       doc.Category,
			Subcategory:    doc.Subcategory,
			DocumentName:   doc.Name,
			DocumentType:   doc.Type,
			SourceFile:     doc.SourceFile,
			Language:       doc.Language,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.LegalChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks for document %s: %v", doc.Id, err)
		msg.Nack()
		return
	}
	if err := uow.LegalChunkRepository().CreateBulk(ctx, newChunks); err != nil {
		log.Printf("[ERROR] Failed to insert chunks for document %s: %v", doc.Id, err)
		msg.Nack()
		return
	}
	if err := uow.LegalDocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusIndexed, len(newChunks)); err != nil {
		log.Printf("[ERROR] Failed to update status for document %s: %v", doc.Id, err)
		msg.Nack()
		return
	}
	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit ingestion of document %s: %v", doc.Id, err)
		msg.Nack()
		return
	}

	s.publishIngested(ctx, doc, len(newChunks))

	log.Printf("[SUCCESS] Document %s indexed: %d chunks", doc.Id, len(newChunks))
	msg.Ack()
}

// markFailed flips the status so the admin listing shows the problem.
// A later redelivery that succeeds flips it back to indexed.
func (s *ingestService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, docId uuid.UUID) {
	if err := uow.LegalDocumentRepository().UpdateStatus(ctx, docId, entity.DocumentStatusFailed, 0); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as failed: %v", docId, err)
	}
}

func (s *ingestService) publishIngested(ctx context.Context, doc *entity.LegalDocument, chunkCount int) {
	if s.eventPublisher == nil {
		return
	}
	event := events.NewDocumentIngested(doc.Id, doc.Name, doc.Category, chunkCount)
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		log.Printf("[WARN] Failed to publish ingestion event for document %s: %v", doc.Id, err)
	}
}
