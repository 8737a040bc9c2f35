package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/logger"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
)

// documentLanguageDefault is used when a registration does not say.
// Most of the indexed corpus is the French consolidated text.
const documentLanguageDefault = "fr"

// chunkPreviewLimit bounds the detail endpoint; full chunk dumps go
// through kbtool, not the API.
const chunkPreviewLimit = 3

var ErrDocumentNotFound = errors.New("document not found")

type IDocumentService interface {
	// Register stores a knowledge base document and queues it for
	// ingestion. The document is visible immediately with a pending
	// status; chunking and embedding happen on the consumer. A request
	// with an already-registered source file replaces that document in
	// place instead of creating a duplicate.
	Register(ctx context.Context, req *dto.RegisterDocumentRequest) (*dto.DocumentResponse, error)
	List(ctx context.Context, q *dto.ListDocumentsQuery) (*dto.DocumentListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.DocumentDetailResponse, error)
	// Remove deletes a document and its chunks. Citations stored on past
	// answers are denormalized snapshots, so they survive the removal.
	Remove(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *documentService) Register(ctx context.Context, req *dto.RegisterDocumentRequest) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	language := req.Language
	if language == "" {
		language = documentLanguageDefault
	}

	if req.SourceFile != "" {
		existing, err := uow.LegalDocumentRepository().FindOne(ctx, specification.BySourceFile{SourceFile: req.SourceFile})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.replace(ctx, uow, existing, req, language)
		}
	}

	doc := &entity.LegalDocument{
		Id:          uuid.New(),
		Name:        req.Name,
		Type:        req.Type,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		SourceFile:  req.SourceFile,
		Language:    language,
		Content:     req.Content,
		Status:      entity.DocumentStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := uow.LegalDocumentRepository().Create(ctx, doc); err != nil {
		s.logger.Error("DocumentService", "Failed to register document", map[string]interface{}{
			"name":  req.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	if err := s.queueIngestion(ctx, doc.Id); err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

// replace re-registers an updated version of a known source file. The
// ingest consumer swaps the chunks wholesale, so the old index stays
// queryable until the new one lands.
func (s *documentService) replace(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.LegalDocument, req *dto.RegisterDocumentRequest, language string) (*dto.DocumentResponse, error) {
	doc.Name = req.Name
	doc.Type = req.Type
	doc.Category = req.Category
	doc.Subcategory = req.Subcategory
	doc.Language = language
	doc.Content = req.Content
	doc.Status = entity.DocumentStatusPending

	if err := uow.LegalDocumentRepository().Update(ctx, doc); err != nil {
		s.logger.Error("DocumentService", "Failed to update document", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	s.logger.Info("DocumentService", "Re-registered document, re-ingestion queued", map[string]interface{}{
		"document_id": doc.Id.String(),
		"source_file": doc.SourceFile,
	})

	if err := s.queueIngestion(ctx, doc.Id); err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) queueIngestion(ctx context.Context, docId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{DocumentId: docId})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		s.logger.Error("DocumentService", "Failed to queue document for ingestion", map[string]interface{}{
			"document_id": docId.String(),
			"error":       err.Error(),
		})
		return err
	}
	return nil
}

func (s *documentService) List(ctx context.Context, q *dto.ListDocumentsQuery) (*dto.DocumentListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	filters := make([]specification.Specification, 0, 2)
	if q.Status != "" {
		filters = append(filters, specification.ByStatus{Status: q.Status})
	}
	if q.Category != "" {
		filters = append(filters, specification.ByCategory{Category: q.Category})
	}

	specs := append([]specification.Specification{}, filters...)
	specs = append(specs, specification.OrderBy{Field: "created_at", Desc: true})
	if q.Limit > 0 {
		specs = append(specs, specification.Pagination{Limit: q.Limit, Offset: q.Offset})
	}

	docs, err := uow.LegalDocumentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	// Total counts matches of the filter, not of the page.
	total, err := uow.LegalDocumentRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, *toDocumentResponse(doc))
	}
	return &dto.DocumentListResponse{Documents: responses, Total: total}, nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*dto.DocumentDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.LegalDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	indexed, err := uow.LegalChunkRepository().Count(ctx, specification.ByDocumentID{DocumentID: id})
	if err != nil {
		return nil, err
	}

	chunks, err := uow.LegalChunkRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: id},
		specification.OrderBy{Field: "chunk_index", Desc: false},
		specification.Pagination{Limit: chunkPreviewLimit},
	)
	if err != nil {
		return nil, err
	}

	previews := make([]dto.DocumentChunkPreview, 0, len(chunks))
	for _, chunk := range chunks {
		previews = append(previews, dto.DocumentChunkPreview{
			ChunkIndex: chunk.ChunkIndex,
			Text:       chunk.Text,
		})
	}

	return &dto.DocumentDetailResponse{
		DocumentResponse: *toDocumentResponse(doc),
		IndexedChunks:    indexed,
		Chunks:           previews,
	}, nil
}

func (s *documentService) Remove(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.LegalDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.LegalChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.LegalDocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("DocumentService", "Removed document from knowledge base", map[string]interface{}{
		"document_id": id.String(),
		"name":        doc.Name,
	})
	return nil
}

func toDocumentResponse(doc *entity.LegalDocument) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:          doc.Id,
		Name:        doc.Name,
		Type:        doc.Type,
		Category:    doc.Category,
		Subcategory: doc.Subcategory,
		SourceFile:  doc.SourceFile,
		Language:    doc.Language,
		Status:      string(doc.Status),
		ChunkCount:  doc.ChunkCount,
		CreatedAt:   doc.CreatedAt,
	}
}
