package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/config"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/entity"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/implementation"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/specification"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/repository/unitofwork"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/database"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/embedding/jina"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/intent"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/retriever"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/rag/router"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/utils"
)

// kbtool maintains and inspects the legal knowledge base from the
// command line: ingest a document, probe retrieval with a real query,
// or list what is indexed. It talks to the same database and embedding
// provider as the server, so probe results match production behavior.
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(os.Args[2:])
	case "probe":
		runProbe(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	default:
		color.Red("unknown command %q", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  kbtool ingest -category <cat> [-name N] [-type T] [-subcategory S] [-lang ar|fr] <file>")
	fmt.Fprintln(os.Stderr, "  kbtool probe [-domain D] [-complex] [-limit N] <question>")
	fmt.Fprintln(os.Stderr, "  kbtool stats")
}

func connect(cfg *config.Config) *gorm.DB {
	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

func buildEmbedder(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		color.Blue("embedding provider: ollama (%s)", cfg.Ai.OllamaModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		color.Blue("embedding provider: jina")
		return jina.NewJinaProvider(cfg.Keys.Jina)
	default:
		color.Blue("embedding provider: gemini")
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
}

// runIngest registers a document and indexes it synchronously: split,
// embed in batch, replace chunks in one transaction. Same algorithm as
// the server's ingest consumer, without the queue.
func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	name := fs.String("name", "", "document display name (default: file name)")
	docType := fs.String("type", "loi", "document type: code, loi, decret, jurisprudence, modele")
	category := fs.String("category", "", "routing category, e.g. moudawana, code_travail (required)")
	subcategory := fs.String("subcategory", "", "optional subcategory, e.g. divorce")
	lang := fs.String("lang", "ar", "document language: ar or fr")
	fs.Parse(args)

	if fs.NArg() != 1 || *category == "" {
		usage()
		os.Exit(2)
	}
	path := fs.Arg(0)

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", path, err)
	}
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	cfg := config.Load()
	db := connect(cfg)
	embedder := buildEmbedder(cfg)
	ctx := context.Background()

	docRepo := implementation.NewLegalDocumentRepository(db)

	// Re-running on the same file replaces the document instead of
	// stacking duplicates in the index.
	sourceFile := filepath.Base(path)
	doc, err := docRepo.FindOne(ctx, specification.BySourceFile{SourceFile: sourceFile})
	if err != nil {
		log.Fatalf("failed to look up %s: %v", sourceFile, err)
	}
	creating := doc == nil
	if creating {
		doc = &entity.LegalDocument{
			Id:         uuid.New(),
			SourceFile: sourceFile,
			CreatedAt:  time.Now(),
		}
	} else {
		color.Yellow("source file already indexed as %s, replacing", doc.Id)
	}
	doc.Name = *name
	doc.Type = *docType
	doc.Category = *category
	doc.Subcategory = *subcategory
	doc.Language = *lang
	doc.Content = string(content)
	doc.Status = entity.DocumentStatusPending

	chunks := utils.SplitText(doc.Content, utils.DefaultChunkSize, utils.DefaultChunkOverlap)
	color.Yellow("ingesting %q: %d bytes, %d chunks", doc.Name, len(content), len(chunks))
	if len(chunks) == 0 {
		log.Fatal("document is empty after splitting")
	}

	vectors, err := embedder.GenerateBatch(ctx, chunks, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Fatalf("embedding failed: %v", err)
	}
	if len(vectors) != len(chunks) {
		log.Fatalf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
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

	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	defer uow.Rollback()

	if creating {
		err = uow.LegalDocumentRepository().Create(ctx, doc)
	} else {
		err = uow.LegalDocumentRepository().Update(ctx, doc)
	}
	if err != nil {
		log.Fatalf("failed to register document: %v", err)
	}
	if err := uow.LegalChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		log.Fatalf("failed to drop old chunks: %v", err)
	}
	if err := uow.LegalChunkRepository().CreateBulk(ctx, newChunks); err != nil {
		log.Fatalf("failed to insert chunks: %v", err)
	}
	if err := uow.LegalDocumentRepository().UpdateStatus(ctx, doc.Id, entity.DocumentStatusIndexed, len(newChunks)); err != nil {
		log.Fatalf("failed to update document status: %v", err)
	}
	if err := uow.Commit(); err != nil {
		log.Fatalf("failed to commit: %v", err)
	}

	color.Green("indexed %q (%s): %d chunks in category %s", doc.Name, doc.Id, len(newChunks), doc.Category)
}

// runProbe sends a query through the production retrieval path (router
// included, LLM excluded) and prints what the prompt would be built from.
func runProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	domain := fs.String("domain", intent.DomainOther, "legal domain: family, labor, criminal, commercial, realestate, tax, consumer, administrative, other")
	complex := fs.Bool("complex", false, "probe with complex-query retrieval depth")
	fs.Parse(args)

	if fs.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	query := strings.Join(fs.Args(), " ")

	cfg := config.Load()
	db := connect(cfg)
	embedder := buildEmbedder(cfg)
	logger := log.New(os.Stderr, "", 0)

	chunkRepo := implementation.NewLegalChunkRepository(db)
	ret := retriever.NewRetriever(embedder, chunkRepo, cfg.Ai.MinRelevanceScore, logger)
	rt := router.NewRouter(ret, logger)

	complexity := intent.ComplexitySimple
	if *complex {
		complexity = intent.ComplexityComplex
	}
	it := &intent.Intent{Type: intent.TypeLegal, Domain: *domain, Complexity: complexity}

	color.Yellow("probing %q (domain=%s, complexity=%s)", query, it.Domain, it.Complexity)
	start := time.Now()
	res := rt.Route(context.Background(), query, it)
	elapsed := time.Since(start)

	if len(res.SearchedCategories) > 0 {
		color.Blue("categories: %s", strings.Join(res.SearchedCategories, ", "))
	} else {
		color.Blue("categories: (whole knowledge base)")
	}
	if res.Broadened {
		color.Magenta("filtered search came back thin, broadened to the whole knowledge base")
	}

	if len(res.Sources) == 0 {
		color.Red("no sources above the relevance floor (%.2f) in %s", cfg.Ai.MinRelevanceScore, elapsed)
		return
	}

	for i, doc := range res.Sources {
		fmt.Println()
		color.Green("[%d] %s  score=%.3f", i+1, doc.DocumentName, doc.Score)
		fmt.Printf("    %s | chunk %s\n", doc.CategoryPath(), doc.ID)
		fmt.Printf("    %s\n", preview(doc.Text, 160))
	}
	fmt.Println()
	color.Cyan("%d source(s), confidence=%s, %s", len(res.Sources), res.Confidence, elapsed)
}

// runStats lists indexed documents and chunk counts.
func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)

	cfg := config.Load()
	db := connect(cfg)
	ctx := context.Background()

	docRepo := implementation.NewLegalDocumentRepository(db)
	chunkRepo := implementation.NewLegalChunkRepository(db)

	docs, err := docRepo.FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		log.Fatalf("failed to list documents: %v", err)
	}
	totalChunks, err := chunkRepo.Count(ctx)
	if err != nil {
		log.Fatalf("failed to count chunks: %v", err)
	}

	if len(docs) == 0 {
		color.Yellow("knowledge base is empty")
		return
	}

	byCategory := make(map[string]int)
	for _, doc := range docs {
		byCategory[doc.Category]++
		status := color.GreenString(string(doc.Status))
		switch doc.Status {
		case entity.DocumentStatusPending:
			status = color.YellowString(string(doc.Status))
		case entity.DocumentStatusFailed:
			status = color.RedString(string(doc.Status))
		}
		fmt.Printf("%-38s %-20s %-10s %s  %4d chunks  %s\n",
			doc.Id, truncateCell(doc.Name, 20), doc.Language, status, doc.ChunkCount, doc.Category)
	}

	fmt.Println()
	for category, n := range byCategory {
		fmt.Printf("  %-24s %d document(s)\n", category, n)
	}
	color.Cyan("\n%d document(s), %d chunk(s) total", len(docs), totalChunks)
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func truncateCell(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
