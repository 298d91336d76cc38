package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsign/internal/inference"
	"docsign/internal/model"
	"docsign/internal/repository"
	"docsign/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
	ErrNoText     = errors.New("document has no extracted text")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// TextExtractor runs the extraction cascade against a document path.
type TextExtractor interface {
	ExtractText(ctx context.Context, documentPath string, mc inference.ModelConfig) (model.ExtractionResult, error)
}

// Summarizer produces a short summary of already extracted text.
type Summarizer interface {
	Summarize(ctx context.Context, text string, mc inference.ModelConfig) (string, error)
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload uploads the content to object storage, writes a local working
	// copy for extraction, saves metadata to DB, and rolls back storage if
	// the DB save fails.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document by ID from storage, the upload directory,
	// and the repository.
	Delete(ctx context.Context, id string) error

	// Extract runs the text extraction cascade for the document and persists
	// the result. A missing vision configuration is not fatal; the native
	// and local OCR stages still run.
	Extract(ctx context.Context, id string) (*model.ExtractionResult, error)

	// Summarize generates and persists a summary of the document's extracted
	// text, extracting first when no text has been stored yet.
	Summarize(ctx context.Context, id string) (string, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	settings   repository.SettingsRepository
	extractor  TextExtractor
	summarizer Summarizer
	uploadDir  string
	now        func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, settings repository.SettingsRepository, extractor TextExtractor, summarizer Summarizer, uploadDir string) DocumentService {
	return &documentService{
		store:      store,
		repo:       repo,
		settings:   settings,
		extractor:  extractor,
		summarizer: summarizer,
		uploadDir:  uploadDir,
		now:        time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	// Generate filename using UUID + extension
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("documents", genName))

	// Working copy for the extraction engine, named the way historical
	// uploads were: <unix seconds>_<original filename>.
	localName := fmt.Sprintf("%d_%s", s.now().Unix(), filepath.Base(originalFilename))
	localPath := filepath.Join(s.uploadDir, localName)
	local, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("create working copy: %w", err)
	}
	defer local.Close()

	// Upload to object storage while teeing the bytes into the working copy.
	objInfo, err := s.store.Put(ctx, key, io.TeeReader(r, local), storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Save metadata to database
	doc := &model.Document{
		ID:          uuid.New().String(),
		Filename:    genName,
		StoragePath: objInfo.Key,
		LocalPath:   localPath,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage and the working copy
		os.Remove(localPath)
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	// Find the document to get its storage path
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if doc.LocalPath != "" {
		os.Remove(doc.LocalPath)
	}
	// Delete DB row (repository ignores missing row errors as per contract)
	return s.repo.Delete(ctx, id)
}

// Extract runs the cascade and persists text and engine on success.
func (s *documentService) Extract(ctx context.Context, id string) (*model.ExtractionResult, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// A missing API key only disables the vision fallback stage, so the
	// config error is deliberately not surfaced here.
	mc, _ := s.resolveModelConfig(ctx)

	path := doc.LocalPath
	if path == "" {
		path = doc.Filename
	}
	res, err := s.extractor.ExtractText(ctx, path, mc)
	if err != nil {
		return &res, err
	}

	if err := s.repo.UpdateExtraction(ctx, id, res.Text, string(res.EngineUsed)); err != nil {
		return &res, fmt.Errorf("persist extraction: %w", err)
	}
	return &res, nil
}

// Summarize generates a summary of the document's text and persists it.
func (s *documentService) Summarize(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	text := doc.ExtractedText
	if strings.TrimSpace(text) == "" {
		res, err := s.Extract(ctx, id)
		if err != nil {
			return "", err
		}
		text = res.Text
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	mc, err := s.resolveModelConfig(ctx)
	if err != nil {
		return "", err
	}
	summary, err := s.summarizer.Summarize(ctx, text, mc)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateSummary(ctx, id, summary); err != nil {
		return "", fmt.Errorf("persist summary: %w", err)
	}
	return summary, nil
}

// resolveModelConfig reads the vision model credentials from the settings
// store on every call, so key rotations take effect without a restart.
func (s *documentService) resolveModelConfig(ctx context.Context) (inference.ModelConfig, error) {
	apiKey, err := s.settings.Get(ctx, repository.SettingOpenAIAPIKey)
	if err != nil {
		return inference.ModelConfig{}, fmt.Errorf("read api key setting: %w", err)
	}
	modelID, err := s.settings.Get(ctx, repository.SettingOpenAIModel)
	if err != nil {
		return inference.ModelConfig{}, fmt.Errorf("read model setting: %w", err)
	}
	mc := inference.ModelConfig{APIKey: apiKey, ModelID: modelID}
	if err := mc.Validate(); err != nil {
		return mc, err
	}
	return mc, nil
}
