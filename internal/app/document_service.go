package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdfchat/internal/model"
	"pdfchat/internal/pkg/pdfextract"
	"pdfchat/internal/rag"
	"pdfchat/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotAPDF          = errors.New("only pdf files are allowed")
	ErrEmptyDocument    = errors.New("pdf has no extractable text")
)

// DocumentService runs the upload path: metadata row, text extraction, then
// the ingestion pipeline. Raw PDF bytes are not retained; the blob store is
// an external collaborator and extraction happens within the request.
type DocumentService struct {
	docRepo   *repository.DocumentRepository
	chunkRepo *repository.ChunkRepository
	chatRepo  *repository.ChatRepository
	userRepo  *repository.UserRepository
	pipeline  *rag.Pipeline
	log       *zap.Logger
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	chatRepo *repository.ChatRepository,
	userRepo *repository.UserRepository,
	pipeline *rag.Pipeline,
	log *zap.Logger,
) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{
		docRepo:   docRepo,
		chunkRepo: chunkRepo,
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		pipeline:  pipeline,
		log:       log,
	}
}

type UploadInput struct {
	UserID           uint
	OriginalFilename string
	FileBytes        []byte
	GeminiAPIKey     string // optional; when set it replaces the user's stored key
}

type UploadResult struct {
	Document model.Document `json:"document"`
}

// Upload stores the metadata row, extracts the text, and indexes it. An
// ingestion failure after the row exists leaves the document partially
// indexed and is reported to the caller; no automatic cleanup.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.UserID == 0 || len(input.FileBytes) == 0 {
		return nil, ErrInvalidInput
	}
	originalName := filepath.Base(strings.TrimSpace(input.OriginalFilename))
	if originalName == "" || !strings.EqualFold(filepath.Ext(originalName), ".pdf") {
		return nil, ErrNotAPDF
	}

	if input.GeminiAPIKey != "" {
		if err := s.userRepo.UpdateGeminiAPIKey(input.UserID, input.GeminiAPIKey); err != nil {
			return nil, err
		}
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidInput
	}

	uniqueName := fmt.Sprintf("%s_%s", uuid.New().String(), originalName)
	doc := &model.Document{
		UserID:           input.UserID,
		Filename:         uniqueName,
		OriginalFilename: originalName,
		StoragePath:      fmt.Sprintf("%d/%s", input.UserID, uniqueName),
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	text, err := pdfextract.ExtractText(bytes.NewReader(input.FileBytes))
	if err != nil {
		return nil, &rag.StageError{Stage: rag.StageExtraction, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	if err := s.pipeline.Ingest(ctx, doc.ID, input.UserID, text, user.GeminiAPIKey); err != nil {
		return nil, err
	}

	return &UploadResult{Document: *doc}, nil
}

func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByUserID(userID)
}

// Delete removes the document's chunks and chat history, then the metadata
// row.
func (s *DocumentService) Delete(userID, documentID uint) error {
	if userID == 0 || documentID == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.chunkRepo.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	return s.docRepo.DeleteByIDAndUserID(doc.ID, userID)
}
