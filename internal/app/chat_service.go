package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdfchat/internal/model"
	"pdfchat/internal/rag"
	"pdfchat/internal/repository"
)

var (
	ErrQuestionEmpty   = errors.New("question is empty")
	ErrExchangeEnqueue = errors.New("exchange enqueue failed")
)

// AsyncExchangePublisher hands answered exchanges to the persist queue.
type AsyncExchangePublisher interface {
	Publish(ctx context.Context, exchange model.ChatExchange) error
}

// HistoryCache is the short-lived history view; see internal/cache.
type HistoryCache interface {
	GetHistory(ctx context.Context, userID, documentID uint) ([]model.ChatExchange, bool, error)
	SetHistory(ctx context.Context, userID, documentID uint, exchanges []model.ChatExchange) error
	DeleteHistory(ctx context.Context, userID, documentID uint) error
	MarkDirty(ctx context.Context, userID, documentID uint) error
	IsDirty(ctx context.Context, userID, documentID uint) (bool, error)
}

// ChatService answers questions against one document through the retrieval
// pipeline and maintains the exchange history around it.
type ChatService struct {
	docRepo      *repository.DocumentRepository
	chatRepo     *repository.ChatRepository
	userRepo     *repository.UserRepository
	pipeline     *rag.Pipeline
	publisher    AsyncExchangePublisher
	historyCache HistoryCache
	log          *zap.Logger
}

func NewChatService(
	docRepo *repository.DocumentRepository,
	chatRepo *repository.ChatRepository,
	userRepo *repository.UserRepository,
	pipeline *rag.Pipeline,
	publisher AsyncExchangePublisher,
	historyCache HistoryCache,
	log *zap.Logger,
) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		docRepo:      docRepo,
		chatRepo:     chatRepo,
		userRepo:     userRepo,
		pipeline:     pipeline,
		publisher:    publisher,
		historyCache: historyCache,
		log:          log,
	}
}

type AskInput struct {
	UserID     uint
	DocumentID uint
	Question   string
}

type AskResult struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Outcome  rag.Outcome `json:"outcome"`
}

// Ask runs the query path for one question and appends the exchange to the
// document's history. Refusals are recorded like any other answer; provider
// and store failures are returned as errors and leave no history row.
func (s *ChatService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	if input.UserID == 0 || input.DocumentID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrQuestionEmpty
	}

	doc, err := s.docRepo.GetByIDAndUserID(input.DocumentID, input.UserID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidInput
	}

	outcome, err := s.pipeline.Answer(ctx, input.DocumentID, question, user.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	exchange := model.ChatExchange{
		DocumentID: input.DocumentID,
		UserID:     input.UserID,
		Question:   question,
		Answer:     outcome.Answer,
		CreatedAt:  time.Now(),
	}
	if s.publisher == nil {
		return nil, ErrExchangeEnqueue
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, input.UserID, input.DocumentID)
		_ = s.historyCache.DeleteHistory(ctx, input.UserID, input.DocumentID)
	}
	if err := s.publisher.Publish(ctx, exchange); err != nil {
		return nil, ErrExchangeEnqueue
	}

	return &AskResult{
		Question: question,
		Answer:   outcome.Answer,
		Outcome:  outcome,
	}, nil
}

// GetHistory returns the newest limit exchanges for the document in ask
// order, cache-first when the history is not marked dirty. The cache always
// holds the full list; the window is cut after the fact so cached and
// uncached reads agree.
func (s *ChatService) GetHistory(ctx context.Context, userID, documentID uint, limit int) ([]model.ChatExchange, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}

	doc, err := s.docRepo.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, userID, documentID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, userID, documentID); cacheErr == nil && hit {
				return trimExchanges(cached, limit), nil
			}
		}
	}

	exchanges, err := s.chatRepo.ListByDocumentID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, userID, documentID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, userID, documentID, exchanges)
		}
	}
	return trimExchanges(exchanges, limit), nil
}

func trimExchanges(exchanges []model.ChatExchange, limit int) []model.ChatExchange {
	if limit <= 0 || limit >= len(exchanges) {
		return exchanges
	}
	return exchanges[len(exchanges)-limit:]
}
