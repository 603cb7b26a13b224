package repository

import (
	"fmt"

	"gorm.io/gorm"

	"pdfchat/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(exchange *model.ChatExchange) error {
	if err := r.db.Create(exchange).Error; err != nil {
		return fmt.Errorf("create chat exchange failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns every exchange for one document in ask order.
// Truncation to a window is the caller's concern.
func (r *ChatRepository) ListByDocumentID(documentID, userID uint) ([]model.ChatExchange, error) {
	var exchanges []model.ChatExchange
	if err := r.db.Where("document_id = ? AND user_id = ?", documentID, userID).
		Order("created_at ASC").
		Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("list chat exchanges failed: %w", err)
	}
	return exchanges, nil
}

func (r *ChatRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).
		Delete(&model.ChatExchange{}).Error; err != nil {
		return fmt.Errorf("delete chat exchanges by document failed: %w", err)
	}
	return nil
}
