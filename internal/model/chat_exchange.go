package model

import "time"

// ChatExchange is one answered question scoped to a document and its owner.
// Rows are append-only.
type ChatExchange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ChatExchange) TableName() string {
	return "chat_history"
}
